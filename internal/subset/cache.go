package subset

import (
	"encoding/binary"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/blake3"
)

// DefaultCacheSize is the number of tool outputs a Cache keeps
const DefaultCacheSize = 128

// Cache memoizes successful tool invocations by their argv and stdin.
// A nil *Cache caches nothing.
type Cache struct {
	entries *lru.Cache[string, string]
}

// NewCache returns a Cache holding up to size outputs
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

// Get returns the stored output for the invocation
func (c *Cache) Get(name string, args []string, stdin string) (string, bool) {
	if c == nil {
		return "", false
	}
	return c.entries.Get(key(name, args, stdin))
}

// Add stores the output of a successful invocation
func (c *Cache) Add(name string, args []string, stdin, stdout string) {
	if c == nil {
		return
	}
	c.entries.Add(key(name, args, stdin), stdout)
}

// Len returns the number of cached outputs
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

// key hashes the invocation. Counts and lengths are written ahead of the
// strings so different argv splits never collide.
func key(name string, args []string, stdin string) string {
	h := blake3.New()
	var buf [8]byte
	writeLen := func(n int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(n))
		_, _ = h.Write(buf[:])
	}
	write := func(s string) {
		writeLen(len(s))
		_, _ = h.Write([]byte(s))
	}

	write(name)
	writeLen(len(args))
	for _, a := range args {
		write(a)
	}
	write(stdin)
	return hex.EncodeToString(h.Sum(nil))
}
