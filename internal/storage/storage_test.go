package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tso/internal/config"
	"tso/internal/domain"
)

func sampleEvent(name string, status domain.Status) *domain.CaseEvent {
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	return domain.NewCaseEventAt(domain.NewTestPath("tests/"+name+".py", "", name), time.Second, status, "out "+name, "", at)
}

func TestJSONStorage_SaveLoad(t *testing.T) {
	cfg := config.New()
	cfg.ProjectPath = t.TempDir()
	s := NewJSONStorage(cfg)
	assert.Equal(t, filepath.Join(cfg.ProjectPath, ".tso", "results.json"), s.Path())

	rec := NewRecorder("build-1", "builds/build-1/test_sessions/9")
	require.NoError(t, rec.Upload(context.Background(), []*domain.CaseEvent{
		sampleEvent("a", domain.StatusPassed),
		sampleEvent("b", domain.StatusFailed),
	}))
	j := rec.Finish()
	j.Records[1].Resolved = true

	require.NoError(t, s.Save(j))
	_, err := os.Stat(s.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, j.RunID, got.RunID)
	assert.Equal(t, "build-1", got.Build)
	assert.Equal(t, "builds/build-1/test_sessions/9", got.Session)
	require.Len(t, got.Records, 2)
	assert.Equal(t, "tests/b.py#b", got.Records[1].Event.TestPath().String())
	assert.True(t, got.Records[1].Resolved)
	assert.False(t, got.Records[0].Resolved)
	assert.Equal(t, domain.JournalStats{Total: 2, Passed: 1, Failed: 1, Duration: 2 * time.Second}, got.Stats())
}

func TestJSONStorage_LoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewJSONStorageAt(filepath.Join(dir, "missing.json")).Load()
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0644))
	_, err = NewJSONStorageAt(bad).Load()
	assert.Error(t, err)
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder("b", "")
	_, err := ulid.Parse(rec.Journal().RunID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < 25; k++ {
				_ = rec.Upload(context.Background(), []*domain.CaseEvent{sampleEvent("x", domain.StatusPassed)})
			}
		}()
	}
	wg.Wait()

	snap := rec.Journal()
	assert.Len(t, snap.Records, 100)
	assert.True(t, snap.FinishedAt.IsZero())

	ids := map[string]bool{}
	for _, r := range snap.Records {
		ids[r.ID] = true
	}
	assert.Len(t, ids, 100)

	// snapshots are independent of later uploads
	_ = rec.Upload(context.Background(), []*domain.CaseEvent{sampleEvent("y", domain.StatusFailed)})
	assert.Len(t, snap.Records, 100)

	rec.SetSession("builds/b/test_sessions/1")
	final := rec.Finish()
	assert.Len(t, final.Records, 101)
	assert.Equal(t, "builds/b/test_sessions/1", final.Session)
	assert.False(t, final.FinishedAt.IsZero())
}

func TestNewS3Mirror_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.S3Config
	}{
		{name: "no endpoint", cfg: config.S3Config{Bucket: "b", AccessKey: "a", SecretKey: "s"}},
		{name: "no keys", cfg: config.S3Config{Endpoint: "localhost:9000", Bucket: "b"}},
		{name: "no bucket", cfg: config.S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewS3Mirror(tt.cfg)
			assert.Error(t, err)
		})
	}

	m, err := NewS3Mirror(config.S3Config{Endpoint: "localhost:9000", Bucket: "results", AccessKey: "a", SecretKey: "s"})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultS3Region, m.region)
}

func TestObjectKeys(t *testing.T) {
	assert.Equal(t, "01HX/results.json", objectKey(" 01HX "))

	tests := []struct {
		key  string
		run  string
		isOK bool
	}{
		{key: "01HX/results.json", run: "01HX", isOK: true},
		{key: "results.json"},
		{key: "a/b/results.json"},
		{key: "01HX/other.json"},
	}
	for _, tt := range tests {
		run, ok := runFromKey(tt.key)
		assert.Equal(t, tt.isOK, ok, tt.key)
		assert.Equal(t, tt.run, run, tt.key)
	}
}
