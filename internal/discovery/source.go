package discovery

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tso/internal/logging"
	"tso/internal/tree"
)

// dirSource is a directory of test files: a composite suite
type dirSource struct {
	name     string
	children []tree.Source
}

func (d *dirSource) Leaf() bool { return false }
func (d *dirSource) Name() string { return d.name }
func (d *dirSource) Runnable() bool { return false }
func (d *dirSource) Children() []tree.Source { return d.children }

// fileSource is one test file: a leaf named by its slash-separated path
// relative to the project. Its test cases are parsed on first use.
type fileSource struct {
	name   string
	path   string
	parser *Parser
	log    *logging.Logger

	parsed bool
	cases  []tree.Source
}

func (f *fileSource) Leaf() bool { return true }
func (f *fileSource) Name() string { return f.name }
func (f *fileSource) Runnable() bool { return false }

func (f *fileSource) Children() []tree.Source {
	if f.parsed {
		return f.cases
	}
	f.parsed = true

	cases, err := f.parser.FindTestCases(f.path)
	if err != nil {
		f.log.Warnf("%v", err)
		return nil
	}
	for _, c := range cases {
		f.cases = append(f.cases, caseSource(c.String()))
	}
	return f.cases
}

// caseSource is a single test function, the unit that runs
type caseSource string

func (c caseSource) Leaf() bool { return true }
func (c caseSource) Name() string { return string(c) }
func (c caseSource) Runnable() bool { return true }
func (c caseSource) Children() []tree.Source { return nil }

// failureSource stands for a file that could not be loaded. It is kept
// in the tree so the failure is reported when the suite runs.
type failureSource struct{}

func (failureSource) Leaf() bool { return true }
func (failureSource) Name() string { return tree.FailureName }
func (failureSource) Runnable() bool { return true }
func (failureSource) Children() []tree.Source { return nil }

// NewSource arranges files found under root into a suite hierarchy:
// one composite per directory, one leaf per file, both in lexical order.
// Leaf names are paths relative to project, with forward slashes.
func NewSource(project, root string, files []string, parser *Parser, log *logging.Logger) tree.Source {
	top := &dirNode{dirs: map[string]*dirNode{}}
	for _, file := range files {
		rel, err := filepath.Rel(root, file)
		if err != nil || strings.HasPrefix(rel, "..") {
			log.Warnf("skipping %s: outside %s", file, root)
			continue
		}

		name := file
		if r, err := filepath.Rel(project, file); err == nil {
			name = r
		}
		name = filepath.ToSlash(name)

		parts := strings.Split(filepath.ToSlash(rel), "/")
		d := top
		for _, dir := range parts[:len(parts)-1] {
			d = d.child(dir)
		}
		if _, err := os.Stat(file); err != nil {
			log.Warnf("cannot load %s: %v", file, err)
			d.files = append(d.files, entry{key: filepath.Base(file), src: failureSource{}})
			continue
		}
		d.files = append(d.files, entry{key: filepath.Base(file), src: &fileSource{name: name, path: file, parser: parser, log: log}})
	}
	return top.source(filepath.ToSlash(root))
}

type dirNode struct {
	dirs  map[string]*dirNode
	order []string
	files []entry
}

type entry struct {
	key string
	src tree.Source
}

func (d *dirNode) child(name string) *dirNode {
	c, ok := d.dirs[name]
	if !ok {
		c = &dirNode{dirs: map[string]*dirNode{}}
		d.dirs[name] = c
		d.order = append(d.order, name)
	}
	return c
}

// source converts the directory into a dirSource with files and
// subdirectories sorted by name together, the order a directory walk
// reports them in.
func (d *dirNode) source(name string) *dirSource {
	entries := append([]entry(nil), d.files...)
	for _, n := range d.order {
		entries = append(entries, entry{key: n, src: d.dirs[n].source(n)})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	out := &dirSource{name: name}
	for _, e := range entries {
		out.children = append(out.children, e.src)
	}
	return out
}
