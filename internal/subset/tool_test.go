package subset

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tso/internal/logging"
	"tso/internal/options"
)

type call struct {
	Name  string
	Args  []string
	Stdin string
}

type result struct {
	stdout, stderr string
	code           int
	err            error
}

// fakeRunner replays results in order and records every call
type fakeRunner struct {
	results []result
	calls   []call
}

func (r *fakeRunner) Run(_ context.Context, name string, args []string, stdin string) (string, string, int, error) {
	r.calls = append(r.calls, call{Name: name, Args: args, Stdin: stdin})
	if len(r.results) == 0 {
		return "", "", 0, nil
	}
	res := r.results[0]
	r.results = r.results[1:]
	return res.stdout, res.stderr, res.code, res.err
}

func newTool(r Runner) *Tool {
	return &Tool{
		Path:    "launchable",
		Session: "builds/test/test_sessions/1",
		Runner:  r,
		Log:     logging.Discard(),
	}
}

var candidates = []string{"tests/test1.py", "tests/test2.py"}

func TestTool_SubsetWithTarget(t *testing.T) {
	r := &fakeRunner{results: []result{{stdout: "tests/test2.py\ntests/test1.py\n"}}}

	got, err := newTool(r).Subset(context.Background(), candidates, "10")
	require.NoError(t, err)

	want := []call{{
		Name:  "launchable",
		Args:  []string{"subset", "--session", "builds/test/test_sessions/1", "--target", "10%", "file"},
		Stdin: "tests/test1.py\ntests/test2.py",
	}}
	if diff := cmp.Diff(want, r.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"tests/test2.py", "tests/test1.py"}, got)
}

func TestTool_SubsetWithOptions(t *testing.T) {
	r := &fakeRunner{results: []result{{stdout: "tests/test2.py\ntests/test1.py\n"}}}
	opts, err := options.Parse("--target 10%")
	require.NoError(t, err)

	got, err := newTool(r).SubsetWithOptions(context.Background(), candidates, opts)
	require.NoError(t, err)

	require.Len(t, r.calls, 1)
	assert.Equal(t, []string{"subset", "--session", "builds/test/test_sessions/1", "--target", "10%", "file"}, r.calls[0].Args)
	assert.Equal(t, []string{"tests/test2.py", "tests/test1.py"}, got)
}

func TestTool_SplitSubset(t *testing.T) {
	r := &fakeRunner{results: []result{
		{stdout: "/subset/123\n"},
		{stdout: "tests/test2.py"},
	}}
	opts, err := options.Parse("--target 30% --bin 1/2")
	require.NoError(t, err)

	got, err := newTool(r).SubsetWithOptions(context.Background(), candidates, opts)
	require.NoError(t, err)

	want := []call{
		{
			Name:  "launchable",
			Args:  []string{"subset", "--session", "builds/test/test_sessions/1", "--target", "30%", "--split", "file"},
			Stdin: "tests/test1.py\ntests/test2.py",
		},
		{
			Name: "launchable",
			Args: []string{"split-subset", "--subset-id", "/subset/123", "--bin", "1/2", "file"},
		},
	}
	if diff := cmp.Diff(want, r.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"tests/test2.py"}, got)
}

func TestTool_Failures(t *testing.T) {
	tests := []struct {
		name    string
		results []result
		opts    string
		check   func(t *testing.T, err error)
	}{
		{
			name:    "non-zero exit",
			results: []result{{stdout: "partial", stderr: "error", code: 1}},
			opts:    "--target 10%",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrToolFailed)
				var toolErr *ToolError
				require.ErrorAs(t, err, &toolErr)
				assert.Equal(t, 1, toolErr.ExitCode)
				assert.Equal(t, "error", toolErr.Stderr)
				assert.Equal(t, "launchable", toolErr.Args[0])
			},
		},
		{
			name:    "cannot start",
			results: []result{{code: -1, err: errors.New("executable file not found")}},
			opts:    "--target 10%",
			check: func(t *testing.T, err error) {
				assert.NotErrorIs(t, err, ErrToolFailed)
				assert.Contains(t, err.Error(), "executable file not found")
			},
		},
		{
			name:    "split phase two fails",
			results: []result{{stdout: "/subset/1"}, {code: 2}},
			opts:    "--bin 2/3",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrToolFailed)
			},
		},
		{
			name:    "split without subset id",
			results: []result{{stdout: "\n"}},
			opts:    "--bin 2/3",
			check: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := options.Parse(tt.opts)
			require.NoError(t, err)

			got, err := newTool(&fakeRunner{results: tt.results}).SubsetWithOptions(context.Background(), candidates, opts)
			require.Error(t, err)
			assert.Nil(t, got)
			tt.check(t, err)
		})
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{in: "", want: []string{}},
		{in: "\n", want: []string{}},
		{in: "a\nb\n", want: []string{"a", "b"}},
		{in: "a\r\n\nb", want: []string{"a", "b"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitLines(tt.in), "input %q", tt.in)
	}
}

func TestTool_Cache(t *testing.T) {
	cache, err := NewCache(4)
	require.NoError(t, err)

	r := &fakeRunner{results: []result{{stdout: "tests/test1.py\n"}, {stdout: "tests/test2.py\n"}}}
	tool := newTool(r)
	tool.Cache = cache

	first, err := tool.Subset(context.Background(), candidates, "50")
	require.NoError(t, err)
	second, err := tool.Subset(context.Background(), candidates, "50")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, r.calls, 1)

	other, err := tool.Subset(context.Background(), candidates, "60")
	require.NoError(t, err)
	assert.Equal(t, []string{"tests/test2.py"}, other)
	assert.Len(t, r.calls, 2)
	assert.Equal(t, 2, cache.Len())
}

func TestTool_FailuresAreNotCached(t *testing.T) {
	cache, err := NewCache(0)
	require.NoError(t, err)

	r := &fakeRunner{results: []result{{code: 1}, {stdout: "tests/test1.py"}}}
	tool := newTool(r)
	tool.Cache = cache

	_, err = tool.Subset(context.Background(), candidates, "50")
	require.Error(t, err)
	got, err := tool.Subset(context.Background(), candidates, "50")
	require.NoError(t, err)
	assert.Equal(t, []string{"tests/test1.py"}, got)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, key("a", []string{"b"}, "c"), key("a", []string{"b"}, "c"))
	assert.NotEqual(t, key("a", []string{"b c"}, ""), key("a", []string{"b", "c"}, ""))
	assert.NotEqual(t, key("a", []string{"b"}, ""), key("a", nil, "b"))

	var nilCache *Cache
	nilCache.Add("a", nil, "", "out")
	_, ok := nilCache.Get("a", nil, "")
	assert.False(t, ok)
}

func TestExecRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	r := ExecRunner{}

	stdout, _, code, err := r.Run(context.Background(), "sh", []string{"-c", "cat; echo"}, "tests/a.py")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "tests/a.py\n", stdout)

	_, stderr, code, err := r.Run(context.Background(), "sh", []string{"-c", "echo nope >&2; exit 3"}, "")
	require.NoError(t, err)
	assert.Equal(t, 3, code)
	assert.Equal(t, "nope\n", stderr)

	_, _, _, err = r.Run(context.Background(), "definitely-not-a-real-binary-tso", nil, "")
	assert.Error(t, err)
}
