package options

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]string
	}{
		{
			name:  "target and flavor",
			input: "--target 50% --flavor key=value",
			want:  map[string]string{"--target": "50%", "--flavor": "key=value"},
		},
		{
			name:  "split with bin and time",
			input: "--split --bin 1/2 --time 1h20m",
			want:  map[string]string{"--split": "", "--bin": "1/2", "--time": "1h20m"},
		},
		{
			name:  "trailing boolean",
			input: "--target 10% --split",
			want:  map[string]string{"--target": "10%", "--split": ""},
		},
		{
			name:  "quoted value",
			input: `--flavor "os=ubuntu 22.04" --confidence 90%`,
			want:  map[string]string{"--flavor": "os=ubuntu 22.04", "--confidence": "90%"},
		},
		{
			name:  "short flag",
			input: "-t 30%",
			want:  map[string]string{"-t": "30%"},
		},
		{
			name:  "shell operators are literal",
			input: "--target 50% --flavor os=linux;arch=x86 --bin 1/2",
			want:  map[string]string{"--target": "50%", "--flavor": "os=linux;arch=x86", "--bin": "1/2"},
		},
		{
			name:  "ampersand and pipe",
			input: "--flavor a&b --tag x|y --bin 1/2",
			want:  map[string]string{"--flavor": "a&b", "--tag": "x|y", "--bin": "1/2"},
		},
		{
			name:  "operators inside quotes",
			input: `--flavor "a;b" --tag 'c>d'`,
			want:  map[string]string{"--flavor": "a;b", "--tag": "c>d"},
		},
		{
			name:  "parentheses and backticks",
			input: "--flavor (a) --tag `b`",
			want:  map[string]string{"--flavor": "(a)", "--tag": "`b`"},
		},
		{
			name:  "escaped operator",
			input: `--flavor a\;b`,
			want:  map[string]string{"--flavor": "a;b"},
		},
		{
			name:  "empty",
			input: "   ",
			want:  map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got.Map()); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestParse_KeepsOrder(t *testing.T) {
	got, err := Parse("--split --bin 1/2 --time 1h20m")
	require.NoError(t, err)

	want := Options{{Flag: "--split"}, {Flag: "--bin", Value: "1/2"}, {Flag: "--time", Value: "1h20m"}}
	assert.Equal(t, want, got)
	assert.Equal(t, []string{"--split", "--bin", "1/2", "--time", "1h20m"}, got.Args())
}

func TestParse_OperatorKeepsSplit(t *testing.T) {
	opts, err := Parse("--flavor os=linux;arch=x86 --bin 1/2")
	require.NoError(t, err)
	assert.True(t, opts.NeedsSplit())
	assert.Equal(t, []string{"--flavor", "os=linux;arch=x86", "--bin", "1/2"}, opts.Args())
}

func TestParse_EmptyValue(t *testing.T) {
	opts, err := Parse("--flavor '' --split")
	require.NoError(t, err)

	want := Options{{Flag: "--flavor", Empty: true}, {Flag: "--split"}}
	assert.Equal(t, want, opts)
	assert.Equal(t, []string{"--flavor", "", "--split"}, opts.Args())

	// an explicit value replaces the empty one
	opts = opts.With("--flavor", "os=linux")
	assert.Equal(t, []string{"--flavor", "os=linux", "--split"}, opts.Args())
}

func TestParse_Errors(t *testing.T) {
	for _, input := range []string{
		"50% --target",
		"--target 50% extra",
		`--flavor "unterminated`,
	} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}
}

func TestOptions_SplitDispatch(t *testing.T) {
	opts, err := Parse("--target 30% --bin 1/2")
	require.NoError(t, err)
	require.True(t, opts.NeedsSplit())

	bin, _ := opts.Get(BinFlag)
	assert.Equal(t, "1/2", bin)

	phaseOne := opts.Without(BinFlag).With(SplitFlag, "")
	assert.Equal(t, []string{"--target", "30%", "--split"}, phaseOne.Args())
	assert.False(t, phaseOne.NeedsSplit())

	// the original is untouched
	assert.Equal(t, []string{"--target", "30%", "--bin", "1/2"}, opts.Args())
}

func TestOptions_With(t *testing.T) {
	opts := Options{{Flag: "--target", Value: "10%"}}

	opts = opts.With("--target", "20%")
	assert.Equal(t, Options{{Flag: "--target", Value: "20%"}}, opts)

	opts = opts.With("--split", "")
	assert.Equal(t, "--target 20% --split", opts.String())
}
