// Package options parses the free-form option string handed to the
// external subset tool.
package options

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-shellwords"
)

// Flags with a meaning to the subset protocol
const (
	BinFlag    = "--bin"
	SplitFlag  = "--split"
	TargetFlag = "--target"
)

// ErrSyntax is returned for option strings that cannot be split into
// flag/value pairs.
var ErrSyntax = errors.New("invalid option string")

// Option is one flag with its value. Boolean flags have an empty value;
// Empty marks a flag given an explicit empty argument ("--flavor ''").
type Option struct {
	Flag  string
	Value string
	Empty bool
}

// Options is an ordered list of flags
type Options []Option

// terminator is appended to the tokens so the last flag is handled like
// every other one.
const terminator = "-"

// Parse splits s with shell quoting rules and pairs every flag with the
// token following it, unless that token is itself a flag.
//
//	"--target 50% --flavor key=value"  => --target=50%, --flavor=key=value
//	"--split --bin 1/2 --time 1h20m"   => --split, --bin=1/2, --time=1h20m
//
// Shell operators and substitution characters are plain text:
// "--flavor a;b" is one value.
func Parse(s string) (Options, error) {
	line := literalOperators(s)
	p := shellwords.NewParser()
	tokens, err := p.Parse(line)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if p.Position != -1 {
		return nil, fmt.Errorf("%w: input stops at character %d", ErrSyntax, p.Position)
	}
	tokens = append(tokens, terminator)

	var opts Options
	skip := false
	for i := 0; i < len(tokens)-1; i++ {
		if skip {
			skip = false
			continue
		}
		cur, next := tokens[i], tokens[i+1]
		if !isFlag(cur) {
			return nil, fmt.Errorf("%w: value %q does not follow a flag", ErrSyntax, cur)
		}
		if isFlag(next) {
			opts = opts.With(cur, "")
			continue
		}
		opts = opts.set(Option{Flag: cur, Value: next, Empty: next == ""})
		skip = true
	}
	return opts, nil
}

const shellSpecial = ";&|<>()`"

// literalOperators backslash-escapes shell operators outside quotes so the
// shell-word splitter keeps them inside the token.
func literalOperators(s string) string {
	var b strings.Builder
	var single, double, escaped bool
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && !single:
			escaped = true
		case r == '\'' && !double:
			single = !single
		case r == '"' && !single:
			double = !double
		case !single && !double && strings.ContainsRune(shellSpecial, r):
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isFlag(token string) bool {
	return strings.HasPrefix(token, "-")
}

// Get returns the value of flag and whether it is present
func (o Options) Get(flag string) (string, bool) {
	for _, opt := range o {
		if opt.Flag == flag {
			return opt.Value, true
		}
	}
	return "", false
}

// Has reports whether flag is present
func (o Options) Has(flag string) bool {
	_, ok := o.Get(flag)
	return ok
}

// With returns a copy with flag set to value. A repeated flag keeps its
// first position and takes the new value.
func (o Options) With(flag, value string) Options {
	return o.set(Option{Flag: flag, Value: value})
}

func (o Options) set(opt Option) Options {
	out := make(Options, 0, len(o)+1)
	replaced := false
	for _, cur := range o {
		if cur.Flag == opt.Flag {
			cur = opt
			replaced = true
		}
		out = append(out, cur)
	}
	if !replaced {
		out = append(out, opt)
	}
	return out
}

// Without returns a copy with flag removed
func (o Options) Without(flag string) Options {
	out := make(Options, 0, len(o))
	for _, opt := range o {
		if opt.Flag != flag {
			out = append(out, opt)
		}
	}
	return out
}

// NeedsSplit reports whether the options ask for one bin of a split
// subset, which takes the two-phase protocol.
func (o Options) NeedsSplit() bool {
	return o.Has(BinFlag)
}

// Args flattens the options into argv form. Boolean flags contribute only
// the flag.
func (o Options) Args() []string {
	args := make([]string, 0, 2*len(o))
	for _, opt := range o {
		args = append(args, opt.Flag)
		if opt.Value != "" || opt.Empty {
			args = append(args, opt.Value)
		}
	}
	return args
}

// Map returns the options keyed by flag
func (o Options) Map() map[string]string {
	m := make(map[string]string, len(o))
	for _, opt := range o {
		m[opt.Flag] = opt.Value
	}
	return m
}

func (o Options) String() string {
	return strings.Join(o.Args(), " ")
}
