package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"

	"tso/internal/discovery"
	"tso/internal/domain"
)

// Formatter formats and displays output
type Formatter struct {
	out         io.Writer
	projectPath string
	parser      *discovery.Parser
}

// NewFormatter creates a Formatter writing to color.Output
func NewFormatter(projectPath string, parser *discovery.Parser) *Formatter {
	return NewFormatterTo(color.Output, projectPath, parser)
}

// NewFormatterTo creates a Formatter writing to w
func NewFormatterTo(w io.Writer, projectPath string, parser *discovery.Parser) *Formatter {
	return &Formatter{out: w, projectPath: projectPath, parser: parser}
}

var (
	cyan   = color.New(color.FgCyan)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	white  = color.New(color.FgWhite)
)

// PrintStats displays the totals of a journal, followed by a tree of the
// failed test files.
func (f *Formatter) PrintStats(j *domain.Journal, workers int) {
	stats := j.Stats()

	fmt.Fprintln(f.out)
	cyan.Fprintln(f.out, "╔═══════════════════════════════════════════════════════════════╗")
	cyan.Fprintln(f.out, "║                    Test Execution Statistics                  ║")
	cyan.Fprintln(f.out, "╚═══════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(f.out)

	fmt.Fprintln(f.out, "┌─────────────────────────────────┬─────────────────────────────┐")
	f.row("Total Tests", white, fmt.Sprint(stats.Total))
	f.row("Passed Tests", green, fmt.Sprint(stats.Passed))
	f.row("Failed Tests", red, fmt.Sprint(stats.Failed))
	f.row("Duration", white, fmt.Sprintf("%.2fs", stats.Duration.Seconds()))
	if workers > 0 {
		f.row("Workers", white, fmt.Sprint(workers))
	}
	if j.Session != "" {
		f.row("Session", white, j.Session)
	}
	fmt.Fprintf(f.out, "│ %-31s │ ", "Run")
	white.Fprintf(f.out, "%-27s │\n", j.RunID)
	fmt.Fprintln(f.out, "└─────────────────────────────────┴─────────────────────────────┘")

	fmt.Fprintln(f.out)
	if stats.Failed == 0 {
		green.Fprintln(f.out, "✓ All tests passed!")
		return
	}
	red.Fprintf(f.out, "✗ %d of %d test(s) failed\n", stats.Failed, stats.Total)
	fmt.Fprintln(f.out)
	f.printFailedTestsTree(j)
}

func (f *Formatter) row(label string, c *color.Color, value string) {
	fmt.Fprintf(f.out, "│ %-31s │ ", label)
	c.Fprintf(f.out, "%-27s │\n", value)
	fmt.Fprintln(f.out, "├─────────────────────────────────┼─────────────────────────────┤")
}

// TreeNode represents a node in the file tree structure
type TreeNode struct {
	Name     string
	Children map[string]*TreeNode
	Failures []string // Case names under a file, "" for a whole-file failure
	IsFile   bool
}

// buildFailureTree groups the failed records of j by directory and file
func buildFailureTree(j *domain.Journal) *TreeNode {
	root := &TreeNode{Children: make(map[string]*TreeNode)}
	for _, i := range j.Failures() {
		path := j.Records[i].Event.TestPath()
		parts := strings.Split(strings.TrimPrefix(path.File(), "./"), "/")

		current := root
		for k, part := range parts {
			if part == "" {
				continue
			}
			if current.Children[part] == nil {
				current.Children[part] = &TreeNode{
					Name:     part,
					Children: make(map[string]*TreeNode),
					IsFile:   k == len(parts)-1,
				}
			}
			current = current.Children[part]
		}
		if len(path) > 1 {
			current.Failures = append(current.Failures, path[len(path)-1].Name)
		}
	}
	return root
}

// printFailedTestsTree prints a tree structure of failed tests
func (f *Formatter) printFailedTestsTree(j *domain.Journal) {
	f.printTreeNode(buildFailureTree(j), "", true)
}

func (f *Formatter) printTreeNode(node *TreeNode, prefix string, isRoot bool) {
	keys := make([]string, 0, len(node.Children))
	for key := range node.Children {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for i, key := range keys {
		child := node.Children[key]
		isLastChild := i == len(keys)-1

		connector := prefix + "├── "
		childPrefix := prefix + "│   "
		if isLastChild {
			connector = prefix + "└── "
			childPrefix = prefix + "    "
		}
		if isRoot {
			connector, childPrefix = "", ""
		}

		if child.IsFile {
			yellow.Fprintf(f.out, "%s%s\n", connector, child.Name)
			for k, name := range child.Failures {
				glyph := "├── "
				if k == len(child.Failures)-1 {
					glyph = "└── "
				}
				red.Fprintf(f.out, "%s%s%s\n", childPrefix, glyph, name)
			}
			continue
		}
		cyan.Fprintf(f.out, "%s%s/\n", connector, child.Name)
		f.printTreeNode(child, childPrefix, false)
	}
}

// FailedFiles returns the files with a failed record in j
func FailedFiles(j *domain.Journal) map[string]struct{} {
	failed := make(map[string]struct{})
	if j == nil {
		return failed
	}
	for _, i := range j.Failures() {
		failed[j.Records[i].Event.TestPath().File()] = struct{}{}
	}
	return failed
}

// CountTestCases returns the total number of test cases across the given test files.
func (f *Formatter) CountTestCases(tests []string) (int, error) {
	var total int
	for _, test := range tests {
		cases, err := f.parser.FindTestCases(f.abs(test))
		if err != nil {
			return 0, err
		}
		total += len(cases)
	}
	return total, nil
}

func (f *Formatter) abs(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(f.projectPath, filepath.FromSlash(name))
}

// PrintTestList prints test names in the order they would run, optionally
// with their test cases. Names in failed are marked with [F].
func (f *Formatter) PrintTestList(tests []string, showTestCases bool, failed map[string]struct{}) error {
	if len(tests) == 0 {
		yellow.Fprintln(f.out, "No tests found")
		return nil
	}

	if showTestCases {
		green.Fprintf(f.out, "Found %d test file(s) with test cases:\n\n", len(tests))
	} else {
		green.Fprintf(f.out, "Found %d test file(s):\n\n", len(tests))
	}

	for i, test := range tests {
		failMarker := ""
		if _, ok := failed[test]; ok {
			failMarker = " " + color.RedString("[F]")
		}

		isLastFile := i == len(tests)-1
		if isLastFile {
			cyan.Fprintf(f.out, "└── %s%s\n", test, failMarker)
		} else {
			cyan.Fprintf(f.out, "├── %s%s\n", test, failMarker)
		}
		if !showTestCases {
			continue
		}

		indent := "│   "
		if isLastFile {
			indent = "    "
		}
		cases, err := f.parser.FindTestCases(f.abs(test))
		if err != nil {
			red.Fprintf(f.out, "%s└── error reading test file: %v\n", indent, err)
			continue
		}
		if len(cases) == 0 {
			fmt.Fprintf(f.out, "%s└── %s\n", indent, color.RedString("(no test cases found)"))
			continue
		}
		for j, c := range cases {
			glyph := "├── "
			if j == len(cases)-1 {
				glyph = "└── "
			}
			fmt.Fprintf(f.out, "%s%s%s\n", indent, glyph, color.YellowString(c.String()))
		}
	}
	return nil
}

// PrintSelection reports how a selection changed the suite
func (f *Formatter) PrintSelection(action string, before, after int) {
	if after == before {
		green.Fprintf(f.out, "%s: running all %d test(s)\n", action, after)
		return
	}
	green.Fprintf(f.out, "%s: running %d of %d test(s)\n", action, after, before)
}
