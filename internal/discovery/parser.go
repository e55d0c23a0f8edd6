package discovery

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Parser parses test files to extract test cases
type Parser struct{}

// NewParser creates a new Parser
func NewParser() *Parser {
	return &Parser{}
}

var (
	// def test_x( / async def test_x(, at any indentation
	testFuncPattern = regexp.MustCompile(`^(\s*)(?:async\s+)?def\s+(test\w*)\s*\(`)
	// class TestX: / class TestX(Base):
	testClassPattern = regexp.MustCompile(`^class\s+(Test\w*|\w+Test)\s*[:(]`)
	classPattern     = regexp.MustCompile(`^class\s+(\w+)`)
)

// TestCase is one test function, optionally inside a test class
type TestCase struct {
	Class string
	Name  string
}

// String renders Class.Name, or Name for module-level functions
func (c TestCase) String() string {
	if c.Class == "" {
		return c.Name
	}
	return c.Class + "." + c.Name
}

// FindTestCases finds all test cases in a test file, in file order.
// Methods count only inside test classes; functions only at module level.
func (p *Parser) FindTestCases(filePath string) ([]TestCase, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", filePath, err)
	}
	defer f.Close()

	var (
		cases   []TestCase
		inClass string // current top-level class, "" at module level
		isTest  bool   // whether that class holds tests
	)
	seen := make(map[TestCase]bool)

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		if m := classPattern.FindStringSubmatch(line); m != nil {
			inClass = m[1]
			isTest = testClassPattern.MatchString(line)
			continue
		}
		if !startsIndented(line) && !strings.HasPrefix(strings.TrimSpace(line), "#") && !strings.HasPrefix(line, "@") {
			inClass, isTest = "", false
		}

		m := testFuncPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		var tc TestCase
		switch indent := m[1]; {
		case indent == "":
			tc = TestCase{Name: m[2]}
		case inClass != "" && isTest:
			tc = TestCase{Class: inClass, Name: m[2]}
		default:
			continue
		}
		if !seen[tc] {
			seen[tc] = true
			cases = append(cases, tc)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", filePath, err)
	}
	return cases, nil
}

func startsIndented(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}
