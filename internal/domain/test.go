package domain

import "strings"

// PathComponentType identifies one level of a TestPath.
type PathComponentType string

const (
	FileType     PathComponentType = "file"
	ClassType    PathComponentType = "class"
	TestCaseType PathComponentType = "testcase"
)

// PathComponent is one typed element of a TestPath
type PathComponent struct {
	Type PathComponentType `json:"type"`
	Name string            `json:"name"`
}

// File returns a file component (a path relative to the working directory)
func File(name string) PathComponent {
	return PathComponent{Type: FileType, Name: name}
}

// Class returns a class component
func Class(name string) PathComponent {
	return PathComponent{Type: ClassType, Name: name}
}

// Case returns a test case component
func Case(name string) PathComponent {
	return PathComponent{Type: TestCaseType, Name: name}
}

// TestPath is the fully qualified identity of one executed test case:
// a file, an optional class and the case name.
type TestPath []PathComponent

// NewTestPath builds a TestPath for a case defined in file, optionally inside class.
func NewTestPath(file, class, testCase string) TestPath {
	path := TestPath{File(file)}
	if class != "" {
		path = append(path, Class(class))
	}
	return append(path, Case(testCase))
}

// File returns the file component's name, or "" if the path has none
func (p TestPath) File() string {
	for _, c := range p {
		if c.Type == FileType {
			return c.Name
		}
	}
	return ""
}

// String renders the path as file#class#case
func (p TestPath) String() string {
	names := make([]string, len(p))
	for i, c := range p {
		names[i] = c.Name
	}
	return strings.Join(names, "#")
}

// clone returns a copy that does not share the backing array
func (p TestPath) clone() TestPath {
	if p == nil {
		return nil
	}
	out := make(TestPath, len(p))
	copy(out, p)
	return out
}
