package cli

import "tso/internal/config"

// Flags holds command-line flags
type Flags struct {
	ConfigFile   string
	Debug        bool
	ReportError  bool
	BuildName    string
	Session      string
	Processors   int
	TestPath     string
	NameFilter   string
	TestCases    bool
	FailFast     bool
	Reorder      bool
	Subset       bool
	Target       string
	Options      string
	Score        bool
	Journal      string
	RunID        string
	OpenFailures bool
}

// ToConfigFlags converts CLI flags to config flags
func (f *Flags) ToConfigFlags() config.Flags {
	return config.Flags{
		ConfigFile:  f.ConfigFile,
		TestPath:    f.TestPath,
		Processors:  f.Processors,
		FailFast:    f.FailFast,
		NameFilter:  f.NameFilter,
		Reorder:     f.Reorder,
		Subset:      f.Subset,
		Target:      f.Target,
		Options:     f.Options,
		Score:       f.Score,
		Journal:     f.Journal,
		BuildName:   f.BuildName,
		Session:     f.Session,
		Debug:       f.Debug,
		ReportError: f.ReportError,
	}
}
