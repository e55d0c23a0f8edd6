// Package config holds the settings shared by every command. Values are
// layered: defaults, then the YAML file, then .env and the environment,
// then command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissing is returned by Validate when a required setting is absent
var ErrMissing = errors.New("missing required setting")

// Environment variable names
const (
	EnvBaseURL         = "TSO_BASE_URL"
	EnvOrganization    = "TSO_ORGANIZATION"
	EnvWorkspace       = "TSO_WORKSPACE"
	EnvToken           = "TSO_TOKEN"
	EnvBuildName       = "TSO_BUILD_NAME"
	EnvSession         = "TSO_SESSION"
	EnvSuccessInterval = "TSO_SUCCESS_REPORT_INTERVAL"
	EnvFailureInterval = "TSO_FAILURE_REPORT_INTERVAL"
	EnvMaxBatchSize    = "TSO_MAX_BATCH_SIZE"
	EnvTool            = "TSO_TOOL"
	EnvReportError     = "TSO_REPORT_ERROR"
	EnvDebug           = "TSO_DEBUG"
	EnvJournal         = "TSO_JOURNAL"
	EnvArchiveDSN      = "TSO_ARCHIVE_DSN"
	EnvS3Endpoint      = "TSO_S3_ENDPOINT"
	EnvS3Region        = "TSO_S3_REGION"
	EnvS3Bucket        = "TSO_S3_BUCKET"
	EnvS3AccessKey     = "TSO_S3_ACCESS_KEY"
	EnvS3SecretKey     = "TSO_S3_SECRET_KEY"
	EnvS3UseSSL        = "TSO_S3_USE_SSL"
)

// Config holds all configuration for the application
type Config struct {
	// Project settings
	ProjectPath string
	TestPath    string
	TestPattern string
	Exclude     []string

	// Paths to ignore when scanning
	PathsToIgnore []string

	// API settings
	BaseURL      string
	Organization string
	Workspace    string
	Token        string
	BuildName    string
	Session      string

	// Subset tool
	ToolPath string

	// Reporting
	SuccessInterval time.Duration
	FailureInterval time.Duration
	MaxBatchSize    int
	JournalPath     string
	ArchiveDSN      string
	S3              S3Config

	// Execution settings
	Command    []string
	Processors int

	ReportError bool
	Debug       bool

	// Command flags
	Flags Flags
}

// S3Config configures the optional journal mirror
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Enabled reports whether the mirror has enough settings to run
func (s S3Config) Enabled() bool {
	return s.Endpoint != "" && s.Bucket != ""
}

// Flags holds command-line flags
type Flags struct {
	ConfigFile  string
	TestPath    string
	Processors  int
	FailFast    bool
	NameFilter  string
	TestCases   bool
	Reorder     bool
	Subset      bool
	Target      string
	Options     string
	Score       bool
	Journal     string
	BuildName   string
	Session     string
	Debug       bool
	ReportError bool
}

// New creates a new Config with defaults
func New() *Config {
	cfg := &Config{
		ProjectPath:     DefaultProjectPath,
		TestPath:        DefaultTestPath,
		TestPattern:     DefaultTestPattern,
		BaseURL:         DefaultBaseURL,
		ToolPath:        DefaultToolPath,
		SuccessInterval: DefaultSuccessInterval,
		FailureInterval: DefaultFailureInterval,
		MaxBatchSize:    DefaultMaxBatchSize,
		JournalPath:     DefaultJournalPath,
		Processors:      DefaultProcessors,
		S3:              S3Config{Region: DefaultS3Region},
	}
	// Copy default slices so callers can modify them
	cfg.PathsToIgnore = append([]string(nil), DefaultPathsToIgnore...)
	cfg.Command = append([]string(nil), DefaultCommand...)
	return cfg
}

// Load builds a Config from defaults, the YAML file at path (or
// tso.yaml in the working directory when path is empty), a .env file and
// the environment.
func Load(path string) (*Config, error) {
	cfg := New()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	if err := cfg.LoadFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	// .env might not exist, that's okay - use environment variables
	_ = godotenv.Load()

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings with non-empty environment values
func (c *Config) ApplyEnv(getenv func(string) string) error {
	setString := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	setString(&c.BaseURL, EnvBaseURL)
	setString(&c.Organization, EnvOrganization)
	setString(&c.Workspace, EnvWorkspace)
	setString(&c.Token, EnvToken)
	setString(&c.BuildName, EnvBuildName)
	setString(&c.Session, EnvSession)
	setString(&c.ToolPath, EnvTool)
	setString(&c.JournalPath, EnvJournal)
	setString(&c.ArchiveDSN, EnvArchiveDSN)
	setString(&c.S3.Endpoint, EnvS3Endpoint)
	setString(&c.S3.Region, EnvS3Region)
	setString(&c.S3.Bucket, EnvS3Bucket)
	setString(&c.S3.AccessKey, EnvS3AccessKey)
	setString(&c.S3.SecretKey, EnvS3SecretKey)

	if v := getenv(EnvReportError); v != "" {
		c.ReportError = true
	}
	if v := getenv(EnvDebug); v != "" {
		c.Debug = true
	}

	if v := strings.TrimSpace(getenv(EnvS3UseSSL)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvS3UseSSL, err)
		}
		c.S3.UseSSL = b
	}

	for key, dst := range map[string]*time.Duration{
		EnvSuccessInterval: &c.SuccessInterval,
		EnvFailureInterval: &c.FailureInterval,
	} {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			continue
		}
		d, err := ParseInterval(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}

	if v := strings.TrimSpace(getenv(EnvMaxBatchSize)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s: want a positive integer, got %q", EnvMaxBatchSize, v)
		}
		c.MaxBatchSize = n
	}
	return nil
}

// ParseInterval accepts a Go duration ("1.5s") or a number of seconds ("3")
func ParseInterval(s string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("negative interval %q", s)
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative interval %q", s)
	}
	return d, nil
}

// ApplyFlags copies flags onto the config; set flags win over every other source
func (c *Config) ApplyFlags(flags Flags) {
	c.Flags = flags
	if flags.Processors > 0 {
		c.Processors = flags.Processors
	}
	if flags.Journal != "" {
		c.JournalPath = flags.Journal
	}
	if flags.BuildName != "" {
		c.BuildName = flags.BuildName
	}
	if flags.Session != "" {
		c.Session = flags.Session
	}
	if flags.Debug {
		c.Debug = true
	}
	if flags.ReportError {
		c.ReportError = true
	}
}

// Validate reports settings needed to talk to the API that are missing
func (c *Config) Validate() error {
	var missing []string
	if c.Organization == "" {
		missing = append(missing, EnvOrganization)
	}
	if c.Workspace == "" {
		missing = append(missing, EnvWorkspace)
	}
	if c.Token == "" {
		missing = append(missing, EnvToken)
	}
	if c.BuildName == "" && c.Session == "" {
		missing = append(missing, EnvBuildName+" or "+EnvSession)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}
	return nil
}

// GetTestPath returns the test path, using flag if provided
func (c *Config) GetTestPath() string {
	if c.Flags.TestPath != "" {
		// If TestPath is provided, make it relative to ProjectPath if it's not absolute
		if filepath.IsAbs(c.Flags.TestPath) {
			return c.Flags.TestPath
		}
		return filepath.Join(c.ProjectPath, c.Flags.TestPath)
	}

	// Default: combine project path and test path
	return filepath.Join(c.ProjectPath, c.TestPath)
}

// GetJournalPath returns the absolute path of the result journal.
// Resolves to an absolute path so run, report and failures always use the same file regardless of cwd.
func (c *Config) GetJournalPath() string {
	p := c.JournalPath
	if !filepath.IsAbs(p) {
		p = filepath.Join(c.ProjectPath, p)
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
