package config

import "time"

const (
	// DefaultBaseURL is the selection and reporting API
	DefaultBaseURL = "https://api.mercury.launchableinc.com"
	// DefaultProjectPath is the default project path
	DefaultProjectPath = "."
	// DefaultTestPath is the default test path, relative to the project
	DefaultTestPath = "."
	// DefaultJournalPath is where the result journal is written, relative to the project
	DefaultJournalPath = ".tso/results.json"
	// DefaultConfigFile is read from the project when no --config is given
	DefaultConfigFile = "tso.yaml"
	// DefaultToolPath is the external subset tool
	DefaultToolPath = "launchable"
	// DefaultTestPattern matches test files during discovery
	DefaultTestPattern = "test_*.py"
	// DefaultProcessors is the default number of processors
	DefaultProcessors = 1
	// DefaultSuccessInterval is how often passed results are flushed
	DefaultSuccessInterval = 3 * time.Second
	// DefaultFailureInterval is how often failed results are flushed
	DefaultFailureInterval = 2 * time.Second
	// DefaultMaxBatchSize bounds the events sent in one upload
	DefaultMaxBatchSize = 500
	// DefaultS3Region is used when the S3 mirror has no region
	DefaultS3Region = "us-east-1"
)

// DefaultCommand runs one test file; {file} is replaced by the leaf name
var DefaultCommand = []string{"python", "-m", "pytest", "-q", "{file}"}

// DefaultPathsToIgnore are the default directories to ignore when scanning for tests
var DefaultPathsToIgnore = []string{
	"vendor",
	"node_modules",
	"venv",
	".venv",
	"__pycache__",
	"build",
	"dist",
}
