package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_GetTestPath(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected string
	}{
		{
			name: "default path",
			config: &Config{
				ProjectPath: ".",
				TestPath:    ".",
				Flags:       Flags{},
			},
			expected: ".",
		},
		{
			name: "with test path flag",
			config: &Config{
				ProjectPath: "/project",
				TestPath:    ".",
				Flags: Flags{
					TestPath: "tests",
				},
			},
			expected: "/project/tests",
		},
		{
			name: "absolute test path",
			config: &Config{
				ProjectPath: "/project",
				TestPath:    ".",
				Flags: Flags{
					TestPath: "/absolute/path",
				},
			},
			expected: "/absolute/path",
		},
		{
			name: "configured test path",
			config: &Config{
				ProjectPath: "/project",
				TestPath:    "tests",
			},
			expected: "/project/tests",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.config.GetTestPath()
			if result != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.SuccessInterval)
	assert.Equal(t, 2*time.Second, cfg.FailureInterval)
	assert.Equal(t, 500, cfg.MaxBatchSize)
	assert.Equal(t, "launchable", cfg.ToolPath)
	assert.False(t, cfg.ReportError)

	// Slices are copies of the package defaults
	cfg.PathsToIgnore[0] = "changed"
	cfg.Command[0] = "changed"
	assert.Equal(t, "vendor", DefaultPathsToIgnore[0])
	assert.Equal(t, "python", DefaultCommand[0])
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "3", want: 3 * time.Second},
		{in: "0.5", want: 500 * time.Millisecond},
		{in: "1.5s", want: 1500 * time.Millisecond},
		{in: "250ms", want: 250 * time.Millisecond},
		{in: "-1", wantErr: true},
		{in: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseInterval(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvOrganization:    "acme",
		EnvWorkspace:       "web",
		EnvToken:           "secret",
		EnvBuildName:       "1234",
		EnvSuccessInterval: "1",
		EnvFailureInterval: "250ms",
		EnvMaxBatchSize:    "10",
		EnvReportError:     "1",
		EnvS3UseSSL:        "true",
		EnvBaseURL:         "  ",
	}
	cfg := New()
	require.NoError(t, cfg.ApplyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, "acme", cfg.Organization)
	assert.Equal(t, "web", cfg.Workspace)
	assert.Equal(t, "secret", cfg.Token)
	assert.Equal(t, "1234", cfg.BuildName)
	assert.Equal(t, time.Second, cfg.SuccessInterval)
	assert.Equal(t, 250*time.Millisecond, cfg.FailureInterval)
	assert.Equal(t, 10, cfg.MaxBatchSize)
	assert.True(t, cfg.ReportError)
	assert.False(t, cfg.Debug)
	assert.True(t, cfg.S3.UseSSL)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL, "blank values are ignored")
}

func TestApplyEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "batch size zero", key: EnvMaxBatchSize, val: "0"},
		{name: "batch size text", key: EnvMaxBatchSize, val: "many"},
		{name: "interval", key: EnvSuccessInterval, val: "later"},
		{name: "ssl", key: EnvS3UseSSL, val: "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			err := cfg.ApplyEnv(func(k string) string {
				if k == tt.key {
					return tt.val
				}
				return ""
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tso.yaml")
	data := `
organization: acme
workspace: web
tool: /usr/local/bin/launchable
tests:
  path: tests
  pattern: "*_test.py"
  exclude: ["tests/slow/**"]
  command: ["pytest", "{file}"]
report:
  success_interval: 5
  failure_interval: 1s
  max_batch_size: 50
  s3:
    endpoint: localhost:9000
    bucket: results
processors: 4
report_error: true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg := New()
	require.NoError(t, cfg.LoadFile(path))

	assert.Equal(t, "acme", cfg.Organization)
	assert.Equal(t, "web", cfg.Workspace)
	assert.Equal(t, "/usr/local/bin/launchable", cfg.ToolPath)
	assert.Equal(t, "tests", cfg.TestPath)
	assert.Equal(t, "*_test.py", cfg.TestPattern)
	assert.Equal(t, []string{"tests/slow/**"}, cfg.Exclude)
	assert.Equal(t, []string{"pytest", "{file}"}, cfg.Command)
	assert.Equal(t, 5*time.Second, cfg.SuccessInterval)
	assert.Equal(t, time.Second, cfg.FailureInterval)
	assert.Equal(t, 50, cfg.MaxBatchSize)
	assert.True(t, cfg.S3.Enabled())
	assert.Equal(t, 4, cfg.Processors)
	assert.True(t, cfg.ReportError)

	// untouched keys keep their defaults
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultPathsToIgnore, cfg.PathsToIgnore)
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	err := New().LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("report:\n  max_batch_size: -1\n"), 0o644))
	assert.Error(t, New().LoadFile(bad))

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("tests: [unclosed"), 0o644))
	assert.Error(t, New().LoadFile(broken))
}

func TestApplyFlags(t *testing.T) {
	cfg := New()
	cfg.BuildName = "from-env"
	cfg.ApplyFlags(Flags{BuildName: "from-flag", Processors: 3, ReportError: true})

	assert.Equal(t, "from-flag", cfg.BuildName)
	assert.Equal(t, 3, cfg.Processors)
	assert.True(t, cfg.ReportError)
	assert.False(t, cfg.Debug)

	cfg.ApplyFlags(Flags{})
	assert.Equal(t, "from-flag", cfg.BuildName, "unset flags keep earlier values")
}

func TestValidate(t *testing.T) {
	cfg := New()
	err := cfg.Validate()
	require.ErrorIs(t, err, ErrMissing)
	assert.Contains(t, err.Error(), EnvOrganization)
	assert.Contains(t, err.Error(), EnvToken)

	cfg.Organization = "acme"
	cfg.Workspace = "web"
	cfg.Token = "secret"
	require.ErrorIs(t, cfg.Validate(), ErrMissing)

	cfg.Session = "builds/1/test_sessions/2"
	assert.NoError(t, cfg.Validate())
}
