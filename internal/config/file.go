package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML shape of tso.yaml. Absent keys leave the
// current value alone.
type fileConfig struct {
	BaseURL      *string `yaml:"base_url,omitempty"`
	Organization *string `yaml:"organization,omitempty"`
	Workspace    *string `yaml:"workspace,omitempty"`
	BuildName    *string `yaml:"build,omitempty"`
	Tool         *string `yaml:"tool,omitempty"`

	Tests struct {
		Path    *string  `yaml:"path,omitempty"`
		Pattern *string  `yaml:"pattern,omitempty"`
		Exclude []string `yaml:"exclude,omitempty"`
		Ignore  []string `yaml:"ignore,omitempty"`
		Command []string `yaml:"command,omitempty"`
	} `yaml:"tests,omitempty"`

	Report struct {
		SuccessInterval *string `yaml:"success_interval,omitempty"`
		FailureInterval *string `yaml:"failure_interval,omitempty"`
		MaxBatchSize    *int    `yaml:"max_batch_size,omitempty"`
		Journal         *string `yaml:"journal,omitempty"`
		ArchiveDSN      *string `yaml:"archive_dsn,omitempty"`
		S3              struct {
			Endpoint *string `yaml:"endpoint,omitempty"`
			Region   *string `yaml:"region,omitempty"`
			Bucket   *string `yaml:"bucket,omitempty"`
			UseSSL   *bool   `yaml:"use_ssl,omitempty"`
		} `yaml:"s3,omitempty"`
	} `yaml:"report,omitempty"`

	Processors  *int  `yaml:"processors,omitempty"`
	ReportError *bool `yaml:"report_error,omitempty"`
	Debug       *bool `yaml:"debug,omitempty"`
}

// LoadFile overlays the YAML file at path onto c. Credentials are never
// read from the file.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return c.apply(fc)
}

func (c *Config) apply(fc fileConfig) error {
	str := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	str(&c.BaseURL, fc.BaseURL)
	str(&c.Organization, fc.Organization)
	str(&c.Workspace, fc.Workspace)
	str(&c.BuildName, fc.BuildName)
	str(&c.ToolPath, fc.Tool)
	str(&c.TestPath, fc.Tests.Path)
	str(&c.TestPattern, fc.Tests.Pattern)
	str(&c.JournalPath, fc.Report.Journal)
	str(&c.ArchiveDSN, fc.Report.ArchiveDSN)
	str(&c.S3.Endpoint, fc.Report.S3.Endpoint)
	str(&c.S3.Region, fc.Report.S3.Region)
	str(&c.S3.Bucket, fc.Report.S3.Bucket)

	if len(fc.Tests.Exclude) > 0 {
		c.Exclude = fc.Tests.Exclude
	}
	if len(fc.Tests.Ignore) > 0 {
		c.PathsToIgnore = fc.Tests.Ignore
	}
	if len(fc.Tests.Command) > 0 {
		c.Command = fc.Tests.Command
	}
	if fc.Report.S3.UseSSL != nil {
		c.S3.UseSSL = *fc.Report.S3.UseSSL
	}
	if fc.Report.MaxBatchSize != nil {
		if *fc.Report.MaxBatchSize <= 0 {
			return fmt.Errorf("report.max_batch_size must be positive")
		}
		c.MaxBatchSize = *fc.Report.MaxBatchSize
	}
	if fc.Processors != nil {
		c.Processors = *fc.Processors
	}
	if fc.ReportError != nil {
		c.ReportError = *fc.ReportError
	}
	if fc.Debug != nil {
		c.Debug = *fc.Debug
	}

	for _, iv := range []struct {
		dst *time.Duration
		v   *string
		key string
	}{
		{&c.SuccessInterval, fc.Report.SuccessInterval, "report.success_interval"},
		{&c.FailureInterval, fc.Report.FailureInterval, "report.failure_interval"},
	} {
		if iv.v == nil {
			continue
		}
		d, err := ParseInterval(*iv.v)
		if err != nil {
			return fmt.Errorf("%s: %w", iv.key, err)
		}
		*iv.dst = d
	}
	return nil
}
