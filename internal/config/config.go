package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied after flags and config file.
const (
	DefaultCredentialsFile = "credentials.json"
	DefaultLogFile         = "project-forge.log"
	DefaultPollInterval    = 5 * time.Second
)

// Config holds all configuration (CLI flags + config file).
type Config struct {
	// CredentialsFile is the OAuth client secrets JSON from the Cloud console.
	CredentialsFile string
	// BillingAccount optionally links created projects to a billing account.
	BillingAccount string
	// LogFile receives a copy of all diagnostics alongside the console.
	LogFile string
	// PollInterval between operation status checks.
	PollInterval time.Duration
	// MaxWait bounds one creation's polling loop. Zero waits indefinitely.
	MaxWait time.Duration

	// StartNumber and Count come from flags only; zero means "prompt".
	StartNumber int
	Count       int

	// internal: path to config file (from CLI flag)
	configFile string
}

// fileConfig is the YAML shape of the config file. Durations are strings
// accepted by time.ParseDuration ("5s", "2m").
type fileConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	BillingAccount  string `yaml:"billing_account"`
	LogFile         string `yaml:"log_file"`
	PollInterval    string `yaml:"poll_interval"`
	MaxWait         string `yaml:"max_wait"`
}

// Parse reads CLI flags, then overlays config file values.
// CLI flags take precedence over config file values.
func Parse() *Config {
	c := &Config{}
	flag.StringVar(&c.configFile, "config", "", "Path to config file (YAML)")
	flag.StringVar(&c.CredentialsFile, "credentials", "", "Path to OAuth client secrets JSON")
	flag.StringVar(&c.BillingAccount, "billing-account", "", "Billing account ID to associate with created projects")
	flag.StringVar(&c.LogFile, "log-file", "", "Log file path (in addition to the console)")
	flag.DurationVar(&c.PollInterval, "poll-interval", 0, "Interval between operation status checks")
	flag.DurationVar(&c.MaxWait, "max-wait", 0, "Maximum time to wait for one project creation (0 waits indefinitely)")
	flag.IntVar(&c.StartNumber, "start", 0, "Initial project number (prompted for when omitted)")
	flag.IntVar(&c.Count, "count", 0, "Number of projects to create (prompted for when omitted)")
	flag.Parse()

	// Load config file if specified
	if c.configFile != "" {
		if err := c.loadFile(c.configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config file: %v\n", err)
			os.Exit(1)
		}
	}

	c.applyDefaults()
	return c
}

// loadFile reads a YAML config file. Values from the file are only applied
// if the corresponding CLI flag was not explicitly set.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if c.CredentialsFile == "" && file.CredentialsFile != "" {
		c.CredentialsFile = file.CredentialsFile
	}
	if c.BillingAccount == "" && file.BillingAccount != "" {
		c.BillingAccount = file.BillingAccount
	}
	if c.LogFile == "" && file.LogFile != "" {
		c.LogFile = file.LogFile
	}
	if c.PollInterval == 0 && file.PollInterval != "" {
		d, err := time.ParseDuration(file.PollInterval)
		if err != nil {
			return fmt.Errorf("parsing poll_interval in %s: %w", path, err)
		}
		c.PollInterval = d
	}
	if c.MaxWait == 0 && file.MaxWait != "" {
		d, err := time.ParseDuration(file.MaxWait)
		if err != nil {
			return fmt.Errorf("parsing max_wait in %s: %w", path, err)
		}
		c.MaxWait = d
	}

	return nil
}

// applyDefaults fills anything still unset.
func (c *Config) applyDefaults() {
	if c.CredentialsFile == "" {
		c.CredentialsFile = DefaultCredentialsFile
	}
	if c.LogFile == "" {
		c.LogFile = DefaultLogFile
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
}
