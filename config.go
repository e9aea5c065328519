package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/slmtnm/s4view/internal/logging"
)

// Storage backends.
const (
	BackendS3    = "s3"
	BackendDrive = "drive"
)

// S3Config holds the S3 configuration parsed from .s3cfg
type S3Config struct {
	AccessKey   string
	SecretKey   string
	HostBase    string
	HostBucket  string
	UseHTTPS    bool
	SignatureV2 bool
	Region      string
}

// DriveConfig holds the Google Drive settings from the [drive] section.
type DriveConfig struct {
	CredentialsFile string // empty: application default credentials
	RootID          string
}

// BrowserConfig holds the [s4view] section.
type BrowserConfig struct {
	Backend         string
	PrefetchWorkers int
	PrefetchQueue   int
	LinkTTL         time.Duration
	MetricsAddr     string
	Log             logging.Config
}

// Config is the whole configuration file.
type Config struct {
	Path    string
	S3      S3Config
	Drive   DriveConfig
	Browser BrowserConfig
}

// configPaths lists the standard .s3cfg locations, most specific first.
func configPaths() []string {
	return []string{
		".s3cfg",
		filepath.Join(os.Getenv("HOME"), ".s3cfg"),
		"/etc/s3cfg",
	}
}

// findConfig returns the first existing file among paths.
func findConfig(paths []string) (string, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf(".s3cfg file not found in any of the standard locations")
}

// LoadConfig loads configuration from path, or from the first .s3cfg found
// in the standard locations when path is empty.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		found, err := findConfig(configPaths())
		if err != nil {
			return nil, err
		}
		path = found
	}

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	cfg, err := parseConfig(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

func parseConfig(file *ini.File) (*Config, error) {
	cfg := &Config{
		S3:      parseS3Section(file.Section("default")),
		Drive:   parseDriveSection(file.Section("drive")),
		Browser: parseBrowserSection(file.Section("s4view")),
	}

	switch cfg.Browser.Backend {
	case BackendS3:
		if cfg.S3.AccessKey == "" || cfg.S3.SecretKey == "" {
			return nil, fmt.Errorf("access_key and secret_key must be specified in .s3cfg")
		}
	case BackendDrive:
	default:
		return nil, fmt.Errorf("unknown backend %q (want %q or %q)", cfg.Browser.Backend, BackendS3, BackendDrive)
	}
	return cfg, nil
}

func parseS3Section(section *ini.Section) S3Config {
	return S3Config{
		AccessKey:   section.Key("access_key").String(),
		SecretKey:   section.Key("secret_key").String(),
		HostBase:    section.Key("host_base").MustString("s3.amazonaws.com"),
		HostBucket:  section.Key("host_bucket").MustString("%(bucket)s.s3.amazonaws.com"),
		UseHTTPS:    section.Key("use_https").MustBool(true),
		SignatureV2: section.Key("signature_v2").MustBool(false),
		Region:      section.Key("bucket_location").MustString("us-east-1"),
	}
}

func parseDriveSection(section *ini.Section) DriveConfig {
	return DriveConfig{
		CredentialsFile: section.Key("credentials_file").String(),
		RootID:          section.Key("root_id").MustString("root"),
	}
}

func parseBrowserSection(section *ini.Section) BrowserConfig {
	return BrowserConfig{
		Backend:         strings.ToLower(section.Key("backend").MustString(BackendS3)),
		PrefetchWorkers: section.Key("prefetch_workers").MustInt(4),
		PrefetchQueue:   section.Key("prefetch_queue").MustInt(64),
		LinkTTL:         section.Key("link_ttl").MustDuration(4 * time.Hour),
		MetricsAddr:     section.Key("metrics_addr").String(),
		Log: logging.Config{
			Level:      section.Key("log_level").MustString("info"),
			Format:     section.Key("log_format").MustString("json"),
			OutputPath: section.Key("log_file").MustString(filepath.Join(os.TempDir(), "s4view.log")),
		},
	}
}

// defaultConfig is used when the interactive setup produced only S3 settings.
func defaultConfig(s3 *S3Config) *Config {
	file := ini.Empty()
	return &Config{
		S3:      *s3,
		Drive:   parseDriveSection(file.Section("drive")),
		Browser: parseBrowserSection(file.Section("s4view")),
	}
}

// GetEndpointURL returns the endpoint URL for the S3 service
func (c *S3Config) GetEndpointURL() string {
	protocol := "https"
	if !c.UseHTTPS {
		protocol = "http"
	}
	return fmt.Sprintf("%s://%s", protocol, c.HostBase)
}

// InteractiveS3Setup provides an interactive setup for S3 configuration
func InteractiveS3Setup(in io.Reader, out io.Writer) (*S3Config, error) {
	scanner := bufio.NewScanner(in)

	fmt.Fprintln(out, "s4view interactive setup")
	fmt.Fprintln(out, "========================")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "No .s3cfg configuration file found.")
	fmt.Fprintln(out, "Would you like to create one interactively? (y/N)")

	ask := func(prompt, what string) (string, error) {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			return "", fmt.Errorf("failed to read %s", what)
		}
		return strings.TrimSpace(scanner.Text()), nil
	}

	response, err := ask("> ", "input")
	if err != nil {
		return nil, err
	}
	response = strings.ToLower(response)
	if response != "y" && response != "yes" {
		return nil, fmt.Errorf("setup declined by user")
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Common configurations:")
	fmt.Fprintln(out, "  • AWS S3: Use your AWS credentials and s3.amazonaws.com")
	fmt.Fprintln(out, "  • MinIO local: Use minioadmin/minioadmin123 and localhost:9000")
	fmt.Fprintln(out, "  • Other S3-compatible: Use your service's endpoint and credentials")
	fmt.Fprintln(out)

	config := &S3Config{}

	if config.AccessKey, err = ask("Access Key ID: ", "access key"); err != nil {
		return nil, err
	}
	if config.AccessKey == "" {
		return nil, fmt.Errorf("access key cannot be empty")
	}

	if config.SecretKey, err = ask("Secret Access Key: ", "secret key"); err != nil {
		return nil, err
	}
	if config.SecretKey == "" {
		return nil, fmt.Errorf("secret key cannot be empty")
	}

	hostBase, err := ask("S3 Endpoint (default: s3.amazonaws.com): ", "endpoint")
	if err != nil {
		return nil, err
	}
	config.HostBase = hostBase
	if config.HostBase == "" {
		config.HostBase = "s3.amazonaws.com"
	}

	if config.HostBase == "s3.amazonaws.com" {
		config.HostBucket = "%(bucket)s.s3.amazonaws.com"
	} else {
		config.HostBucket = config.HostBase + "/%(bucket)s"
	}

	region, err := ask("Region (default: us-east-1): ", "region")
	if err != nil {
		return nil, err
	}
	config.Region = region
	if config.Region == "" {
		config.Region = "us-east-1"
	}

	config.UseHTTPS = !strings.Contains(config.HostBase, "localhost") && !strings.Contains(config.HostBase, "127.0.0.1")
	config.SignatureV2 = false

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Configuration summary:\n")
	fmt.Fprintf(out, "  Endpoint: %s\n", config.GetEndpointURL())
	fmt.Fprintf(out, "  Region: %s\n", config.Region)
	fmt.Fprintf(out, "  HTTPS: %t\n", config.UseHTTPS)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Where would you like to save this configuration?")
	fmt.Fprintln(out, "1. Current directory (.s3cfg)")
	fmt.Fprintln(out, "2. Home directory (~/.s3cfg)")
	choice, err := ask("Choice (1-2, default: 2): ", "save location")
	if err != nil {
		return nil, err
	}

	var configPath string
	switch choice {
	case "1":
		configPath = ".s3cfg"
	case "", "2":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(homeDir, ".s3cfg")
	default:
		return nil, fmt.Errorf("invalid choice")
	}

	if err := saveS3Config(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintf(out, "\nConfiguration saved to: %s\n", configPath)
	fmt.Fprintln(out)

	return config, nil
}

// saveS3Config saves the configuration to a file
func saveS3Config(config *S3Config, path string) error {
	cfg := ini.Empty()
	section := cfg.Section("default")

	section.Key("access_key").SetValue(config.AccessKey)
	section.Key("secret_key").SetValue(config.SecretKey)
	section.Key("host_base").SetValue(config.HostBase)
	section.Key("host_bucket").SetValue(config.HostBucket)
	section.Key("use_https").SetValue(pythonBool(config.UseHTTPS))
	section.Key("signature_v2").SetValue(pythonBool(config.SignatureV2))
	section.Key("bucket_location").SetValue(config.Region)

	return cfg.SaveTo(path)
}

// pythonBool spells booleans the way s3cmd writes them.
func pythonBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
