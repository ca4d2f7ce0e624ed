package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds application configuration.
type Config struct {
	// OutputRoot is the directory under which versioned output-YYYY-MM-DD snapshots are created.
	OutputRoot string `json:"output_root" env:"ROOST_OUTPUT_ROOT" env-description:"directory that receives rendered snapshots"`

	// SiteTitle is the page title of rendered snapshots.
	SiteTitle string `json:"site_title" env:"ROOST_SITE_TITLE" env-description:"title of the rendered index page"`

	// SiteIcon is an optional image copied into every snapshot as its favicon.
	SiteIcon string `json:"site_icon,omitempty" env:"ROOST_SITE_ICON" env-description:"optional icon file copied into snapshots"`

	// AboutPath is an optional markdown file rendered into the snapshot header.
	AboutPath string `json:"about_path,omitempty" env:"ROOST_ABOUT_PATH" env-description:"optional markdown file shown above the posts"`

	// AllowedHosts lists the hostnames accepted in post URLs.
	AllowedHosts []string `json:"allowed_hosts,omitempty" env:"ROOST_ALLOWED_HOSTS" env-description:"comma-separated hosts accepted in post URLs"`

	// HTTPTimeout bounds every API and image request (Go duration syntax).
	HTTPTimeout string `json:"http_timeout,omitempty" env:"ROOST_HTTP_TIMEOUT" env-description:"timeout for API and image requests, e.g. 30s"`

	// APIBaseURL is the root of the post API.
	APIBaseURL string `json:"api_base_url,omitempty" env:"ROOST_API_BASE_URL" env-description:"base URL of the post API"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty" env:"ROOST_LOG_LEVEL" env-description:"log level: debug, info, warn, error"`

	// AllowedPaths is an allowlist of directories for import/export operations.
	// Paths outside <home>/exports require either being in this list or AllowUnsafePaths=true.
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// Twitter holds the API credentials. They are read from the environment only.
	Twitter TwitterConfig `json:"-"`
}

// TwitterConfig carries the four OAuth1 credentials of the post API.
type TwitterConfig struct {
	ConsumerKey       string `env:"TWITTER_CONSUMER_KEY" env-description:"API consumer key"`
	ConsumerSecret    string `env:"TWITTER_CONSUMER_SECRET" env-description:"API consumer secret"`
	AccessTokenKey    string `env:"TWITTER_ACCESS_TOKEN_KEY" env-description:"API access token"`
	AccessTokenSecret string `env:"TWITTER_ACCESS_TOKEN_SECRET" env-description:"API access token secret"`
}

// Complete reports whether all four credentials are set.
func (t TwitterConfig) Complete() bool {
	return t.ConsumerKey != "" && t.ConsumerSecret != "" && t.AccessTokenKey != "" && t.AccessTokenSecret != ""
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		OutputRoot:   ".",
		SiteTitle:    "Roost",
		AllowedHosts: []string{"twitter.com", "www.twitter.com", "mobile.twitter.com", "x.com"},
		HTTPTimeout:  "30s",
		APIBaseURL:   "https://api.twitter.com/1.1",
		LogLevel:     "info",
	}
}

// Timeout returns HTTPTimeout as a duration, falling back to 30s when unset or invalid.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// Load loads configuration from baseDir/config.json and the environment.
// Returns default config (plus environment) if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.roost.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return withEnv(Merge(DefaultConfig(), cfg))
}

// LoadWithRepo loads configuration from both global (~/.roost) and repo (.roost) directories.
// Repo config is found by walking upward from startDir to find the nearest .roost/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Environment variables override both.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return withEnv(Merge(Merge(DefaultConfig(), global), repo))
}

// FindRepoConfig walks upward from startDir to find the nearest .roost/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".roost", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// EnvHelp describes the environment variables the configuration reads.
func EnvHelp() string {
	help, err := cleanenv.GetDescription(&Config{}, nil)
	if err != nil {
		return ""
	}
	return help
}

// loadFileRaw parses a config file without defaults or environment.
// Returns zero-valued config if the path is empty or the file doesn't exist.
func loadFileRaw(configPath string) (*Config, error) {
	cfg := &Config{}
	if configPath == "" {
		return cfg, nil
	}

	f, err := os.Open(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	defer f.Close()

	if err := cleanenv.ParseJSON(f, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}
	return cfg, nil
}

// withEnv applies environment overrides on top of the merged file config.
func withEnv(cfg *Config) (*Config, error) {
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w\n%s", err, EnvHelp())
	}
	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.OutputRoot = pick(overlay.OutputRoot, base.OutputRoot)
	result.SiteTitle = pick(overlay.SiteTitle, base.SiteTitle)
	result.SiteIcon = pick(overlay.SiteIcon, base.SiteIcon)
	result.AboutPath = pick(overlay.AboutPath, base.AboutPath)
	result.HTTPTimeout = pick(overlay.HTTPTimeout, base.HTTPTimeout)
	result.APIBaseURL = pick(overlay.APIBaseURL, base.APIBaseURL)
	result.LogLevel = pick(overlay.LogLevel, base.LogLevel)

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Arrays: merge and deduplicate
	result.AllowedHosts = mergeStringSlice(base.AllowedHosts, overlay.AllowedHosts)
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)

	result.Twitter = base.Twitter
	if overlay.Twitter.Complete() {
		result.Twitter = overlay.Twitter
	}

	return result
}

func pick(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
