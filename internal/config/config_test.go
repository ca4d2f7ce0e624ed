package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SiteTitle != DefaultConfig().SiteTitle {
		t.Fatalf("SiteTitle = %q, want %q", cfg.SiteTitle, DefaultConfig().SiteTitle)
	}
	if cfg.OutputRoot != "." {
		t.Fatalf("OutputRoot = %q, want %q", cfg.OutputRoot, ".")
	}
	if len(cfg.AllowedHosts) != 4 {
		t.Fatalf("AllowedHosts = %v, want 4 defaults", cfg.AllowedHosts)
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{"site_title": "My Tweets", "output_root": "/tmp/out"}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SiteTitle != "My Tweets" {
		t.Fatalf("SiteTitle = %q, want %q", cfg.SiteTitle, "My Tweets")
	}
	if cfg.OutputRoot != "/tmp/out" {
		t.Fatalf("OutputRoot = %q, want %q", cfg.OutputRoot, "/tmp/out")
	}
	// Untouched fields keep defaults
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{not json}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{"site_title": "From File"}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("ROOST_SITE_TITLE", "From Env")

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SiteTitle != "From Env" {
		t.Errorf("SiteTitle = %q, want %q", cfg.SiteTitle, "From Env")
	}
}

func TestLoad_CredentialsFromEnvironment(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("TWITTER_CONSUMER_KEY", "ck")
	t.Setenv("TWITTER_CONSUMER_SECRET", "cs")
	t.Setenv("TWITTER_ACCESS_TOKEN_KEY", "ak")
	t.Setenv("TWITTER_ACCESS_TOKEN_SECRET", "as")

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Twitter.Complete() {
		t.Fatalf("Twitter credentials incomplete: %+v", cfg.Twitter)
	}
	if cfg.Twitter.AccessTokenSecret != "as" {
		t.Errorf("AccessTokenSecret = %q, want %q", cfg.Twitter.AccessTokenSecret, "as")
	}
}

func TestLoad_CredentialsIgnoredInFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{"Twitter": {"ConsumerKey": "leaked"}}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("TWITTER_CONSUMER_KEY", "")

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Twitter.ConsumerKey != "" {
		t.Errorf("ConsumerKey = %q, want empty (env only)", cfg.Twitter.ConsumerKey)
	}
}

func TestLoadWithRepo_BothPresent(t *testing.T) {
	globalDir := t.TempDir()
	repoRoot := t.TempDir()

	globalConfig := `{"site_title": "Global", "allowed_hosts": ["nitter.net"]}`
	if err := os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(globalConfig), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	roostDir := filepath.Join(repoRoot, ".roost")
	if err := os.MkdirAll(roostDir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	repoConfig := `{"site_title": "Repo", "allowed_hosts": ["example.social"]}`
	if err := os.WriteFile(filepath.Join(roostDir, "config.json"), []byte(repoConfig), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadWithRepo(globalDir, repoRoot)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if cfg.SiteTitle != "Repo" {
		t.Errorf("SiteTitle = %q, want %q (repo override)", cfg.SiteTitle, "Repo")
	}
	// 4 defaults + 1 global + 1 repo
	if len(cfg.AllowedHosts) != 6 {
		t.Errorf("AllowedHosts = %v, want 6 entries", cfg.AllowedHosts)
	}
}

func TestLoadWithRepo_NeitherPresent(t *testing.T) {
	cfg, err := LoadWithRepo(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.APIBaseURL != DefaultConfig().APIBaseURL {
		t.Errorf("APIBaseURL = %q, want default", cfg.APIBaseURL)
	}
}

func TestFindRepoConfig_WalksUp(t *testing.T) {
	root := t.TempDir()
	roostDir := filepath.Join(root, ".roost")
	if err := os.MkdirAll(roostDir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	configPath := filepath.Join(roostDir, "config.json")
	if err := os.WriteFile(configPath, []byte(`{}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	if got := FindRepoConfig(nested); got != configPath {
		t.Errorf("FindRepoConfig() = %q, want %q", got, configPath)
	}
}

func TestMerge_DeduplicatesArrays(t *testing.T) {
	base := &Config{AllowedHosts: []string{"x.com", " twitter.com "}}
	overlay := &Config{AllowedHosts: []string{"twitter.com", "x.com", ""}}

	result := Merge(base, overlay)
	if len(result.AllowedHosts) != 2 {
		t.Fatalf("AllowedHosts = %v, want 2 entries", result.AllowedHosts)
	}
	if result.AllowedHosts[0] != "x.com" || result.AllowedHosts[1] != "twitter.com" {
		t.Errorf("AllowedHosts = %v, want [x.com twitter.com]", result.AllowedHosts)
	}
}

func TestMerge_BooleanOr(t *testing.T) {
	result := Merge(&Config{AllowUnsafePaths: true}, &Config{})
	if !result.AllowUnsafePaths {
		t.Error("AllowUnsafePaths = false, want true")
	}
}

func TestTimeout(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"10s", 10 * time.Second},
		{"", 30 * time.Second},
		{"garbage", 30 * time.Second},
		{"-1s", 30 * time.Second},
	}
	for _, tt := range tests {
		cfg := &Config{HTTPTimeout: tt.in}
		if got := cfg.Timeout(); got != tt.want {
			t.Errorf("Timeout(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
