package wiki

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearWikiEnv unsets every variable LoadConfig reads for the duration of the test
func clearWikiEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MEDIAWIKI_URL", "MEDIAWIKI_API_URL", "MEDIAWIKI_USERNAME", "MEDIAWIKI_PASSWORD",
		"MEDIAWIKI_HTTP_USERNAME", "MEDIAWIKI_HTTP_PASSWORD", "MEDIAWIKI_TIMEOUT", "MEDIAWIKI_USER_AGENT",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wiki_client.conf")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_File(t *testing.T) {
	clearWikiEnv(t)
	path := writeConfig(t, `[defaults]
mediawiki_url = https://wiki.example.com/w/
mediawiki_username = alice
mediawiki_password = s3cret
force_editor = nano -w
verbose = true
timeout = 10s
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.URL != "https://wiki.example.com/w/" {
		t.Errorf("URL = %q", cfg.URL)
	}
	if cfg.APIURL != "https://wiki.example.com/w/api.php" {
		t.Errorf("APIURL = %q, want derived api.php", cfg.APIURL)
	}
	if !cfg.HasCredentials() {
		t.Error("expected credentials")
	}
	if cfg.HasBasicAuth() {
		t.Error("did not expect basic auth")
	}
	if cfg.ForceEditor != "nano -w" {
		t.Errorf("ForceEditor = %q", cfg.ForceEditor)
	}
	if !cfg.Verbose {
		t.Error("expected Verbose")
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout)
	}
	if cfg.UserAgent != DefaultUserAgent {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearWikiEnv(t)
	path := writeConfig(t, `[defaults]
mediawiki_url = https://file.example.com/
`)
	t.Setenv("MEDIAWIKI_URL", "https://env.example.com/")
	t.Setenv("MEDIAWIKI_API_URL", "https://env.example.com/w/api.php")
	t.Setenv("MEDIAWIKI_TIMEOUT", "3s")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.URL != "https://env.example.com/" {
		t.Errorf("URL = %q", cfg.URL)
	}
	if cfg.APIURL != "https://env.example.com/w/api.php" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
}

func TestLoadConfig_BadEnvTimeout(t *testing.T) {
	clearWikiEnv(t)
	path := writeConfig(t, "[defaults]\nmediawiki_url = https://wiki.example.com/\n")
	t.Setenv("MEDIAWIKI_TIMEOUT", "soon")

	_, err := LoadConfig(path)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
	if cfgErr.Field != "timeout" {
		t.Errorf("Field = %q, want timeout", cfgErr.Field)
	}
	if !strings.Contains(cfgErr.Error(), "soon") {
		t.Errorf("Error() = %q, want the bad value", cfgErr.Error())
	}
}

func TestLoadConfig_MissingURL(t *testing.T) {
	clearWikiEnv(t)
	path := writeConfig(t, "[defaults]\nverbose = false\n")

	_, err := LoadConfig(path)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
	if cfgErr.Field != "mediawiki_url" {
		t.Errorf("Field = %q, want mediawiki_url", cfgErr.Field)
	}
}

func TestLoadConfig_ExplicitFileMissing(t *testing.T) {
	clearWikiEnv(t)
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.conf"))
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
}

func TestLoadConfig_DefaultPathMayBeAbsent(t *testing.T) {
	clearWikiEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MEDIAWIKI_URL", "https://env.example.com/")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.APIURL != "https://env.example.com/api.php" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name       string
		cfg        Config
		wantFields []string
	}{
		{
			name: "valid anonymous",
			cfg:  Config{URL: "https://w.example.com/"},
		},
		{
			name:       "username without password",
			cfg:        Config{URL: "https://w.example.com/", Username: "alice"},
			wantFields: []string{"mediawiki_password"},
		},
		{
			name:       "basic auth password only",
			cfg:        Config{URL: "https://w.example.com/", HTTPPassword: "x"},
			wantFields: []string{"http_auth_username"},
		},
		{
			name:       "several problems",
			cfg:        Config{Username: "alice", LogLevel: "loud"},
			wantFields: []string{"log_level", "mediawiki_password", "mediawiki_url"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			for _, f := range tt.wantFields {
				if !strings.Contains(err.Error(), "'"+f+"'") {
					t.Errorf("error %q does not mention %s", err, f)
				}
			}
		})
	}
}

func TestDeriveAPIURL(t *testing.T) {
	tests := map[string]string{
		"https://x.example.com/w/": "https://x.example.com/w/api.php",
		"https://x.example.com/w":  "https://x.example.com/api.php",
		"https://x.example.com/":   "https://x.example.com/api.php",
	}
	for in, want := range tests {
		if got := deriveAPIURL(in); got != want {
			t.Errorf("deriveAPIURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEditorCommand(t *testing.T) {
	t.Setenv("EDITOR", "")
	if got := (&Config{}).EditorCommand(); got != DefaultEditor {
		t.Errorf("EditorCommand() = %q, want %q", got, DefaultEditor)
	}

	t.Setenv("EDITOR", "emacs")
	if got := (&Config{}).EditorCommand(); got != "emacs" {
		t.Errorf("EditorCommand() = %q, want emacs", got)
	}
	if got := (&Config{ForceEditor: "code --wait"}).EditorCommand(); got != "code --wait" {
		t.Errorf("EditorCommand() = %q, want force_editor", got)
	}
}
