package wiki

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/ini.v1"
)

const (
	// DefaultTimeout applies to every API request unless the config overrides it
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies the client to the wiki
	DefaultUserAgent = "gowiki/0.3 (https://github.com/sniku/gowiki)"

	// DefaultEditor is used when neither force_editor nor $EDITOR is set
	DefaultEditor = "vim"

	// ConfigSection is the INI section holding all settings
	ConfigSection = "defaults"
)

// Config holds MediaWiki connection settings
type Config struct {
	// URL is the wiki installation (e.g., https://wiki.example.com/)
	URL string `ini:"mediawiki_url" json:"mediawiki_url"`

	// APIURL is the api.php endpoint; derived from URL when empty
	APIURL string `ini:"mediawiki_api_url" json:"mediawiki_api_url"`

	// Username and Password for the wiki login handshake (optional)
	Username string `ini:"mediawiki_username" json:"mediawiki_username"`
	Password string `ini:"mediawiki_password" json:"mediawiki_password"`

	// HTTPUsername and HTTPPassword for HTTP basic auth in front of the wiki (optional)
	HTTPUsername string `ini:"http_auth_username" json:"http_auth_username"`
	HTTPPassword string `ini:"http_auth_password" json:"http_auth_password"`

	// ForceEditor overrides $EDITOR
	ForceEditor string `ini:"force_editor" json:"force_editor"`

	Verbose bool `ini:"verbose" json:"verbose"`

	// Timeout for API requests
	Timeout time.Duration `ini:"timeout" json:"timeout"`

	// UserAgent identifies the client to the wiki
	UserAgent string `ini:"user_agent" json:"user_agent"`

	// LogFile enables rotated JSON logs at this path
	LogFile  string `ini:"log_file" json:"log_file"`
	LogLevel string `ini:"log_level" json:"log_level"`
}

// DefaultConfigPath returns ~/.config/wiki_client.conf
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "wiki_client.conf"
	}
	return filepath.Join(home, ".config", "wiki_client.conf")
}

// LoadConfig reads the INI config file, applies environment overrides and validates
// the result. An empty path means the default location, which may be absent as long
// as the environment supplies the required settings.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	cfg := &Config{}
	if _, err := os.Stat(path); err == nil {
		file, err := ini.Load(path)
		if err != nil {
			return nil, &ConfigError{Field: "config_file", Reason: fmt.Sprintf("cannot parse %s: %v", path, err)}
		}
		if err := file.Section(ConfigSection).MapTo(cfg); err != nil {
			return nil, &ConfigError{Field: "config_file", Reason: fmt.Sprintf("cannot read [%s] in %s: %v", ConfigSection, path, err)}
		}
	} else if explicit {
		return nil, &ConfigError{Field: "config_file", Reason: fmt.Sprintf("config file %s is missing", path)}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file settings with MEDIAWIKI_* environment variables
func (c *Config) applyEnv() error {
	setFromEnv(&c.URL, "MEDIAWIKI_URL")
	setFromEnv(&c.APIURL, "MEDIAWIKI_API_URL")
	setFromEnv(&c.Username, "MEDIAWIKI_USERNAME")
	setFromEnv(&c.Password, "MEDIAWIKI_PASSWORD")
	setFromEnv(&c.HTTPUsername, "MEDIAWIKI_HTTP_USERNAME")
	setFromEnv(&c.HTTPPassword, "MEDIAWIKI_HTTP_PASSWORD")
	setFromEnv(&c.UserAgent, "MEDIAWIKI_USER_AGENT")

	if t := os.Getenv("MEDIAWIKI_TIMEOUT"); t != "" {
		d, err := time.ParseDuration(t)
		if err != nil {
			return &ConfigError{Field: "timeout", Reason: fmt.Sprintf("MEDIAWIKI_TIMEOUT %q is not a duration (e.g. 30s)", t)}
		}
		c.Timeout = d
	}
	return nil
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// applyDefaults fills in derived and default values
func (c *Config) applyDefaults() {
	if c.APIURL == "" && c.URL != "" {
		c.APIURL = deriveAPIURL(c.URL)
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
}

// deriveAPIURL resolves api.php against the wiki URL the way a browser resolves a
// relative link: "https://x/w/" gives "https://x/w/api.php", "https://x/w" gives
// "https://x/api.php".
func deriveAPIURL(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return u.ResolveReference(&url.URL{Path: "api.php"}).String()
}

// Validate checks required settings and credential pairs. Every failing field is
// reported as its own *ConfigError.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.URL, validation.Required.Error("is empty or missing; provide the URL of your mediawiki installation"), is.URL),
		validation.Field(&c.APIURL, is.URL),
		validation.Field(&c.Password, validation.When(c.Username != "", validation.Required.Error("is required when mediawiki_username is set"))),
		validation.Field(&c.Username, validation.When(c.Password != "", validation.Required.Error("is required when mediawiki_password is set"))),
		validation.Field(&c.HTTPPassword, validation.When(c.HTTPUsername != "", validation.Required.Error("is required when http_auth_username is set"))),
		validation.Field(&c.HTTPUsername, validation.When(c.HTTPPassword != "", validation.Required.Error("is required when http_auth_password is set"))),
		validation.Field(&c.LogLevel, validation.In("", "debug", "info", "warn", "error")),
	)
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return &ConfigError{Reason: err.Error()}
	}

	fields := make([]string, 0, len(fieldErrs))
	for field := range fieldErrs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var result *multierror.Error
	for _, field := range fields {
		result = multierror.Append(result, &ConfigError{Field: field, Reason: fieldErrs[field].Error()})
	}
	return result.ErrorOrNil()
}

// HasCredentials returns true if wiki login credentials are configured
func (c *Config) HasCredentials() bool {
	return c.Username != "" && c.Password != ""
}

// HasBasicAuth returns true if HTTP basic auth credentials are configured
func (c *Config) HasBasicAuth() bool {
	return c.HTTPUsername != "" && c.HTTPPassword != ""
}

// EditorCommand returns force_editor, then $EDITOR, then vim
func (c *Config) EditorCommand() string {
	if c.ForceEditor != "" {
		return c.ForceEditor
	}
	if e := os.Getenv("EDITOR"); e != "" {
		return e
	}
	return DefaultEditor
}
