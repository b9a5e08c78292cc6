package dataverse

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by DefaultConfig.
const (
	DefaultContactDomain = "umcutrecht.nl"
	DefaultAffiliation   = "UMCU"
	DefaultUploadDelay   = time.Second
)

// Config configures a Client. The yaml tags are the keys of a config file
// read by LoadConfig.
type Config struct {
	// BaseURL is the server root, e.g. "https://demo.dataverse.org".
	BaseURL string `yaml:"base_url"`
	// APIToken is sent in the X-Dataverse-key header.
	APIToken string `yaml:"api_token"`
	// ReadOnly logs modifying requests instead of sending them.
	ReadOnly bool `yaml:"readonly"`
	// ContactDomain completes bare user names in dataverse contacts.
	ContactDomain string `yaml:"contact_domain"`
	// Affiliation is used for new dataverses and for authors without one.
	Affiliation string `yaml:"affiliation"`
	// UploadDelay is the pause after each file upload; the server rejects
	// uploads that follow each other too closely.
	UploadDelay time.Duration `yaml:"upload_delay"`

	// Logger receives request and read-only messages. If nil, nothing is
	// logged.
	Logger *slog.Logger `yaml:"-"`
	// HTTPClient sends the requests. If nil, a client with a 60s timeout
	// is used.
	HTTPClient *http.Client `yaml:"-"`
}

// DefaultConfig returns a config with the default contact domain,
// affiliation and upload delay.
func DefaultConfig() Config {
	return Config{
		ContactDomain: DefaultContactDomain,
		Affiliation:   DefaultAffiliation,
		UploadDelay:   DefaultUploadDelay,
	}
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML data on top of DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return cfg, nil
}

// Validate checks that the config can be used to build a client.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base URL is required")
	}
	if c.UploadDelay < 0 {
		return fmt.Errorf("upload delay must not be negative, got %s", c.UploadDelay)
	}
	return nil
}
