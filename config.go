package facethttp

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joeshaw/envdecode"
)

// ServerConfig carries the settings a development server needs to serve
// the UI endpoint. Values come from the environment (envdecode tags),
// optionally overlaid by a YAML file.
type ServerConfig struct {
	// ListenAddr is the address the HTTP server binds. ENV: FACET_LISTEN_ADDR
	ListenAddr string `env:"FACET_LISTEN_ADDR,default=127.0.0.1:5000" yaml:"listenAddr"`

	// ServerURL is the fully qualified URL of the UI endpoint. ENV: FACET_SERVER_URL
	ServerURL string `env:"FACET_SERVER_URL,default=http://127.0.0.1:5000/ui" yaml:"serverUrl"`

	// BundlePath points at the generated renderer bundle; when set, the
	// dev-reload stream is enabled. ENV: FACET_BUNDLE_PATH
	BundlePath string `env:"FACET_BUNDLE_PATH,default=" yaml:"bundlePath"`

	// RequestTimeout bounds the handling of one event batch. ENV: FACET_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"FACET_REQUEST_TIMEOUT,default=15s" yaml:"requestTimeout"`

	// MaxBodyBytes bounds the request body size. ENV: FACET_MAX_BODY_BYTES
	MaxBodyBytes int64 `env:"FACET_MAX_BODY_BYTES,default=1048576" yaml:"maxBodyBytes"`
}

// LoadServerConfig populates a ServerConfig from the environment and,
// when path is non-empty, overlays it with the YAML file at path. File
// values win over environment values.
func LoadServerConfig(path string) (*ServerConfig, error) {
	var cfg ServerConfig
	// Defaults are provided via struct tags.
	_ = envdecode.Decode(&cfg)

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
		}
	}

	return &cfg, nil
}
