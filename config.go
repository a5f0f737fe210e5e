package callback

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the callback server's settings. The zero value is
// usable after Normalize: localhost, an OS-assigned port, and the
// standard callback paths.
type ServerConfig struct {
	// Host is the interface to bind. Defaults to localhost; the server
	// only ever talks to the native engine on the same machine.
	Host string `yaml:"host"`

	// Port to bind. Zero asks the OS for a free port, which the native
	// engine is then pointed at.
	Port int `yaml:"port"`

	// StatePath is the state-change callback path.
	StatePath string `yaml:"state_path"`

	// MessagePath is the message-production callback path.
	MessagePath string `yaml:"message_path"`
}

// DefaultServerConfig returns the standard configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:        "localhost",
		StatePath:   "/_pact/state",
		MessagePath: "/_pact/message",
	}
}

// Normalize fills unset fields with defaults.
func (c *ServerConfig) Normalize() {
	def := DefaultServerConfig()
	if c.Host == "" {
		c.Host = def.Host
	}
	if c.StatePath == "" {
		c.StatePath = def.StatePath
	}
	if c.MessagePath == "" {
		c.MessagePath = def.MessagePath
	}
}

// LoadServerConfig reads a ServerConfig from a YAML file and fills
// unset fields with defaults.
func LoadServerConfig(path string) (ServerConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("read config: %w", err)
	}
	var cfg ServerConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.Normalize()
	return cfg, nil
}
