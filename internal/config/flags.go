package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ConfigFlag names the flag that points at a YAML file.
const ConfigFlag = "config"

// flagKeys maps the shared command-line flags onto config keys. A flag only
// takes effect when it is set on the command line; otherwise the file,
// environment and defaults decide as usual.
var flagKeys = map[string]string{
	"port":       "server.port",
	"db":         "database.path",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// RegisterFlags adds the flags every binary shares to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP(ConfigFlag, "c", "", "path to a YAML config file")
	fs.Int("port", 0, "HTTP port (server.port)")
	fs.String("db", "", `database file, or ":memory:" (database.path)`)
	fs.String("log-level", "", "debug, info, warn or error (log.level)")
	fs.String("log-format", "", "text or json (log.format)")
}

// LoadFlags is Load for a parsed flag set built with RegisterFlags.
// Flags given on the command line win over every other layer.
func LoadFlags(fs *pflag.FlagSet) (*Config, error) {
	path, err := fs.GetString(ConfigFlag)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return load(path, func(v *viper.Viper) error {
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("config: binding --%s: %w", name, err)
			}
		}
		return nil
	})
}
