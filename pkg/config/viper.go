package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load reads <configName>.yaml from configPath (falling back to . and
// ./config) and layers environment variables on top. A missing file is not
// an error: defaults and env vars are enough to run.
func Load(configPath, configName string) (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return v, nil
}

// Duration reads key as a duration string ("30s", "5m"), returning
// defaultVal when the value is missing or malformed.
func Duration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return defaultVal
	}
	return d
}

// BindEnvs binds each config key to its environment variable.
func BindEnvs(v *viper.Viper, bindings map[string]string) error {
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind %s to %s: %w", key, env, err)
		}
	}
	return nil
}
