// Package config loads seer settings from defaults, seer.yaml and the
// environment.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.trai.ch/seer/internal/core/domain"
	"go.trai.ch/zerr"
)

// Loader resolves domain.Settings. Later sources win: defaults, then
// seer.yaml in the directory, then SEER_* variables.
type Loader struct {
	dir string
}

// NewLoader creates a loader that looks for seer.yaml in dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Load returns validated settings.
func (l *Loader) Load() (domain.Settings, error) {
	v := viper.New()
	setDefaults(v, domain.DefaultSettings())

	v.SetEnvPrefix(domain.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := filepath.Join(l.dir, domain.SettingsFileName)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return domain.Settings{}, zerr.With(zerr.Wrap(err, domain.ErrSettingsLoadFailed.Error()), "path", path)
	}

	var settings domain.Settings
	if err := v.Unmarshal(&settings); err != nil {
		return domain.Settings{}, zerr.With(zerr.Wrap(err, domain.ErrSettingsLoadFailed.Error()), "path", path)
	}

	if err := settings.Validate(); err != nil {
		return domain.Settings{}, err
	}
	return settings, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d domain.Settings) {
	v.SetDefault("jobs", d.Jobs)
	v.SetDefault("shim", d.ShimPath)
	v.SetDefault("socket_dir", d.SocketDir)
	v.SetDefault("root_filter", d.RootFilter)
	v.SetDefault("connection_limit", d.ConnectionLimit)
	v.SetDefault("input_parallelism", d.InputParallelism)
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("json_logs", d.JSONLogs)
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}
