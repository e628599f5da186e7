// Copyright 2026 The droply Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/droply-io/droply/pkg/dlog"
)

// Config is the immutable configuration snapshot for the service.
// Callers receive a copy from Get and never mutate shared state.
type Config struct {
	Addr           string            `mapstructure:"addr"`
	StorageDir     string            `mapstructure:"storageDir"`
	TempDir        string            `mapstructure:"tempDir"`
	MaxUploadBytes int64             `mapstructure:"maxUploadBytes"`
	SniffPrefixLen int               `mapstructure:"sniffPrefixLen"`
	AllowedTypes   map[string]string `mapstructure:"allowedTypes"`
	RedisAddr      string            `mapstructure:"redisAddr"`
	CertFile       string            `mapstructure:"certFile"`
	KeyFile        string            `mapstructure:"keyFile"`
	LogLevel       string            `mapstructure:"logLevel"`
}

var (
	once sync.Once

	mu sync.RWMutex

	config Config
)

// InitConfig loads the configuration exactly once.
func InitConfig() error {
	var initErr error
	once.Do(func() {
		initErr = LoadAndWatch()
	})
	return initErr
}

// Get returns the current configuration snapshot.
func Get() Config {
	mu.RLock()
	defer mu.RUnlock()
	return config
}

// defaultAllowedTypes maps detected media types to the storage
// extension they are committed under. The client extension is never
// trusted.
func defaultAllowedTypes() map[string]string {
	return map[string]string{
		"application/pdf": ".pdf",
		"image/jpeg":      ".jpg",
		"image/png":       ".png",
		"image/gif":       ".gif",
		"image/webp":      ".webp",
		"image/tiff":      ".tif",
	}
}

// LoadAndWatch reads the configuration from flags and the optional
// config.yaml, then watches the file for changes. Only the log level is
// applied on reload; limits and directories stay fixed for the process
// lifetime.
func LoadAndWatch() error {
	pflag.String("addr", "", "HTTP service address (e.g. '127.0.0.1:8080')")
	pflag.String("storageDir", "", "Directory committed files are stored in")
	pflag.String("tempDir", "", "Directory for in-flight temp files (same volume as storageDir)")
	pflag.Int64("maxUploadBytes", 0, "Upload size ceiling in bytes")
	pflag.String("redisAddr", "", "Redis address for share keys (empty disables share links)")
	pflag.String("certFile", "", "Path to the TLS certificate file")
	pflag.String("keyFile", "", "Path to the TLS private key file")
	pflag.Parse()

	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		return fmt.Errorf("failed to bind pflags: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/droply/")

	viper.SetDefault("addr", "127.0.0.1:8080")
	viper.SetDefault("storageDir", "./uploads")
	viper.SetDefault("tempDir", "./uploads/.tmp")
	viper.SetDefault("maxUploadBytes", int64(10*1024*1024))
	viper.SetDefault("sniffPrefixLen", 512)
	viper.SetDefault("allowedTypes", defaultAllowedTypes())
	viper.SetDefault("redisAddr", "")
	viper.SetDefault("certFile", "")
	viper.SetDefault("keyFile", "")
	viper.SetDefault("logLevel", "info")

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			dlog.Infof("Config file not found, using defaults.")
		} else {
			return fmt.Errorf("fatal error config file: %w", err)
		}
	}

	mu.Lock()
	if err := viper.Unmarshal(&config); err != nil {
		mu.Unlock()
		return fmt.Errorf("the initial configuration cannot be decoded into the struct: %w", err)
	}
	mu.Unlock()

	viper.OnConfigChange(func(e fsnotify.Event) {
		dlog.Infof("Config file changed: %s, reloading...", e.Name)

		mu.Lock()
		defer mu.Unlock()

		if err := viper.Unmarshal(&config); err != nil {
			dlog.Errorf("Error while reloading config: %v", err)
			return
		}
		newLogLevel, err := dlog.ParseLevel(config.LogLevel)
		if err != nil {
			dlog.Warnf("New log level in config is invalid: %v. Keeping previous level.", err)
		} else {
			dlog.SetLevel(newLogLevel)
			dlog.Infof("Log level reloaded successfully to: %s", config.LogLevel)
		}
	})
	viper.WatchConfig()

	return nil
}
