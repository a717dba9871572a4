package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/skillsenselab/clipwise/logger"
)

// FileSystem abstracts file probing and .env loading for tests.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

type realFileSystem struct{}

func (realFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (realFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderOption customizes Load.
type LoaderOption func(*loaderConfig)

type loaderConfig struct {
	fs         FileSystem
	configFile string
	envFile    string
}

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *loaderConfig) { lc.fs = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *loaderConfig) { lc.configFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *loaderConfig) { lc.envFile = path }
}

// Load reads the service configuration. Sources merge in increasing
// precedence: config.yml, .env file, process environment. Defaults are
// applied and the result validated before it is returned.
func Load(opts ...LoaderOption) (*Config, error) {
	lc := loaderConfig{fs: realFileSystem{}}
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.configFile == "" {
		lc.configFile = findFirst(lc.fs, configSearchPaths)
	}
	if lc.envFile == "" {
		lc.envFile = findFirst(lc.fs, envSearchPaths)
	}

	cfg := &Config{}
	if err := loadInto(cfg, lc); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var configSearchPaths = []string{
	"./cmd/clipwise/config.yml",
	"./config/config.yml",
	"./config.yml",
}

var envSearchPaths = []string{
	"./.env.clipwise",
	"./.env",
}

func findFirst(fs FileSystem, paths []string) string {
	for _, path := range paths {
		if fs.Exists(path) {
			return path
		}
	}
	return ""
}

func loadInto(cfg *Config, lc loaderConfig) error {
	v := viper.New()

	// YAML file is the base layer.
	if lc.configFile != "" && lc.fs.Exists(lc.configFile) {
		v.SetConfigFile(lc.configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", lc.configFile, err)
		}
	}

	v.AutomaticEnv()
	bindEnvVars(v)

	// .env adds variables to the process environment, then re-bind.
	if lc.envFile != "" && lc.fs.Exists(lc.envFile) {
		if err := lc.fs.LoadEnv(lc.envFile); err != nil {
			logger.Warn("failed to load .env file", logger.ErrorFields(lc.envFile, err))
		} else {
			bindEnvVars(v)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshaling config: %w", err)
	}
	return nil
}

// envPrefix scopes which environment variables the loader considers.
const envPrefix = "CLIPWISE_"

// bindEnvVars maps CLIPWISE_SECTION_SOME_KEY to viper keys. The first
// underscore after the prefix separates the section; the rest is the nested
// key, so CLIPWISE_SERVER_READ_TIMEOUT binds server.read_timeout.
func bindEnvVars(v *viper.Viper) {
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 || !strings.HasPrefix(pair[0], envPrefix) {
			continue
		}

		key := strings.ToLower(strings.TrimPrefix(pair[0], envPrefix))
		for _, variant := range keyVariants(key) {
			v.Set(variant, pair[1])
		}
	}
}

// keyVariants generates the viper key candidates for one environment
// variable. CLIPWISE_PIPELINE_PLANNER_TOKEN_BUDGET cannot know which
// underscores are nesting separators, so every split point is tried:
// pipeline.planner_token_budget, pipeline.planner.token_budget, and so on.
func keyVariants(lowerKey string) []string {
	parts := strings.Split(lowerKey, "_")
	if len(parts) <= 1 {
		return []string{lowerKey}
	}

	variants := []string{
		lowerKey,
		strings.ReplaceAll(lowerKey, "_", "."),
	}
	for i := 1; i < len(parts); i++ {
		variants = append(variants, strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"))
	}
	if len(parts) >= 3 {
		// Dotted path with only the last segment as the key.
		variants = append(variants, strings.Join(parts[:len(parts)-1], ".")+"."+parts[len(parts)-1])
	}

	return dedupe(variants)
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}
