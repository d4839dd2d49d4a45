package sqlmapper

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/canonical/sqlmapper/internal/executor"
)

// Config is the runtime configuration accepted by Open. MapperPaths and
// LogLevel are the YAML-serializable fields; Interceptors is set
// programmatically by the caller, since an Interceptor is an interface
// value with no meaningful on-disk representation.
type Config struct {
	// MapperPaths lists mapper XML documents to load at Open time.
	MapperPaths []string `yaml:"mapperPaths,omitempty"`
	// LogLevel is one of "debug", "info", "warn", "error". Empty disables
	// logging.
	LogLevel string `yaml:"logLevel,omitempty"`

	Interceptors []executor.Interceptor `yaml:"-"`
}

// LoadConfig reads and parses a Config from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) interceptors() []executor.Interceptor {
	return c.Interceptors
}

func (c *Config) buildLogger() (*zap.SugaredLogger, error) {
	if c.LogLevel == "" {
		return zap.NewNop().Sugar(), nil
	}

	var level zapcore.Level
	if err := level.Set(c.LogLevel); err != nil {
		return nil, err
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
