package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

//go:embed default.yaml
var defaultYAML []byte

// EnvPrefix prefixes environment overrides. A double underscore separates
// nesting levels: HEALTHETL_SINK__KIND=sqlite sets sink.kind.
const EnvPrefix = "HEALTHETL_"

// DefaultBatchSize is the database sink batch size when none is configured.
const DefaultBatchSize = 500

// flagKeys maps command line flags onto configuration keys. Flags not listed
// here are not configuration.
var flagKeys = map[string]string{
	"job":         "job",
	"sink":        "sink.kind",
	"out":         "sink.path",
	"dsn":         "sink.dsn",
	"table":       "sink.table",
	"auto-create": "sink.auto_create",
	"batch-size":  "sink.batch_size",
	"metrics":     "metrics.backend",
	"pushgateway": "metrics.pushgateway_url",
	"datadog":     "metrics.datadog_addr",
	"log-level":   "log.level",
	"log-format":  "log.format",
}

// Default returns the built-in configuration.
func Default() (*File, error) {
	return Load("", nil)
}

// Load builds a File from, in increasing precedence: the built-in defaults,
// the YAML file at path (skipped when empty), HEALTHETL_* environment
// variables, and flags that were explicitly set.
//
// Relative source paths in the file are resolved against the file's
// directory.
func Load(path string, flags *pflag.FlagSet) (*File, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"sink.kind":       SinkNone,
		"sink.batch_size": DefaultBatchSize,
		"metrics.backend": "none",
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}
	if err := k.Load(rawBytes(defaultYAML), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("config: parse defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("config: load flags: %w", err)
		}
	}

	var cfg File
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	if path != "" {
		dir := filepath.Dir(path)
		for i := range cfg.Sources {
			cfg.Sources[i].Path = resolvePathRelativeTo(cfg.Sources[i].Path, dir)
		}
	}
	return &cfg, nil
}

// envKey transforms HEALTHETL_SINK__BATCH_SIZE into sink.batch_size.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// rawBytes is a koanf.Provider over an in-memory document.
type rawBytes []byte

func (b rawBytes) ReadBytes() ([]byte, error) { return b, nil }

func (b rawBytes) Read() (map[string]interface{}, error) {
	return nil, fmt.Errorf("config: raw bytes provider does not support Read")
}
