package registry

import (
	"github.com/spf13/cast"
	"github.com/vuuvv/errors"
	"github.com/vuuvv/structlayout/core"
	"github.com/vuuvv/structlayout/log"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
)

const (
	EnvAliasesPath = "TYPE_ALIASES_PATH"
	EnvCustomPath  = "CUSTOM_TYPES_PATH"

	DefaultAliasesFile = "type_aliases.yaml"
	DefaultCustomFile  = "custom_types.yaml"
)

// Config is the user extension of the built-in type table.
type Config struct {
	Aliases map[string]string        `yaml:"aliases"`
	Types   map[string]core.TypeInfo `yaml:"types"`
}

type aliasFile struct {
	Aliases map[string]any `yaml:"aliases"`
}

type customFile struct {
	Types map[string]any `yaml:"types"`
}

// ConfigFromEnv loads the alias/custom files named by TYPE_ALIASES_PATH and
// CUSTOM_TYPES_PATH, falling back to baseDir/config/*.yaml.
func ConfigFromEnv(baseDir string) (*Config, error) {
	dir := filepath.Join(baseDir, "config")
	aliasPath := os.Getenv(EnvAliasesPath)
	if aliasPath == "" {
		aliasPath = filepath.Join(dir, DefaultAliasesFile)
	}
	customPath := os.Getenv(EnvCustomPath)
	if customPath == "" {
		customPath = filepath.Join(dir, DefaultCustomFile)
	}
	return LoadConfig(aliasPath, customPath)
}

// LoadConfig reads both files. An empty path or a missing file contributes nothing.
func LoadConfig(aliasPath, customPath string) (*Config, error) {
	aliasData, err := readOptional(aliasPath)
	if err != nil {
		return nil, err
	}
	customData, err := readOptional(customPath)
	if err != nil {
		return nil, err
	}
	return ParseConfig(aliasData, customData)
}

func readOptional(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("config file not found", zap.String("path", path))
			return nil, nil
		}
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	return data, nil
}

// ParseConfig decodes the YAML documents. Entries with the wrong shape are
// skipped with a warning, a document that is not YAML at all is an error.
func ParseConfig(aliasData, customData []byte) (*Config, error) {
	cfg := &Config{
		Aliases: map[string]string{},
		Types:   map[string]core.TypeInfo{},
	}

	if len(aliasData) > 0 {
		var af aliasFile
		if err := yaml.Unmarshal(aliasData, &af); err != nil {
			return nil, errors.Wrapf(err, "decode %s", DefaultAliasesFile)
		}
		for k, v := range af.Aliases {
			target, ok := v.(string)
			if !ok {
				log.Warn("skip alias with non-string target", zap.String("alias", k), zap.Any("value", v))
				continue
			}
			cfg.Aliases[core.CollapseSpace(k)] = core.CollapseSpace(target)
		}
	}

	if len(customData) > 0 {
		var cf customFile
		if err := yaml.Unmarshal(customData, &cf); err != nil {
			return nil, errors.Wrapf(err, "decode %s", DefaultCustomFile)
		}
		for k, v := range cf.Types {
			info, err := toTypeInfo(v)
			if err != nil {
				log.Warn(err, zap.String("type", k))
				continue
			}
			cfg.Types[core.CollapseSpace(k)] = info
		}
	}

	return cfg, nil
}

func toTypeInfo(v any) (core.TypeInfo, error) {
	meta, err := cast.ToStringMapE(v)
	if err != nil {
		return core.TypeInfo{}, errors.Errorf("custom type is not a mapping: %v", v)
	}
	rawSize, okSize := meta["size"]
	rawAlign, okAlign := meta["align"]
	if !okSize || !okAlign {
		return core.TypeInfo{}, errors.New("custom type needs both size and align")
	}
	size, err := cast.ToUintE(rawSize)
	if err != nil {
		return core.TypeInfo{}, errors.Wrapf(err, "custom type size")
	}
	align, err := cast.ToUintE(rawAlign)
	if err != nil {
		return core.TypeInfo{}, errors.Wrapf(err, "custom type align")
	}
	if size == 0 || align == 0 {
		return core.TypeInfo{}, errors.Errorf("custom type size/align must be positive: %d/%d", size, align)
	}
	return core.TypeInfo{Size: size, Align: align}, nil
}
