package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/byte4ever/tagexpand/expander"
	"github.com/byte4ever/tagexpand/logging"
)

// EnvPrefix prefixes every environment variable read by
// Load, e.g. TAGEXPAND_OPEN_TAG.
const EnvPrefix = "TAGEXPAND"

// Setting keys. They double as flag names and config file
// keys.
const (
	KeyTemplate   = "template"
	KeyData       = "data"
	KeySet        = "set"
	KeyOpenTag    = "open-tag"
	KeyCloseTag   = "close-tag"
	KeyOutput     = "output"
	KeyExecutable = "executable"
	KeyWatch      = "watch"
	KeyLogLevel   = "log-level"
	KeyConfig     = "config"
)

var (
	// ErrWatchNeedsTemplate is returned when watch mode is
	// requested while reading the template from stdin.
	ErrWatchNeedsTemplate = errors.New(
		"watch mode requires a template file",
	)

	// ErrTooManyArgs is returned for more than one
	// positional argument.
	ErrTooManyArgs = errors.New(
		"at most one template argument is accepted",
	)

	// ErrTemplateConflict is returned when the template is
	// given both as an argument and with --template.
	ErrTemplateConflict = errors.New(
		"template given both as argument and flag",
	)

	// ErrInvalidLogLevel is returned for an unknown log
	// level.
	ErrInvalidLogLevel = errors.New("invalid log level")
)

// Config is everything one tagexpand invocation needs.
type Config struct {
	TemplatePath string
	DataPaths    []string
	Sets         []string
	OpenTag      string
	CloseTag     string
	OutputPath   string
	Executable   bool
	Watch        bool
	LogLevel     string
	ConfigFile   string
}

// Default returns the configuration used when nothing is
// set.
func Default() Config {
	return Config{
		OpenTag:  expander.DefaultOpenTag,
		CloseTag: expander.DefaultCloseTag,
		LogLevel: "info",
	}
}

// Delimiters returns the configured tag pair.
func (cfg Config) Delimiters() expander.Delimiters {
	return expander.Delimiters{
		Open:  cfg.OpenTag,
		Close: cfg.CloseTag,
	}
}

// Validate checks the tags, the log level and the watch
// prerequisites.
func (cfg Config) Validate() error {
	const errCtx = "validating config"

	if err := cfg.Delimiters().Validate(); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if !logging.ValidLevel(cfg.LogLevel) {
		return fmt.Errorf(
			"%s: %w %q", errCtx, ErrInvalidLogLevel, cfg.LogLevel,
		)
	}

	if cfg.Watch && cfg.TemplatePath == "" {
		return fmt.Errorf(
			"%s: %w", errCtx, ErrWatchNeedsTemplate,
		)
	}

	return nil
}

// RegisterFlags declares every tagexpand flag on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	def := Default()

	fs.String(
		KeyTemplate, "",
		"Template file path (stdin if empty)",
	)
	fs.StringArray(
		KeyData, nil,
		"Data file path: .json, .yaml, .toml or stamp .txt (repeatable)",
	)
	fs.StringArray(
		KeySet, nil,
		"Value override in KEY=VALUE form (repeatable)",
	)
	fs.String(
		KeyOpenTag, def.OpenTag,
		"Opening tag of a placeholder",
	)
	fs.String(
		KeyCloseTag, def.CloseTag,
		"Closing tag of a placeholder",
	)
	fs.StringP(
		KeyOutput, "o", "",
		"Output file path (stdout if empty)",
	)
	fs.Bool(
		KeyExecutable, false,
		"Set executable bit on output file",
	)
	fs.BoolP(
		KeyWatch, "w", false,
		"Re-render whenever the template or data files change",
	)
	fs.String(
		KeyLogLevel, def.LogLevel,
		"Log level: debug, info, warn or error",
	)
	fs.String(
		KeyConfig, "",
		"Config file path (JSON, YAML or TOML)",
	)
}

// Load builds a Config from fs, the environment and the
// config file named by --config or TAGEXPAND_CONFIG. args
// are the positional arguments; a single one is the
// template path. The result is validated.
func Load(fs *pflag.FlagSet, args []string) (Config, error) {
	const errCtx = "loading config"

	if len(args) > 1 {
		return Config{}, fmt.Errorf(
			"%s: %w", errCtx, ErrTooManyArgs,
		)
	}

	vi := newViper()

	configPath := vi.GetString(KeyConfig)
	if fs.Changed(KeyConfig) {
		configPath, _ = fs.GetString(KeyConfig) //nolint:errcheck // registered as string
	}

	if configPath != "" {
		vi.SetConfigFile(configPath)

		if err := vi.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf(
				"%s: reading %s: %w", errCtx, configPath, err,
			)
		}
	}

	cfg := Config{
		TemplatePath: strings.TrimSpace(vi.GetString(KeyTemplate)),
		DataPaths:    stringList(vi.Get(KeyData)),
		Sets:         stringList(vi.Get(KeySet)),
		OpenTag:      vi.GetString(KeyOpenTag),
		CloseTag:     vi.GetString(KeyCloseTag),
		OutputPath:   strings.TrimSpace(vi.GetString(KeyOutput)),
		Executable:   vi.GetBool(KeyExecutable),
		Watch:        vi.GetBool(KeyWatch),
		LogLevel:     vi.GetString(KeyLogLevel),
		ConfigFile:   configPath,
	}

	if err := applyFlagOverrides(&cfg, fs); err != nil {
		return Config{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	if len(args) == 1 {
		if fs.Changed(KeyTemplate) && cfg.TemplatePath != args[0] {
			return Config{}, fmt.Errorf(
				"%s: %w", errCtx, ErrTemplateConflict,
			)
		}

		cfg.TemplatePath = args[0]
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	return cfg, nil
}

// newViper returns a viper instance reading TAGEXPAND_*
// variables, with defaults set.
func newViper() *viper.Viper {
	def := Default()

	vi := viper.New()
	vi.SetEnvPrefix(EnvPrefix)
	vi.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vi.AutomaticEnv()

	vi.SetDefault(KeyOpenTag, def.OpenTag)
	vi.SetDefault(KeyCloseTag, def.CloseTag)
	vi.SetDefault(KeyLogLevel, def.LogLevel)

	return vi
}

// stringList converts a list setting without splitting on
// whitespace: a scalar from the environment or a config
// file is a single element, since "set" values and data
// paths may contain spaces.
func stringList(raw any) []string {
	switch val := raw.(type) {
	case nil:
		return nil
	case string:
		if val == "" {
			return nil
		}

		return []string{val}
	case []string:
		return val
	case []any:
		list := make([]string, 0, len(val))
		for _, item := range val {
			list = append(list, fmt.Sprint(item))
		}

		return list
	default:
		return []string{fmt.Sprint(val)}
	}
}

// applyFlagOverrides copies every flag the user set onto
// cfg, overriding environment and config file values.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	strFlags := map[string]*string{
		KeyTemplate: &cfg.TemplatePath,
		KeyOpenTag:  &cfg.OpenTag,
		KeyCloseTag: &cfg.CloseTag,
		KeyOutput:   &cfg.OutputPath,
		KeyLogLevel: &cfg.LogLevel,
	}

	for name, dst := range strFlags {
		if !fs.Changed(name) {
			continue
		}

		val, err := fs.GetString(name)
		if err != nil {
			return err
		}

		*dst = val
	}

	arrayFlags := map[string]*[]string{
		KeyData: &cfg.DataPaths,
		KeySet:  &cfg.Sets,
	}

	for name, dst := range arrayFlags {
		if !fs.Changed(name) {
			continue
		}

		val, err := fs.GetStringArray(name)
		if err != nil {
			return err
		}

		*dst = val
	}

	boolFlags := map[string]*bool{
		KeyExecutable: &cfg.Executable,
		KeyWatch:      &cfg.Watch,
	}

	for name, dst := range boolFlags {
		if !fs.Changed(name) {
			continue
		}

		val, err := fs.GetBool(name)
		if err != nil {
			return err
		}

		*dst = val
	}

	return nil
}
