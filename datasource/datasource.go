package datasource

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	json "github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
)

// Format identifies the encoding of a data file.
type Format string

// Supported data formats.
const (
	JSON  Format = "json"
	YAML  Format = "yaml"
	TOML  Format = "toml"
	Stamp Format = "stamp"
)

// ErrUnknownFormat is returned by Parse for a format it
// cannot decode.
var ErrUnknownFormat = errors.New("unknown data format")

// Values is a decoded data mapping.
type Values map[string]any

// String returns the value stored under key when it is a
// string. Missing keys and any other value type report
// false.
func (va Values) String(key string) (string, bool) {
	raw, ok := va[key]
	if !ok {
		return "", false
	}

	str, ok := raw.(string)

	return str, ok
}

// Merge copies every entry of src into dst, overriding
// existing keys.
func Merge(dst Values, src Values) {
	for key, val := range src {
		dst[key] = val
	}
}

// FormatFromPath picks a format from the file extension.
// Unrecognised extensions are treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	case ".toml":
		return TOML
	case ".txt", ".status", ".stamp":
		return Stamp
	default:
		return JSON
	}
}

// Parse decodes content in the given format. For JSON and
// YAML a document whose root is not an object yields an
// empty mapping.
func Parse(format Format, content []byte) (Values, error) {
	const errCtx = "parsing data"

	switch format {
	case JSON:
		var root any
		if err := json.Unmarshal(content, &root); err != nil {
			return nil, fmt.Errorf(
				"%s: decoding json: %w", errCtx, err,
			)
		}

		return fromRoot(root), nil

	case YAML:
		var root any
		if err := yaml.Unmarshal(content, &root); err != nil {
			return nil, fmt.Errorf(
				"%s: decoding yaml: %w", errCtx, err,
			)
		}

		return fromRoot(root), nil

	case TOML:
		va := make(Values)
		if err := toml.Unmarshal(content, &va); err != nil {
			return nil, fmt.Errorf(
				"%s: decoding toml: %w", errCtx, err,
			)
		}

		return va, nil

	case Stamp:
		return parseStamps(content), nil

	default:
		return nil, fmt.Errorf(
			"%s: %w %q", errCtx, ErrUnknownFormat, format,
		)
	}
}

// LoadFile reads and parses a single data file.
func LoadFile(path string) (Values, error) {
	const errCtx = "loading data file"

	content, err := os.ReadFile(path) //nolint:gosec // paths from CLI flags
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	va, err := Parse(FormatFromPath(path), content)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %s: %w", errCtx, path, err,
		)
	}

	return va, nil
}

// Load reads every file in paths and merges them in order.
// Later files override keys of earlier ones. No paths
// yields an empty mapping.
func Load(paths []string) (Values, error) {
	const errCtx = "loading data"

	merged := make(Values)

	for _, pa := range paths {
		va, err := LoadFile(pa)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}

		Merge(merged, va)
	}

	return merged, nil
}

// ParseAssignments turns KEY=VALUE pairs into a mapping.
// Only the first '=' separates key from value.
func ParseAssignments(pairs []string) (Values, error) {
	const errCtx = "parsing assignments"

	va := make(Values, len(pairs))

	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf(
				"%s: assignment must be KEY=VALUE, got %q",
				errCtx, pair,
			)
		}

		va[parts[0]] = parts[1]
	}

	return va, nil
}

// fromRoot keeps root when it is an object and drops it
// otherwise.
func fromRoot(root any) Values {
	switch obj := root.(type) {
	case map[string]any:
		return Values(obj)
	case map[any]any:
		va := make(Values, len(obj))
		for key, val := range obj {
			va[fmt.Sprint(key)] = val
		}

		return va
	default:
		return make(Values)
	}
}

// parseStamps reads workspace status lines of the form
// "KEY VALUE", split on the first space. Lines without a
// space are skipped; CRLF endings are accepted.
func parseStamps(content []byte) Values {
	va := make(Values)

	for _, line := range bytes.Split(content, []byte("\n")) {
		line = bytes.TrimSuffix(line, []byte("\r"))

		key, val, found := bytes.Cut(line, []byte(" "))
		if !found {
			continue
		}

		va[string(key)] = string(val)
	}

	return va
}
