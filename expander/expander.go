package expander

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/valyala/fasttemplate"
)

// Default placeholder delimiters.
const (
	DefaultOpenTag  = "<%"
	DefaultCloseTag = "%>"
)

// ErrEmptyTag is returned by Delimiters.Validate when a tag
// is the empty string.
var ErrEmptyTag = errors.New("tag must not be empty")

// Source resolves a key to its string value. It reports
// false for missing keys and for values that are not
// strings.
type Source interface {
	String(key string) (string, bool)
}

// Delimiters holds the opening and closing tags that bound
// a placeholder.
type Delimiters struct {
	Open  string
	Close string
}

// DefaultDelimiters returns the "<%" / "%>" pair.
func DefaultDelimiters() Delimiters {
	return Delimiters{
		Open:  DefaultOpenTag,
		Close: DefaultCloseTag,
	}
}

// Validate reports an error when either tag is empty.
func (de Delimiters) Validate() error {
	const errCtx = "validating delimiters"

	if de.Open == "" {
		return fmt.Errorf("%s: opening %w", errCtx, ErrEmptyTag)
	}

	if de.Close == "" {
		return fmt.Errorf("%s: closing %w", errCtx, ErrEmptyTag)
	}

	return nil
}

// withDefaults replaces empty tags with the default ones.
func (de Delimiters) withDefaults() Delimiters {
	if de.Open == "" {
		de.Open = DefaultOpenTag
	}

	if de.Close == "" {
		de.Close = DefaultCloseTag
	}

	return de
}

// Expand replaces every placeholder in template with its
// value from data. Empty tags fall back to the defaults.
func Expand(
	template string,
	data Source,
	openTag string,
	closeTag string,
) string {
	return ExpandWith(
		template, data,
		Delimiters{Open: openTag, Close: closeTag},
	)
}

// ExpandWith is Expand with the tags given as Delimiters.
func ExpandWith(
	template string,
	data Source,
	de Delimiters,
) string {
	de = de.withDefaults()

	// The tag func and the pooled buffer never fail, so
	// the panic path of ExecuteFuncString is unreachable.
	return fasttemplate.ExecuteFuncString(
		template, de.Open, de.Close, lookupFunc(data, de),
	)
}

// ExpandTo writes the expansion of template to w and
// returns the number of bytes written. Only write errors
// are reported.
func ExpandTo(
	w io.Writer,
	template string,
	data Source,
	de Delimiters,
) (int64, error) {
	const errCtx = "expanding to writer"

	de = de.withDefaults()

	nn, err := fasttemplate.ExecuteFunc(
		template, de.Open, de.Close, w, lookupFunc(data, de),
	)
	if err != nil {
		return nn, fmt.Errorf("%s: %w", errCtx, err)
	}

	return nn, nil
}

// Keys returns the trimmed key of every complete
// placeholder in template, left to right. Duplicates are
// kept.
func Keys(template string, de Delimiters) []string {
	de = de.withDefaults()

	var keys []string

	_, _ = fasttemplate.ExecuteFunc( //nolint:errcheck // io.Discard never fails
		template, de.Open, de.Close, io.Discard,
		func(_ io.Writer, tag string) (int, error) {
			keys = append(keys, de.key(tag))
			return 0, nil
		},
	)

	return keys
}

// Missing returns the distinct keys of template, in
// first-seen order, that data does not resolve to a
// string.
func Missing(
	template string,
	data Source,
	de Delimiters,
) []string {
	var missing []string

	seen := make(map[string]struct{})

	for _, key := range Keys(template, de) {
		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}

		if _, ok := resolve(data, key); !ok {
			missing = append(missing, key)
		}
	}

	return missing
}

// key strips any stray tag markers from the text between
// the outer tags, then trims surrounding whitespace.
func (de Delimiters) key(tag string) string {
	tag = strings.ReplaceAll(tag, de.Open, "")
	tag = strings.ReplaceAll(tag, de.Close, "")

	return strings.TrimSpace(tag)
}

func lookupFunc(data Source, de Delimiters) fasttemplate.TagFunc {
	return func(w io.Writer, tag string) (int, error) {
		val, ok := resolve(data, de.key(tag))
		if !ok || val == "" {
			return 0, nil
		}

		return io.WriteString(w, val)
	}
}

func resolve(data Source, key string) (string, bool) {
	if data == nil {
		return "", false
	}

	return data.String(key)
}
