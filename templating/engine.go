package templating

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/byte4ever/tagexpand/datasource"
	"github.com/byte4ever/tagexpand/expander"
	"github.com/byte4ever/tagexpand/logging"
)

// Engine expands templates using data files and explicit
// KEY=VALUE overrides.
type Engine struct {
	Delimiters expander.Delimiters
	DataFiles  []string

	// Logger defaults to a discarding logger.
	Logger *slog.Logger

	// Stdin and Stdout default to the process streams.
	Stdin  io.Reader
	Stdout io.Writer
}

// Render reads the template at tplPath (stdin if empty),
// loads the data files, applies sets on top of them and
// returns the expansion.
//
// Processing order:
//  1. Load data files in order; later files override
//     earlier keys.
//  2. Apply each KEY=VALUE in sets, overriding data.
//  3. Expand the template against the merged mapping.
func (en *Engine) Render(
	tplPath string,
	sets []string,
) (string, error) {
	const errCtx = "rendering template"

	data, err := en.loadData(sets)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	tplContent, err := en.readTemplate(tplPath)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	tpl := string(tplContent)

	// Empty delimiters fall back to "<%" and "%>" inside
	// the expander.
	for _, key := range expander.Missing(tpl, data, en.Delimiters) {
		en.logger().Debug(
			"unresolved placeholder",
			"key", key,
			"template", displayPath(tplPath),
		)
	}

	return expander.ExpandWith(tpl, data, en.Delimiters), nil
}

// Expand renders the template and writes the result. If
// outPath is empty it writes to stdout. If executable is
// true the output file receives mode 0777 instead of
// 0666.
func (en *Engine) Expand(
	tplPath string,
	outPath string,
	sets []string,
	executable bool,
) error {
	const errCtx = "expanding template"

	result, err := en.Render(tplPath, sets)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := en.writeOutput(
		outPath, result, executable,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	en.logger().Debug(
		"template expanded",
		"template", displayPath(tplPath),
		"output", displayOutput(outPath),
		"bytes", len(result),
	)

	return nil
}

func (en *Engine) logger() *slog.Logger {
	if en.Logger == nil {
		return logging.Discard()
	}

	return en.Logger
}

// loadData merges the data files and the KEY=VALUE
// overrides into one mapping.
func (en *Engine) loadData(
	sets []string,
) (datasource.Values, error) {
	const errCtx = "loading data"

	data, err := datasource.Load(en.DataFiles)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	overrides, err := datasource.ParseAssignments(sets)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	datasource.Merge(data, overrides)

	return data, nil
}

// readTemplate reads the template from a file path. If
// tplPath is empty it reads from stdin.
func (en *Engine) readTemplate(
	tplPath string,
) ([]byte, error) {
	const errCtx = "reading template"

	if tplPath != "" {
		content, err := os.ReadFile(tplPath) //nolint:gosec // paths from CLI flags
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		return content, nil
	}

	stdin := en.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}

	content, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: reading stdin: %w", errCtx, err,
		)
	}

	return content, nil
}

// writeOutput writes result to outPath, or to stdout when
// outPath is empty.
func (en *Engine) writeOutput(
	outPath string,
	result string,
	executable bool,
) error {
	const errCtx = "writing output"

	if outPath == "" {
		stdout := en.Stdout
		if stdout == nil {
			stdout = os.Stdout
		}

		if _, err := io.WriteString(stdout, result); err != nil {
			return fmt.Errorf(
				"%s: writing to stdout: %w", errCtx, err,
			)
		}

		return nil
	}

	var perm os.FileMode = 0o666
	if executable {
		perm = 0o777
	}

	fi, err := os.OpenFile( //nolint:gosec // paths from CLI flags
		outPath,
		os.O_RDWR|os.O_CREATE|os.O_TRUNC,
		perm,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if _, err := io.WriteString(fi, result); err != nil {
		_ = fi.Close() //nolint:errcheck // write error wins

		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := fi.Close(); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

func displayPath(tplPath string) string {
	if tplPath == "" {
		return "<stdin>"
	}

	return tplPath
}

func displayOutput(outPath string) string {
	if outPath == "" {
		return "<stdout>"
	}

	return outPath
}
