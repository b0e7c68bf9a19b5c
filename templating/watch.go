package templating

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

var (
	// ErrNoTemplatePath is returned by Watch when the
	// template would be read from stdin.
	ErrNoTemplatePath = errors.New("watch requires a template path")

	// ErrOutputIsInput is returned by Watch when the output
	// path is one of the watched inputs.
	ErrOutputIsInput = errors.New("output path is a watched input")
)

// Watch renders the template once and then again every
// time the template or one of the data files is written or
// re-created, until ctx is done. Render failures are
// logged and the loop keeps going. It returns nil once ctx
// is cancelled.
func (en *Engine) Watch(
	ctx context.Context,
	tplPath string,
	outPath string,
	sets []string,
	executable bool,
) error {
	const errCtx = "watching template"

	if tplPath == "" {
		return fmt.Errorf("%s: %w", errCtx, ErrNoTemplatePath)
	}

	inputs, err := absPaths(append([]string{tplPath}, en.DataFiles...))
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if outPath != "" {
		absOut, err := filepath.Abs(outPath)
		if err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}

		if _, hit := inputs[absOut]; hit {
			return fmt.Errorf(
				"%s: %w: %s", errCtx, ErrOutputIsInput, outPath,
			)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	defer watcher.Close() //nolint:errcheck // best-effort close

	// Directories are watched rather than files so that
	// editors replacing a file by rename are still seen.
	for dir := range parentDirs(inputs) {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf(
				"%s: watching %s: %w", errCtx, dir, err,
			)
		}
	}

	en.renderLogged(tplPath, outPath, sets, executable)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if _, hit := inputs[filepath.Clean(event.Name)]; !hit {
				continue
			}

			if !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Create) {
				continue
			}

			en.logger().Debug(
				"input changed", "path", event.Name,
			)

			en.renderLogged(tplPath, outPath, sets, executable)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			en.logger().Warn("watcher error", "error", err)
		}
	}
}

// renderLogged runs Expand and logs the outcome instead of
// returning it.
func (en *Engine) renderLogged(
	tplPath string,
	outPath string,
	sets []string,
	executable bool,
) {
	if err := en.Expand(
		tplPath, outPath, sets, executable,
	); err != nil {
		en.logger().Error(
			"render failed",
			"template", tplPath,
			"error", err,
		)

		return
	}

	en.logger().Info(
		"rendered",
		"template", tplPath,
		"output", displayOutput(outPath),
	)
}

// absPaths returns the cleaned absolute form of every
// path as a set.
func absPaths(paths []string) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(paths))

	for _, pa := range paths {
		abs, err := filepath.Abs(pa)
		if err != nil {
			return nil, err
		}

		set[abs] = struct{}{}
	}

	return set, nil
}

func parentDirs(paths map[string]struct{}) map[string]struct{} {
	dirs := make(map[string]struct{}, len(paths))

	for pa := range paths {
		dirs[filepath.Dir(pa)] = struct{}{}
	}

	return dirs
}
