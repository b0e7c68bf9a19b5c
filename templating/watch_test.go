package templating_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/tagexpand/templating"
)

// readOutput returns the content of pa, or "" if it cannot
// be read yet.
func readOutput(pa string) string {
	got, err := os.ReadFile(pa) //nolint:gosec // test file
	if err != nil {
		return ""
	}

	return string(got)
}

func TestWatch_rerenders_on_data_change(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	tplPath := writeTemp(t, dir, "tpl.txt", "env=<% env %>")
	dataPath := writeTemp(t, dir, "data.json", `{"env": "dev"}`)
	outPath := filepath.Join(dir, "out.txt")

	en := templating.Engine{
		DataFiles: []string{dataPath},
	}

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)

	go func() {
		done <- en.Watch(ctx, tplPath, outPath, nil, false)
	}()

	require.Eventually(t, func() bool {
		return readOutput(outPath) == "env=dev"
	}, 5*time.Second, 10*time.Millisecond)

	writeTemp(t, dir, "data.json", `{"env": "prod"}`)

	require.Eventually(t, func() bool {
		return readOutput(outPath) == "env=prod"
	}, 5*time.Second, 10*time.Millisecond)

	writeTemp(t, dir, "tpl.txt", "environment: <% env %>")

	require.Eventually(t, func() bool {
		return readOutput(outPath) == "environment: prod"
	}, 5*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatch_survives_broken_data(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	tplPath := writeTemp(t, dir, "tpl.txt", "<% v %>")
	dataPath := writeTemp(t, dir, "data.json", `{"v": "1"}`)
	outPath := filepath.Join(dir, "out.txt")

	en := templating.Engine{
		DataFiles: []string{dataPath},
	}

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	go func() {
		_ = en.Watch(ctx, tplPath, outPath, nil, false) //nolint:errcheck // checked via output
	}()

	require.Eventually(t, func() bool {
		return readOutput(outPath) == "1"
	}, 5*time.Second, 10*time.Millisecond)

	writeTemp(t, dir, "data.json", `{"v": `)
	writeTemp(t, dir, "data.json", `{"v": "2"}`)

	require.Eventually(t, func() bool {
		return readOutput(outPath) == "2"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatch_requires_template_path(t *testing.T) {
	t.Parallel()

	en := templating.Engine{}

	err := en.Watch(t.Context(), "", "", nil, false)

	require.ErrorIs(t, err, templating.ErrNoTemplatePath)
}

func TestWatch_rejects_output_over_input(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	tplPath := writeTemp(t, dir, "tpl.txt", "hi")

	en := templating.Engine{}

	err := en.Watch(t.Context(), tplPath, tplPath, nil, false)

	require.ErrorIs(t, err, templating.ErrOutputIsInput)
	assert.Contains(t, err.Error(), "watching template")
}

func TestWatch_returns_on_cancelled_context(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	tplPath := writeTemp(t, dir, "tpl.txt", "hi")

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	en := templating.Engine{}

	err := en.Watch(ctx, tplPath, filepath.Join(dir, "out"), nil, false)

	require.NoError(t, err)
}
