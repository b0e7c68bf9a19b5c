// Binary tagexpand expands "<% key %>" placeholders in a
// template using values from JSON, YAML, TOML or stamp
// data files and KEY=VALUE overrides.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/byte4ever/tagexpand/config"
	"github.com/byte4ever/tagexpand/logging"
	"github.com/byte4ever/tagexpand/templating"
)

func newRootCommand(
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tagexpand [template]",
		Short: "Expand delimited placeholders in a template",
		Long: "tagexpand replaces every <% key %> placeholder in a template\n" +
			"with the string value of key from the data files. Missing keys\n" +
			"and non-string values expand to the empty string.",
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, stdin, stdout, stderr)
		},
	}

	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	config.RegisterFlags(cmd.Flags())

	return cmd
}

func run(
	cmd *cobra.Command,
	args []string,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
) error {
	const errCtx = "tagexpand"

	cfg, err := config.Load(cmd.Flags(), args)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	logger, err := logging.New(stderr, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	en := templating.Engine{
		Delimiters: cfg.Delimiters(),
		DataFiles:  cfg.DataPaths,
		Logger:     logger,
		Stdin:      stdin,
		Stdout:     stdout,
	}

	if !cfg.Watch {
		if err := en.Expand(
			cfg.TemplatePath, cfg.OutputPath,
			cfg.Sets, cfg.Executable,
		); err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}

		return nil
	}

	ctx, stop := signal.NotifyContext(
		cmd.Context(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	logger.Info(
		"watching for changes",
		"template", cfg.TemplatePath,
		"data", cfg.DataPaths,
	)

	if err := en.Watch(
		ctx, cfg.TemplatePath, cfg.OutputPath,
		cfg.Sets, cfg.Executable,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

func main() {
	cmd := newRootCommand(os.Stdin, os.Stdout, os.Stderr)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
