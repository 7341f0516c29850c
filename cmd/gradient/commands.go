package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anime-shed/gradient-fade/internal/clipboard"
	"github.com/anime-shed/gradient-fade/internal/config"
	"github.com/anime-shed/gradient-fade/internal/container"
	"github.com/anime-shed/gradient-fade/internal/intake"
	"github.com/anime-shed/gradient-fade/internal/logger"
	"github.com/anime-shed/gradient-fade/pkg/models"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	endpoint   string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "gradient",
		Short:         "Send an image to the gradient-fade endpoint and keep the result",
		SilenceUsage:  true,
		SilenceErrors: true,
		// stdout carries only command output such as the saved location
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetOutput(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file overlaid on the environment")
	root.PersistentFlags().StringVar(&opts.endpoint, "endpoint", "", "processing endpoint URL")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		newSubmitCommand(opts),
		newPasteCommand(opts),
		newURLCommand(opts),
		newServeCommand(opts),
	)
	return root
}

func (o *rootOptions) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}

	if o.endpoint != "" {
		cfg.ProcessEndpoint = o.endpoint
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// build loads the config and wires the container. Commands must call the
// returned cleanup.
func (o *rootOptions) build(ctx context.Context) (*container.Container, func(), error) {
	cfg, err := o.load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	c, err := container.NewContainer(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize container: %w", err)
	}
	cleanup := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Close(closeCtx); err != nil {
			logger.WithError(err).Warn("shutdown incomplete")
		}
	}
	return c, cleanup, nil
}

func newSubmitCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "submit FILE",
		Short: "Submit an image file and save the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, cleanup, err := opts.build(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			input, err := models.ImageInputFromFile(args[0], "")
			if err != nil {
				return err
			}
			if err := c.Normalizer().Select(ctx, input); err != nil {
				return err
			}
			return submitAndSave(ctx, c, cmd.OutOrStdout())
		},
	}
}

func newPasteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paste",
		Short: "Read the system clipboard, submit what it holds and save the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, cleanup, err := opts.build(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			event, err := clipboard.NewSystemReader().Read(ctx)
			if err != nil {
				return err
			}
			if err := pasteOrFail(ctx, c.Normalizer(), event); err != nil {
				return err
			}
			return submitAndSave(ctx, c, cmd.OutOrStdout())
		},
	}
}

func newURLCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "url TEXT",
		Short: "Treat TEXT as pasted text, fetch the image it points to and submit it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, cleanup, err := opts.build(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := pasteOrFail(ctx, c.Normalizer(), models.PasteEvent{Text: args[0]}); err != nil {
				return err
			}
			return submitAndSave(ctx, c, cmd.OutOrStdout())
		},
	}
}

func pasteOrFail(ctx context.Context, n *intake.Normalizer, event models.PasteEvent) error {
	outcome := n.Paste(ctx, event)
	if !outcome.Handled {
		return fmt.Errorf("paste ignored: %s", outcome.Reason)
	}
	logger.WithField("channel", outcome.Channel).Debug("paste accepted")
	return nil
}

func submitAndSave(ctx context.Context, c *container.Container, out io.Writer) error {
	h, err := c.Coordinator().Submit(ctx)
	if err != nil {
		return err
	}
	location, err := c.Coordinator().SaveVisibleResult(ctx, c.Sink())
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"handle": h.ID,
		"size":   h.Size,
		"sink":   c.Sink().Kind(),
	}).Info("result saved")
	_, err = fmt.Fprintln(out, location)
	return err
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP front end",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := opts.build(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()
			return serve(c)
		},
	}
}

func serve(c *container.Container) error {
	cfg := c.Config()
	server := &http.Server{
		Addr:              cfg.ServerAddress(),
		Handler:           c.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.SubmitTimeout + 10*time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"address":  cfg.ServerAddress(),
			"endpoint": cfg.ProcessEndpoint,
		}).Info("Starting HTTP server")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-quit:
	}

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}
