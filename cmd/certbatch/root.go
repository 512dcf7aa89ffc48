package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/certbatch/internal/certificate"
	"github.com/JonMunkholm/certbatch/internal/config"
	"github.com/JonMunkholm/certbatch/internal/core"
	"github.com/JonMunkholm/certbatch/internal/logging"
)

// app carries state shared by the subcommands.
type app struct {
	cfg       *config.Config
	assetsDir string
	logLevel  string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "certbatch",
		Short:         "Generate course completion certificates from candidate files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.assetsDir, "assets", "", "directory holding header.png, badge.png and sign.png (default $CERT_ASSETS_DIR)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(
		newValidateCmd(a),
		newGenerateCmd(a),
		newCoursesCmd(),
	)
	return root
}

// setup loads configuration for a command. The admin gate only applies to the
// web server, so it is switched off here.
func (a *app) setup(cmd *cobra.Command) error {
	_ = godotenv.Load()

	cfg, err := config.LoadFrom(func(key string) (string, bool) {
		if key == "AUTH_ENABLED" {
			return "false", true
		}
		return os.LookupEnv(key)
	})
	if err != nil {
		return err
	}
	if a.assetsDir != "" {
		cfg.Certificate.AssetsDir = a.assetsDir
	}
	a.cfg = cfg

	slog.SetDefault(logging.New(cmd.ErrOrStderr(), a.logLevel, cfg.Logging.Format))
	return nil
}

// load reads a candidate file into a new service writing to sink.
func (a *app) load(ctx context.Context, path string, sink certificate.Sink) (*core.Service, *core.UploadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read candidate file: %w", err)
	}

	renderer := certificate.NewRenderer(
		core.TemplateFromConfig(a.cfg.Certificate),
		certificate.LoadAssets(a.cfg.Certificate.AssetsDir),
		slog.Default(),
	)

	opts := core.OptionsFromConfig(a.cfg)
	opts.ItemDelay = 0

	svc := core.NewService(renderer, sink, opts)
	result, err := svc.Upload(ctx, filepath.Base(path), data)
	return svc, result, err
}
