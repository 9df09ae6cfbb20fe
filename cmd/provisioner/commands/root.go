package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/novavault/wallet-provisioner/internal/domain/services/entitysecret"
	"github.com/novavault/wallet-provisioner/internal/infrastructure/circle"
	"github.com/novavault/wallet-provisioner/internal/infrastructure/config"
	"github.com/novavault/wallet-provisioner/internal/infrastructure/envfile"
	perrors "github.com/novavault/wallet-provisioner/pkg/errors"
	"github.com/novavault/wallet-provisioner/pkg/logger"
)

var (
	envFile  string
	logLevel string

	cfg   *config.Config
	log   *logger.Logger
	store *envfile.Store
)

func Execute() error {
	root := &cobra.Command{
		Use:           "provisioner",
		Short:         "Provision Circle developer-controlled wallets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(envFile)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			log = logger.New(cfg.LogLevel, cfg.Environment)
			store = envfile.NewStore(cfg.EnvFile)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", "", "env file holding credentials and results (default .env)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(registerCmd(), setupCmd(), statusCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := root.ExecuteContext(ctx)
	if err != nil {
		// log is nil when configuration loading itself failed.
		if log != nil {
			log.WithError(err).Errorw("command failed")
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		if hint := perrors.Hint(perrors.Classify(err)); hint != "" {
			fmt.Fprintln(os.Stderr, "Hint:", hint)
		}
	}
	return err
}

// newCircleClient builds the API client from loaded configuration.
func newCircleClient() *circle.Client {
	return circle.NewClient(circle.Config{
		APIKey:      cfg.Circle.APIKey,
		BaseURL:     cfg.Circle.BaseURL,
		Environment: cfg.Circle.Environment,
	}, log.Zap())
}

// newSecretService builds the entity secret service.
func newSecretService() *entitysecret.Service {
	return entitysecret.NewService(log.Zap())
}
