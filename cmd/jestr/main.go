package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/jestr-media/client/pkg/api"
	"github.com/jestr-media/client/pkg/config"
	"github.com/jestr-media/client/pkg/logging"
	"github.com/jestr-media/client/pkg/persist"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgPath string
	cfg     config.Config
	logger  *zap.Logger
)

var errNoUser = errors.New("no user configured, set JESTR_USER")

var rootCmd = &cobra.Command{
	Use:           "jestr",
	Short:         "Jestr client state from the command line",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			return err
		}

		if logger, err = logging.New(cfg.Log.Level, cfg.Log.Development); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		// Init Sentry
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		// Wait for Sentry events to flush
		sentry.Flush(time.Second * 5)
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "YAML config file")

	rootCmd.AddCommand(devserverCmd)
	rootCmd.AddCommand(commentsCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(inboxCmd)
	rootCmd.AddCommand(notificationsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newClient() *api.Client {
	return api.NewClient(cfg.APIURL,
		api.WithToken(cfg.Token),
		api.WithUser(cfg.User),
		api.WithLogger(logger),
	)
}

// openSink returns the configured snapshot sink; the caller closes it.
func openSink(ctx context.Context) (persist.Sink, error) {
	sink, err := persist.Open(ctx, cfg.PersistURI)
	if err != nil {
		return nil, fmt.Errorf("open persist sink: %w", err)
	}
	return sink, nil
}

func requireUser() error {
	if cfg.User == "" {
		return errNoUser
	}
	return nil
}
