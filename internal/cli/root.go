package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/piratenetwork/zsign/internal/connectors/logger"
	"github.com/piratenetwork/zsign/internal/connectors/metrics"
	"github.com/piratenetwork/zsign/internal/env"
	"github.com/piratenetwork/zsign/internal/pkg/rpc"
	"github.com/piratenetwork/zsign/internal/pkg/signing"
	"github.com/piratenetwork/zsign/internal/pkg/zsign"
)

// ErrSignFailed is returned by sign when the wallet did not sign. The
// failure text has already been printed.
var ErrSignFailed = errors.New("transaction signing failed")

type Signer interface {
	Sign(ctx context.Context, raw string) signing.Outcome
}

type app struct {
	configPath    string
	signer        Signer
	unlockTimeout time.Duration
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "zsign",
		Short: "Sign z_sign_offline commands with an offline wallet daemon",
		Long: `zsign takes the z_sign_offline command produced by z_sendmany_prepare_offline
on the online wallet, has the offline wallet daemon sign it and prints the
sendrawtransaction command to paste back into the online wallet.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to the .env file")

	root.AddCommand(newSignCmd(a))
	root.AddCommand(newConsoleCmd(a))
	root.AddCommand(newUsageCmd())

	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.signer != nil {
		return nil
	}

	cfg, err := env.Read(a.configPath)
	if err != nil {
		return err
	}

	log, _, err := logger.NewWithWriter(&cfg.AppConfig, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	metricsStore := metrics.New(prometheus.NewRegistry(), cfg.AppConfig.MetricsPrefix, cfg.AppConfig.Name, cfg.AppConfig.Env)

	httpClient := &http.Client{
		Timeout: cfg.AppConfig.RpcTimeout,
	}
	remote := rpc.NewRemote(cfg.AppConfig.RpcURL, cfg.AppConfig.RpcUser, cfg.AppConfig.RpcPassword, httpClient, metricsStore, cfg.AppConfig.RpcMaxAttempts)

	table := rpc.NewTable()
	table.Register(zsign.CommandSignOffline, remote.Forward(zsign.CommandSignOffline))

	a.signer = signing.New(log, metricsStore, table, zsign.SchemaFor)
	a.unlockTimeout = cfg.AppConfig.UnlockTimeout

	return nil
}
