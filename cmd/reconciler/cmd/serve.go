package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ledger-reconciliation-service/cmd/reconciler/config"
	"ledger-reconciliation-service/internal/api"
	"ledger-reconciliation-service/internal/reconciler"
	"ledger-reconciliation-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const shutdownTimeout = 10 * time.Second

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve reconciliation over HTTP",
	Long: `Serve starts an HTTP API so that the pharmacy automation can trigger a
reconciliation without the CLI. Filters and column aliases come from the
config file; a request may send its own filters.

Endpoints:
  GET  /healthz
  POST /v1/reconcile          JSON body with depot and pharmacy rows
  POST /v1/reconcile/upload   multipart form with depot_file and pharmacy_file

Both reconcile endpoints accept ?format=json|csv|console (default json).`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("address", "127.0.0.1:8080", "listen address")
	serveCmd.Flags().StringSlice("allowed-origins", nil, "CORS origins allowed to call the API")

	viper.BindPFlag("server.address", serveCmd.Flags().Lookup("address"))
	viper.BindPFlag("server.allowed_origins", serveCmd.Flags().Lookup("allowed-origins"))
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("cli")

	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	parseConfig, err := settings.ParseConfig()
	if err != nil {
		return err
	}
	reconcilerConfig, err := settings.ReconcilerConfig()
	if err != nil {
		return err
	}
	service, err := reconciler.NewReconciliationService(reconcilerConfig)
	if err != nil {
		return err
	}

	server := api.NewServer(settings.ServerConfig(version), service, parseConfig)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Received shutdown signal")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
