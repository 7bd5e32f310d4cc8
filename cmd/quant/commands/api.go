package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/premarket-signals/internal/api"
	"github.com/wonny/premarket-signals/internal/api/handlers"
	"github.com/wonny/premarket-signals/internal/api/stream"
	"github.com/wonny/premarket-signals/internal/contracts"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

This command:
- serves the latest and past runs
- triggers scans on demand
- streams every completed run over a websocket

Endpoints:
  GET  /health                    - Health check
  GET  /api/signals/latest        - Latest run (?format=text for the report)
  GET  /api/signals/runs/{run_id} - One run by id
  POST /api/signals/run           - Run a scan now
  GET  /api/config                - Active risk configuration
  GET  /ws/signals                - Live run stream
  GET  /metrics                   - Prometheus metrics

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080 --preset conservative`,
	RunE: runAPIServer,
}

var (
	apiPort string
	apiRisk riskFlags
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default PORT)")
	apiCmd.Flags().StringVar(&apiRisk.preset, "preset", "default", "risk preset (default|conservative|aggressive)")
	apiCmd.Flags().StringVar(&apiRisk.strategyFile, "strategy", "", "strategy YAML file (overrides --preset)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Premarket Signals API Server ===")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := newLogger(cfg, nil)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	riskCfg, err := resolveRisk(cfg, apiRisk)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Create websocket hub
	hub := stream.NewHub(log)
	defer hub.Close()

	// 4. Wire service; with Redis the hub follows the results channel so runs
	//    from the scheduler process reach websocket clients too
	opts := appOptions{risk: riskCfg, persist: true}
	if !cfg.Redis.Enabled {
		opts.publishers = []contracts.ResultPublisher{hub}
	}
	a, err := newApp(ctx, cfg, log, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.redis.Enabled() {
		go func() {
			if err := hub.Listen(ctx, a.cache); err != nil && ctx.Err() == nil {
				log.WithError(err).Error("Results subscription stopped")
			}
		}()
	}

	// 5. Create router
	deps := api.RouterDeps{
		Signals: handlers.NewSignalsHandler(a.service, log),
		Hub:     hub,
		Metrics: cfg.MetricsEnabled,
	}
	if a.db != nil {
		deps.DB = a.db
	}
	router := api.NewRouter(deps, log)

	// 6. Create server
	server := api.New(cfg, log, router)

	// 7. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /api/signals/latest")
	fmt.Println("  GET  /api/signals/runs/{run_id}")
	fmt.Println("  POST /api/signals/run")
	fmt.Println("  GET  /api/config")
	fmt.Println("  GET  /ws/signals")
	fmt.Println("  GET  /metrics")
	fmt.Println("\nPress Ctrl+C to stop")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
