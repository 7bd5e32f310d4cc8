package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/premarket-signals/internal/scheduler"
	"github.com/wonny/premarket-signals/internal/scheduler/jobs"
	"github.com/wonny/premarket-signals/pkg/config"
	"github.com/wonny/premarket-signals/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage the scheduler",
	Long: `Starts the scheduler or inspects its jobs.

Subcommands:
  start   - start the scheduler daemon
  list    - list registered jobs and their next run
  run     - run one job now and exit

Example:
  go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler list
  go run ./cmd/quant scheduler run premarket_scan`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		Long: `Starts the scheduler and schedules every registered job.

Registered jobs:
- premarket_scan: SCAN_SCHEDULE (default every 15 minutes, 04:00-09:45, weekdays)
- run_retention: daily at 03:00, when DATABASE_URL is set

Stop the scheduler with Ctrl+C.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run one job now",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerRisk riskFlags
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	schedulerCmd.PersistentFlags().StringVar(&schedulerRisk.preset, "preset", "default", "risk preset (default|conservative|aggressive)")
	schedulerCmd.PersistentFlags().StringVar(&schedulerRisk.strategyFile, "strategy", "", "strategy YAML file (overrides --preset)")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Premarket Signals Scheduler ===")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize dependencies
	sched, a, err := initScheduler(ctx)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	// Start scheduler
	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	<-ctx.Done()

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, a, err := initScheduler(context.Background())
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	printJobs(sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched, a, err := initScheduler(ctx)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	if err := sched.RunJob(jobName); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			sched.Stop()
		case <-done:
		}
	}()
	sched.Wait()
	close(done)

	history, err := sched.GetJobHistory(jobName)
	if err != nil {
		return err
	}
	latest := history.GetLatestResults(1)
	if len(latest) == 0 {
		return fmt.Errorf("job %s did not run", jobName)
	}

	result := latest[0]
	if !result.Success {
		return fmt.Errorf("job %s failed after %d attempt(s): %s", jobName, result.Attempts, result.Error)
	}

	fmt.Printf("✅ Job %s completed in %s\n", jobName, result.Duration.Round(time.Millisecond))
	return nil
}

// initScheduler wires the scan service and registers every job
func initScheduler(ctx context.Context) (*scheduler.Scheduler, *app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log := newLogger(cfg, nil)

	riskCfg, err := resolveRisk(cfg, schedulerRisk)
	if err != nil {
		return nil, nil, err
	}

	a, err := newApp(ctx, cfg, log, appOptions{risk: riskCfg, persist: true})
	if err != nil {
		return nil, nil, err
	}

	sched := scheduler.New(log)
	if err := registerJobs(sched, cfg, a, log); err != nil {
		a.Close()
		return nil, nil, err
	}

	return sched, a, nil
}

func registerJobs(sched *scheduler.Scheduler, cfg *config.Config, a *app, log *logger.Logger) error {
	scanJob := jobs.NewPremarketScanJob(a.service, cfg.ScanSchedule, cfg.Engine.OutputDir, log)
	if err := sched.AddJob(scanJob); err != nil {
		return err
	}

	if a.repo != nil {
		if err := sched.AddJob(jobs.NewRunRetentionJob(a.repo, cfg.RunRetention, log)); err != nil {
			return err
		}
	}

	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()

	fmt.Println("\nRegistered jobs:")
	for _, name := range sched.GetAllJobs() {
		st := stats[name]
		fmt.Printf("  - %-16s %-28s next: %s\n", name, st.Schedule, st.NextRun.Format(time.RFC3339))
	}
}
