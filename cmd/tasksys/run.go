package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tasksys "github.com/Swind/go-task-system"
	"github.com/Swind/go-task-system/core"
	obs "github.com/Swind/go-task-system/observability/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

func RunCommand() *cli.Command {
	return &cli.Command{
		Name:   "run",
		Usage:  "Run verified batches on a task system",
		Flags:  runFlags(),
		Action: RunAction,
	}
}

func RunAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Invalid config: %v", err), 1)
	}

	slogger, closer, err := newLogger(cfg.Logging, c.App.ErrWriter)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Invalid config: %v", err), 1)
	}
	defer closer.Close()
	logger := core.NewSlogLogger(slogger)

	wait, _ := core.ParseWaitStrategy(cfg.Wait)
	sysConfig := &core.SystemConfig{
		PanicHandler: &core.DefaultPanicHandler{Logger: logger},
		Logger:       logger,
		CallerWait:   wait,
		LockOSThread: cfg.LockOSThread,
		PinCPUs:      cfg.PinCPUs,
	}

	var reg *prom.Registry
	if cfg.MetricsAddr != "" {
		reg = prom.NewRegistry()
		exporter, err := obs.NewMetricsExporter("tasksys", reg, obs.ExporterOptions{})
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
		}
		sysConfig.Metrics = exporter
	}

	kind, _ := tasksys.ParseKind(cfg.Kind)
	sys, err := tasksys.New(kind, cfg.Threads, sysConfig)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}
	defer sys.Close()

	if reg != nil {
		stop, err := serveMetrics(c.Context, cfg.MetricsAddr, reg, string(kind), sys, logger)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
		}
		defer stop()
	}

	logger.Info("running batches",
		core.F("system", sys.Name()),
		core.F("threads", cfg.Threads),
		core.F("tasks", cfg.Tasks),
		core.F("rounds", cfg.Rounds),
		core.F("wait", cfg.Wait),
	)

	report, err := runWorkload(sys, cfg.Tasks, cfg.Rounds, cfg.Work)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}

	fmt.Fprintf(c.App.Writer, "✓ %s: %d rounds x %d tasks verified (%d tasks completed)\n",
		report.System, report.Rounds, report.Tasks, report.Completed)
	return nil
}

// serveMetrics exposes reg on addr and polls sys into it until the returned
// stop function is called.
func serveMetrics(ctx context.Context, addr string, reg *prom.Registry, name string, sys core.TaskSystem, logger core.Logger) (func(), error) {
	poller, err := obs.NewSnapshotPoller(reg, 100*time.Millisecond)
	if err != nil {
		return nil, err
	}
	poller.AddSystem(name, sys)
	poller.Start(ctx)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", core.F("addr", addr), core.F("error", err))
		}
	}()
	logger.Info("serving metrics", core.F("addr", addr))

	return func() {
		poller.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}, nil
}
