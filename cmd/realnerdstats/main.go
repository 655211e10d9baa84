package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lfsj/RealNerdStats/pkg/collector/process"
	"github.com/lfsj/RealNerdStats/pkg/collector/system"
	"github.com/lfsj/RealNerdStats/pkg/config"
	"github.com/lfsj/RealNerdStats/pkg/export"
	"github.com/lfsj/RealNerdStats/pkg/report"
	"github.com/lfsj/RealNerdStats/pkg/sampler"
	"github.com/lfsj/RealNerdStats/pkg/ui"
)

func main() {
	os.Exit(run(os.Args[0], os.Args[1:]))
}

// run returns the process exit status so deferred cleanup happens before exit.
func run(name string, args []string) int {
	cfg, err := config.Parse(name, args, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		log.Printf("invalid configuration: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The export opens before the terminal is taken over so its error stays visible.
	var exp export.Exporter
	if cfg.ExportPath != "" {
		exp, err = export.Open(cfg.ExportPath, cfg.TopN)
		if err != nil {
			log.Printf("opening export %s: %v", cfg.ExportPath, err)
			return 1
		}
	}

	var consumers []sampler.Consumer
	logger := log.Default()
	restoreTerminal := func() {}
	filter := report.FilterConfig{HideKernel: cfg.HideKernel}
	if cfg.TUI {
		dash, err := ui.NewDashboard(cancel, ui.DashboardOptions{TopN: cfg.TopN, Filter: filter})
		if err != nil {
			if exp != nil {
				_ = exp.Close()
			}
			log.Printf("initializing dashboard: %v", err)
			return 1
		}
		// termui owns the screen, so runtime warnings go to the summary panel.
		logger = log.New(dash, "", log.Ltime)
		consumers = append(consumers, dash)
	} else {
		tty := ui.IsTerminal()
		restoreTerminal = ui.EnableSingleView()
		defer restoreTerminal()
		consumers = append(consumers, report.NewRenderer(os.Stdout, report.Options{
			TopN:     cfg.TopN,
			Filter:   filter,
			Interval: cfg.IntervalDuration(),
			Banner:   ui.Banner(),
			Clear:    tty,
		}))
	}
	if exp != nil {
		consumers = append(consumers, export.NewGuard(exp, logger))
	}

	s, err := sampler.New(
		sampler.Config{Interval: cfg.IntervalDuration(), MaxTicks: cfg.Count},
		system.NewCollector(system.Options{Sensors: cfg.Sensors, NetworkDetail: cfg.NetworkDetail}),
		process.NewCollector(),
		logger,
		consumers...,
	)
	if err != nil {
		restoreTerminal()
		closeAll(consumers...)
		log.Printf("initializing sampler: %v", err)
		return 1
	}

	err = s.Run(ctx)
	restoreTerminal()
	if err != nil {
		log.Printf("sampling stopped: %v", err)
		return 1
	}
	fmt.Println("\nExiting RealNerdStats.")
	return 0
}

// closeAll releases consumers when the sampler never got to own them.
func closeAll(consumers ...sampler.Consumer) {
	for _, c := range consumers {
		if closer, ok := c.(io.Closer); ok {
			_ = closer.Close()
		}
	}
}
