package config

import (
	"flag"
	"fmt"
	"io"
)

// Parse builds the configuration from command-line arguments. Precedence is
// built-in defaults, then the -config file, then flags given explicitly.
func Parse(name string, args []string, output io.Writer) (Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	var (
		cfg        = Default()
		configPath string
	)
	fs.IntVar(&cfg.TopN, "n", cfg.TopN, "number of top processes to display and export")
	fs.IntVar(&cfg.TopN, "number", cfg.TopN, "alias for -n")
	fs.Float64Var(&cfg.Interval, "interval", cfg.Interval, "refresh interval in seconds (e.g. 0.5, 2)")
	fs.StringVar(&cfg.ExportPath, "export", "", "write per-tick samples to this file (.db/.sqlite for SQLite, CSV otherwise)")
	fs.BoolVar(&cfg.NetworkDetail, "net-detail", false, "show network interfaces and open connections")
	fs.BoolVar(&cfg.Sensors, "sensors", false, "show temperature sensors")
	fs.BoolVar(&cfg.HideKernel, "hide-kernel", false, "hide kernel threads such as kworker, ksoftirqd, etc")
	fs.BoolVar(&cfg.TUI, "tui", false, "full-screen widget dashboard instead of plain text")
	fs.Uint64Var(&cfg.Count, "count", 0, "stop after this many refreshes (0 runs until interrupted)")
	fs.StringVar(&configPath, "config", "", "YAML file with defaults for the flags above")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() > 0 {
		return cfg, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if configPath == "" {
		return cfg, cfg.Validate()
	}

	flagged := cfg
	loaded, err := Load(configPath)
	if err != nil {
		return loaded, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "n", "number":
			loaded.TopN = flagged.TopN
		case "interval":
			loaded.Interval = flagged.Interval
		case "export":
			loaded.ExportPath = flagged.ExportPath
		case "net-detail":
			loaded.NetworkDetail = flagged.NetworkDetail
		case "sensors":
			loaded.Sensors = flagged.Sensors
		case "hide-kernel":
			loaded.HideKernel = flagged.HideKernel
		case "tui":
			loaded.TUI = flagged.TUI
		case "count":
			loaded.Count = flagged.Count
		}
	})
	return loaded, loaded.Validate()
}
