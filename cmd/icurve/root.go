package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/maseology/icurve/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	config    string
	logFormat string
	logLevel  string
	metrics   string
}

func newRootCmd() *cobra.Command {
	var rf rootFlags
	cmd := &cobra.Command{
		Use:           "icurve",
		Short:         "Advect integral curves through partitioned vector fields",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := cmd.PersistentFlags()
	pf.StringVarP(&rf.config, "config", "c", "batch.yaml", "batch description (.yaml, or .ini/.gcfg)")
	pf.StringVar(&rf.logFormat, "log-format", "text", "log format: text or json")
	pf.StringVar(&rf.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	pf.StringVar(&rf.metrics, "metrics", "", "write prometheus counters to this textfile")

	cmd.AddCommand(newRunCmd(&rf), newTraceCmd(&rf), newRenderCmd(&rf))
	return cmd
}

func newLogger(w io.Writer, format, level string) (*slog.Logger, error) {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	o := &slog.HandlerOptions{Level: lv}
	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, o)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, o)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}

// env is what every subcommand starts from.
type env struct {
	batch *config.Batch
	log   *slog.Logger
	reg   *prometheus.Registry
}

func (rf *rootFlags) load() (*env, error) {
	log, err := newLogger(os.Stderr, rf.logFormat, rf.logLevel)
	if err != nil {
		return nil, err
	}
	b, err := config.Load(rf.config)
	if err != nil {
		return nil, err
	}
	log.Debug("config loaded", "path", rf.config)
	return &env{batch: b, log: log, reg: prometheus.NewRegistry()}, nil
}

func (rf *rootFlags) flushMetrics(e *env) error {
	if rf.metrics == "" {
		return nil
	}
	return prometheus.WriteToTextfile(rf.metrics, e.reg)
}
