package core

import (
	"context"
	"fmt"
	"io"
	"os"

	units "github.com/docker/go-units"
	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/batchkit/batchkit/config"
	"github.com/batchkit/batchkit/fetch"
	"github.com/batchkit/batchkit/history"
	"github.com/batchkit/batchkit/metrics"
	"github.com/batchkit/batchkit/types"
)

// BaseHandler provides shared config access for all command handlers.
type BaseHandler struct {
	ConfProvider func() *config.Config
}

// Init returns the command context and validated config in one call.
func (h BaseHandler) Init(cmd *cobra.Command) (context.Context, *config.Config, error) {
	conf, err := h.Conf()
	if err != nil {
		return nil, nil, err
	}
	return CommandContext(cmd), conf, nil
}

// Conf validates and returns the config. All handlers call this first.
func (h BaseHandler) Conf() (*config.Config, error) {
	if h.ConfProvider == nil {
		return nil, fmt.Errorf("config provider is nil")
	}
	conf := h.ConfProvider()
	if conf == nil {
		return nil, fmt.Errorf("config not initialized")
	}
	return conf, nil
}

// CommandContext returns command context, falling back to Background.
func CommandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

// InitHistory opens the run index.
func InitHistory(conf *config.Config) (*history.History, error) {
	h, err := history.New(conf)
	if err != nil {
		return nil, fmt.Errorf("init history: %w", err)
	}
	return h, nil
}

// InitMetrics returns a collector when a metrics file is configured, nil
// otherwise. Every metrics method accepts nil.
func InitMetrics(conf *config.Config) *metrics.Metrics {
	if conf.MetricsFile == "" {
		return nil
	}
	return metrics.New()
}

// FlushMetrics writes the metrics snapshot; failures only warn.
func FlushMetrics(ctx context.Context, conf *config.Config, m *metrics.Metrics) {
	if err := m.WriteFile(conf.MetricsFile); err != nil {
		log.WithFunc("cmd.FlushMetrics").Warnf(ctx, "write metrics %s: %v", conf.MetricsFile, err)
	}
}

// RecordRun stores run in the index; failures only warn since the run's
// artifact is already written.
func RecordRun(ctx context.Context, conf *config.Config, run *types.Run) {
	logger := log.WithFunc("cmd.RecordRun")
	h, err := InitHistory(conf)
	if err != nil {
		logger.Warnf(ctx, "record run %s: %v", run.ID, err)
		return
	}
	if err := h.Record(ctx, run); err != nil {
		logger.Warnf(ctx, "record run %s: %v", run.ID, err)
	}
}

// NewPipeline builds the fetch pipeline from config. concurrency > 0
// overrides fetch.concurrency.
func NewPipeline(conf *config.Config, m *metrics.Metrics, concurrency int) (*fetch.Pipeline, error) {
	maxBytes, err := conf.Fetch.MaxItemBytes()
	if err != nil {
		return nil, err
	}
	if concurrency <= 0 {
		concurrency = conf.Fetch.Concurrency
	}
	fetcher := fetch.NewHTTPFetcher(conf.Fetch.Timeout, maxBytes, conf.Fetch.UserAgent)
	return fetch.New(fetcher, fetch.Options{
		ItemDelay:   conf.Fetch.ItemDelay,
		Concurrency: concurrency,
		Metrics:     m,
	}), nil
}

// StatusLine redraws a single status line in place on a terminal and
// prints one line per update elsewhere.
type StatusLine struct {
	w   io.Writer
	tty bool
	any bool
}

// NewStatusLine writes to stdout.
func NewStatusLine() *StatusLine {
	return &StatusLine{w: os.Stdout, tty: term.IsTerminal(int(os.Stdout.Fd()))} //nolint:gosec
}

// Update shows str.
func (s *StatusLine) Update(str string) {
	s.any = true
	if s.tty {
		_, _ = fmt.Fprintf(s.w, "\r  %s", str)
		return
	}
	_, _ = fmt.Fprintf(s.w, "  %s\n", str)
}

// Done ends an in-place line.
func (s *StatusLine) Done() {
	if s.tty && s.any {
		_, _ = fmt.Fprintln(s.w)
	}
	s.any = false
}

func FormatSize(bytes int64) string {
	return units.HumanSize(float64(bytes))
}
