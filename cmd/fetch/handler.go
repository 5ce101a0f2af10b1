package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"

	cmdcore "github.com/batchkit/batchkit/cmd/core"
	"github.com/batchkit/batchkit/config"
	pipeline "github.com/batchkit/batchkit/fetch"
	"github.com/batchkit/batchkit/history"
	"github.com/batchkit/batchkit/progress"
	fetchProgress "github.com/batchkit/batchkit/progress/fetch"
	"github.com/batchkit/batchkit/table"
	"github.com/batchkit/batchkit/types"
	"github.com/batchkit/batchkit/utils"
)

const previewRows = 5

type Handler struct {
	cmdcore.BaseHandler
}

func (h Handler) Fetch(cmd *cobra.Command, _ []string) error {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return err
	}
	logger := log.WithFunc("cmd.fetch")
	input, _ := cmd.Flags().GetString("input")
	column, _ := cmd.Flags().GetString("column")
	out, _ := cmd.Flags().GetString("out")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	preview, _ := cmd.Flags().GetBool("preview")

	tbl, err := table.Read(input)
	if err != nil {
		return err
	}
	if preview {
		printPreview(tbl)
		return nil
	}

	m := cmdcore.InitMetrics(conf)
	defer cmdcore.FlushMetrics(ctx, conf, m)
	p, err := cmdcore.NewPipeline(conf, m, concurrency)
	if err != nil {
		return err
	}
	err = fetchTable(ctx, conf, p, tbl, input, column, out)
	if errors.Is(err, pipeline.ErrNoURLs) {
		logger.Warnf(ctx, "%v in %s", err, input)
		return nil
	}
	return err
}

// selectURLs resolves the URL column (guessed when empty) and returns its
// unique non-empty values. A column without any URL yields ErrNoURLs.
func selectURLs(tbl *table.Table, column string) (string, []string, error) {
	var err error
	if column == "" {
		if column, err = tbl.GuessURLColumn(); err != nil {
			return "", nil, err
		}
	}
	values, err := tbl.Column(column)
	if err != nil {
		return "", nil, err
	}
	urls := table.UniqueNonEmpty(values)
	if len(urls) == 0 {
		return column, nil, fmt.Errorf("%w in column %q", pipeline.ErrNoURLs, column)
	}
	return column, urls, nil
}

// fetchTable runs p over the URLs of tbl and writes the archive to out.
// Nothing is fetched or written when the column holds no URL.
func fetchTable(ctx context.Context, conf *config.Config, p *pipeline.Pipeline, tbl *table.Table, input, column, out string) error {
	logger := log.WithFunc("cmd.fetch")
	column, urls, err := selectURLs(tbl, column)
	if err != nil {
		return err
	}
	logger.Infof(ctx, "%d unique URLs in column %q", len(urls), column)

	run := history.NewRun(types.RunKindFetch, input)
	run.Total = len(urls)
	status := cmdcore.NewStatusLine()
	tracker := progress.NewTracker(func(e fetchProgress.Event) {
		switch e.Phase {
		case fetchProgress.PhaseStart:
			logger.Infof(ctx, "downloading %d images", e.Total)
		case fetchProgress.PhaseItem:
			status.Update(e.Status)
		}
	})

	report, runErr := p.Run(ctx, urls, tracker)
	status.Done()
	run.Succeeded = report.Succeeded()
	run.Failed = len(report.Failures)
	run.Bytes = report.Archive.Size()

	if runErr != nil {
		cmdcore.RecordRun(ctx, conf, run)
		return runErr
	}

	abs, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", out, err)
	}
	if err := utils.EnsureDirs(filepath.Dir(abs)); err != nil {
		return err
	}
	if err := report.Archive.WriteFile(abs); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	run.Output = abs
	cmdcore.RecordRun(ctx, conf, run)

	logger.Infof(ctx, "wrote %s: %d/%d images, %s", abs, run.Succeeded, run.Total, cmdcore.FormatSize(run.Bytes))
	if run.Failed > 0 {
		logger.Warnf(ctx, "%d URL(s) failed", run.Failed)
	}
	return nil
}

func printPreview(tbl *table.Table) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(tbl.Columns, "\t"))
	for _, row := range tbl.Preview(previewRows) {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush() //nolint:errcheck,gosec
	fmt.Printf("(%d rows)\n", len(tbl.Rows))
}
