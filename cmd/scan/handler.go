package scan

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"

	cmdcore "github.com/batchkit/batchkit/cmd/core"
	"github.com/batchkit/batchkit/history"
	"github.com/batchkit/batchkit/progress"
	scanProgress "github.com/batchkit/batchkit/progress/scan"
	scanner "github.com/batchkit/batchkit/scan"
	"github.com/batchkit/batchkit/types"
	"github.com/batchkit/batchkit/utils"
)

type Handler struct {
	cmdcore.BaseHandler
}

func (h Handler) Scan(cmd *cobra.Command, args []string) error {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return err
	}
	logger := log.WithFunc("cmd.scan")
	outDir, _ := cmd.Flags().GetString("out-dir")
	noJSON, _ := cmd.Flags().GetBool("no-json")
	noExcel, _ := cmd.Flags().GetBool("no-excel")
	noWord, _ := cmd.Flags().GetBool("no-word")
	follow, _ := cmd.Flags().GetBool("follow-symlinks")

	root := args[0]
	if !utils.IsDir(root) {
		return fmt.Errorf("not a directory: %s", root)
	}

	m := cmdcore.InitMetrics(conf)
	defer cmdcore.FlushMetrics(ctx, conf, m)

	run := history.NewRun(types.RunKindScan, root)
	status := cmdcore.NewStatusLine()
	tracker := progress.NewTracker(func(e scanProgress.Event) {
		if e.Phase == scanProgress.PhaseDir {
			status.Update(fmt.Sprintf("%d folders, %d files", e.Dirs, e.Files))
		}
	})
	logger.Infof(ctx, "scanning %s", root)
	entries, err := scanner.Walk(ctx, root, scanner.Options{FollowSymlinks: follow, Metrics: m}, tracker)
	status.Done()
	run.Total = len(entries)
	run.Succeeded = len(entries)
	for _, e := range entries {
		run.Bytes += e.SizeBytes
	}
	if err != nil {
		cmdcore.RecordRun(ctx, conf, run)
		return err
	}

	outDir, err = filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", outDir, err)
	}
	if err := utils.EnsureDirs(outDir); err != nil {
		return err
	}
	base := filepath.Join(outDir, scanner.BaseName(root, time.Now()))

	if !noJSON {
		path := base + ".json"
		if err := scanner.ExportJSON(path, entries); err != nil {
			return err
		}
		run.Output = path
		logger.Infof(ctx, "JSON exported: %s", path)
	}
	if !noExcel {
		if path, err := exportTable(ctx, base, entries); err != nil {
			logger.Warnf(ctx, "%v", err)
		} else if run.Output == "" {
			run.Output = path
		}
	}
	if !noWord {
		path := base + ".docx"
		if err := scanner.ExportDOCX(path, entries); err != nil {
			logger.Warnf(ctx, "Word export failed: %v", err)
		} else {
			logger.Infof(ctx, "Word exported: %s", path)
			if run.Output == "" {
				run.Output = path
			}
		}
	}

	cmdcore.RecordRun(ctx, conf, run)
	logger.Infof(ctx, "scanned %d files (%s)", len(entries), cmdcore.FormatSize(run.Bytes))
	return nil
}
