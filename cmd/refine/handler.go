package refine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"

	cmdcore "github.com/batchkit/batchkit/cmd/core"
	"github.com/batchkit/batchkit/history"
	"github.com/batchkit/batchkit/progress"
	refineProgress "github.com/batchkit/batchkit/progress/refine"
	refiner "github.com/batchkit/batchkit/refine"
	"github.com/batchkit/batchkit/types"
)

type Handler struct {
	cmdcore.BaseHandler
}

func (h Handler) Refine(cmd *cobra.Command, _ []string) error {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return err
	}
	logger := log.WithFunc("cmd.refine")
	rc := conf.Refine
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	promptFile, _ := cmd.Flags().GetString("prompt")
	override(cmd, "model", &rc.Model)
	override(cmd, "id-field", &rc.IDField)
	override(cmd, "text-field", &rc.TextField)
	if n, _ := cmd.Flags().GetInt("concurrency"); n > 0 {
		rc.Concurrency = n
	}
	if promptFile == "" {
		promptFile = rc.PromptFile
	}
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + "_refined.json"
	}

	segments, err := refiner.ReadSegments(input)
	if err != nil {
		return err
	}
	prompt, err := refiner.LoadPrompt(promptFile)
	if err != nil {
		return err
	}
	model, err := refiner.NewGenAIModel(ctx, rc.APIKey, rc.Model)
	if err != nil {
		return err
	}

	m := cmdcore.InitMetrics(conf)
	defer cmdcore.FlushMetrics(ctx, conf, m)
	r, err := refiner.New(model, refiner.Options{
		IDField:     rc.IDField,
		TextField:   rc.TextField,
		Concurrency: rc.Concurrency,
		Prompt:      prompt,
		Metrics:     m,
	})
	if err != nil {
		return err
	}

	run := history.NewRun(types.RunKindRefine, input)
	run.Total = len(segments)
	status := cmdcore.NewStatusLine()
	tracker := progress.NewTracker(func(e refineProgress.Event) {
		switch e.Phase {
		case refineProgress.PhaseStart:
			logger.Infof(ctx, "refining %d segments with %s", e.Total, model.Name())
		case refineProgress.PhaseSegment:
			status.Update(e.Status)
			if e.Err != nil {
				run.Failed++
			}
		}
	})

	records, runErr := r.Run(ctx, segments, tracker)
	status.Done()
	run.Succeeded = len(records) - run.Failed
	if runErr != nil {
		cmdcore.RecordRun(ctx, conf, run)
		return runErr
	}

	abs, err := filepath.Abs(output)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", output, err)
	}
	if err := refiner.WriteResults(abs, records); err != nil {
		return err
	}
	if info, err := os.Stat(abs); err == nil {
		run.Bytes = info.Size()
	}
	run.Output = abs
	cmdcore.RecordRun(ctx, conf, run)
	logger.Infof(ctx, "refined JSON written: %s (%d ok, %d failed)", abs, run.Succeeded, run.Failed)
	return nil
}

func override(cmd *cobra.Command, flag string, dst *string) {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		*dst = v
	}
}
