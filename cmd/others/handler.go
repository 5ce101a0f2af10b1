package others

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"

	cmdcore "github.com/batchkit/batchkit/cmd/core"
	"github.com/batchkit/batchkit/gc"
	"github.com/batchkit/batchkit/utils"
	"github.com/batchkit/batchkit/version"
)

type Handler struct {
	cmdcore.BaseHandler
}

func (h Handler) History(cmd *cobra.Command, _ []string) error {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return err
	}
	kind, _ := cmd.Flags().GetString("kind")
	hist, err := cmdcore.InitHistory(conf)
	if err != nil {
		return err
	}
	runs, err := hist.List(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tKIND\tSTARTED\tDURATION\tOK/TOTAL\tSIZE\tOUTPUT")
	shown := 0
	for _, r := range runs {
		if kind != "" && string(r.Kind) != kind {
			continue
		}
		shown++
		id := r.ID
		if len(id) > 13 { //nolint:mnd
			id = id[:13]
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			id,
			r.Kind,
			r.StartedAt.Local().Format(time.DateTime),
			r.Duration().Round(time.Millisecond),
			r.Succeeded, r.Total,
			cmdcore.FormatSize(r.Bytes),
			r.Output,
		)
	}
	if shown == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}
	w.Flush() //nolint:errcheck,gosec
	return nil
}

func (h Handler) HistoryShow(cmd *cobra.Command, args []string) error {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return err
	}
	hist, err := cmdcore.InitHistory(conf)
	if err != nil {
		return err
	}
	run, err := hist.Lookup(ctx, args[0])
	if err != nil {
		return err
	}
	data, err := utils.MarshalJSON(run)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func (h Handler) HistoryDelete(cmd *cobra.Command, args []string) error {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return err
	}
	logger := log.WithFunc("cmd.history.delete")
	hist, err := cmdcore.InitHistory(conf)
	if err != nil {
		return err
	}
	deleted, err := hist.Delete(ctx, args)
	if err != nil {
		return err
	}
	for _, id := range deleted {
		logger.Infof(ctx, "deleted: %s", id)
	}
	return nil
}

func (h Handler) GC(cmd *cobra.Command, _ []string) error {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return err
	}
	hist, err := cmdcore.InitHistory(conf)
	if err != nil {
		return err
	}

	o := gc.New()
	hist.RegisterGC(o)
	if err := o.Run(ctx); err != nil {
		return err
	}
	log.WithFunc("cmd.gc").Info(ctx, "GC completed")
	return nil
}

func (h Handler) Version(_ *cobra.Command, _ []string) error {
	fmt.Print(version.String())
	return nil
}

