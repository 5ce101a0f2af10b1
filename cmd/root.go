package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdcore "github.com/batchkit/batchkit/cmd/core"
	cmdfetch "github.com/batchkit/batchkit/cmd/fetch"
	cmdothers "github.com/batchkit/batchkit/cmd/others"
	cmdrefine "github.com/batchkit/batchkit/cmd/refine"
	cmdscan "github.com/batchkit/batchkit/cmd/scan"
	"github.com/batchkit/batchkit/config"
)

var (
	cfgFile string
	conf    *config.Config
)

// envKeys are the settings that can come from BATCHKIT_* variables,
// e.g. BATCHKIT_REFINE_API_KEY for refine.api_key.
var envKeys = []string{
	"root_dir", "metrics_file",
	"fetch.timeout", "fetch.item_delay", "fetch.max_item_size", "fetch.concurrency", "fetch.user_agent",
	"refine.api_key", "refine.model", "refine.id_field", "refine.text_field", "refine.concurrency", "refine.prompt_file",
	"log.level", "log.filename",
}

var rootCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "batchkit",
		Short:         "batchkit - batch fetch, scan and refine tools",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmdcore.CommandContext(cmd))
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	cmd.PersistentFlags().String("root-dir", "", "root data directory (run index)")
	cmd.PersistentFlags().String("metrics-file", "", "write a Prometheus text snapshot here after each run")
	cmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("root_dir", cmd.PersistentFlags().Lookup("root-dir"))
	_ = viper.BindPFlag("metrics_file", cmd.PersistentFlags().Lookup("metrics-file"))
	_ = viper.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))

	viper.SetEnvPrefix("BATCHKIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, k := range envKeys {
		_ = viper.BindEnv(k)
	}

	base := cmdcore.BaseHandler{ConfProvider: func() *config.Config { return conf }}

	for _, c := range cmdfetch.Commands(cmdfetch.Handler{BaseHandler: base}) {
		cmd.AddCommand(c)
	}
	for _, c := range cmdscan.Commands(cmdscan.Handler{BaseHandler: base}) {
		cmd.AddCommand(c)
	}
	for _, c := range cmdrefine.Commands(cmdrefine.Handler{BaseHandler: base}) {
		cmd.AddCommand(c)
	}
	for _, c := range cmdothers.Commands(cmdothers.Handler{BaseHandler: base}) {
		cmd.AddCommand(c)
	}

	return cmd
}()

func initConfig(ctx context.Context) error {
	conf = config.DefaultConfig()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	if err := viper.Unmarshal(conf); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return err
	}

	return log.SetupLog(ctx, &conf.Log, "")
}

// Execute is the main entry point called from main.go.
func Execute() error {
	ctx, cancel := newCommandContext()
	defer cancel()
	return rootCmd.ExecuteContext(ctx)
}
