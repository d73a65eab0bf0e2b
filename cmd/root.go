package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/adeneu/portfolio-web/config"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "portfolio-web",
	Short: "Portfolio and blog server",
	Long: `portfolio-web serves a bilingual blog, its feeds and sitemap, the
project catalogue and the contact form API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
		cfg, err = config.InitConfig(cfgPath)
		if err != nil {
			return fmt.Errorf("fail to load configuration: %w", err)
		}
		slog.SetLogLoggerLevel(cfg.LogLevel)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "path to the configuration file (in YAML format)")
}
