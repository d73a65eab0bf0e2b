package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/adeneu/portfolio-web/internal/feed"
	"github.com/adeneu/portfolio-web/internal/router"
	"github.com/adeneu/portfolio-web/locale"
	"github.com/spf13/cobra"
)

var (
	feedLang   string
	feedFormat string
	feedOutput string
)

var feedsCmd = &cobra.Command{
	Use:   "feeds",
	Short: "Write a feed document without starting the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, ok := feed.FormatByName(feedFormat)
		if !ok {
			return fmt.Errorf("unknown feed format '%s'", feedFormat)
		}

		localization, err := locale.InitAll(cfg.LocalePath, cfg.AvailableLanguages)
		if err != nil {
			return err
		}
		l, ok := localization[feedLang]
		if !ok {
			return fmt.Errorf("'%s' is not an available language", feedLang)
		}

		repository, err := router.NewBlogRepository(cmd.Context(), cfg, slog.Default())
		if err != nil {
			return err
		}

		meta := feed.Metadata{
			Title:       l.Feed.Title,
			Description: l.Feed.Description,
			Author:      cfg.Site.Author,
			Language:    feedLang,
		}.Addresses(cfg.BaseURL, format)

		out, err := feed.NewGenerator(repository).Generate(cmd.Context(), format, meta)
		if err != nil {
			return err
		}

		if feedOutput == "" {
			_, err = cmd.OutOrStdout().Write(out)
			return err
		}
		if err := os.WriteFile(feedOutput, out, 0o644); err != nil {
			return fmt.Errorf("fail to write feed: %w", err)
		}
		return nil
	},
}

func init() {
	feedsCmd.Flags().StringVarP(&feedLang, "lang", "l", "en", "language of the feed")
	feedsCmd.Flags().StringVarP(&feedFormat, "format", "f", "rss", "feed format: rss, atom or json")
	feedsCmd.Flags().StringVarP(&feedOutput, "output", "o", "", "file to write (default is stdout)")
	rootCmd.AddCommand(feedsCmd)
}
