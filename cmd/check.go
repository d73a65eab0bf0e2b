package cmd

import (
	"fmt"
	"log/slog"

	"github.com/adeneu/portfolio-web/internal/router"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate every blog document of the content source",
	RunE: func(cmd *cobra.Command, args []string) error {
		repository, err := router.NewBlogRepository(cmd.Context(), cfg, slog.Default())
		if err != nil {
			return err
		}

		failures, err := repository.Check(cmd.Context())
		if err != nil {
			return err
		}
		for _, failure := range failures {
			fmt.Fprintln(cmd.ErrOrStderr(), failure.Error())
		}
		if len(failures) > 0 {
			return fmt.Errorf("%d invalid document(s)", len(failures))
		}

		groups, err := repository.LoadAllGroups(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d post(s) ok\n", groups.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
