package command

import (
	"fmt"

	"leveltx-service/internal/infrastructure/logx"
	"leveltx-service/internal/infrastructure/migrations"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema migrations",
		Long: `Apply the embedded schema migrations to the selected data source.
PostgreSQL and MySQL each have their own migration set; the one matching
the source driver is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := opts.config().Source(opts.source)
			if err != nil {
				return err
			}
			if err := migrations.Up(cmd.Context(), src); err != nil {
				return err
			}
			logx.L().Info("migrations applied", zap.String("source", src.Name), zap.String("dir", migrations.Dir(src.Driver)))
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
