package command

import (
	"errors"
	"fmt"
	"io"

	"leveltx-service/internal/application"

	"github.com/spf13/cobra"
)

func newDemoCommand(opts *rootOptions) *cobra.Command {
	var fail, legacy bool
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Insert \"meu\" and \"teu\" in one transaction",
		Long: `Insert the levels "meu" and "teu" as one unit of work.

With --fail a validation step between the two inserts rejects the batch
with "ERRO": "meu" is rolled back and "teu" is never written.
With --legacy-rollback the recovery rollback is sent on a freshly
acquired connection instead of the one that staged the writes; that
rollback is reported as failed and the staged writes are discarded when
the original connection closes.`,
		Example: `  leveltx demo
  leveltx demo --fail
  leveltx demo --fail --legacy-rollback --source properties`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var uowOpts []application.UoWOption
			if legacy {
				uowOpts = append(uowOpts, application.WithFreshConnRollback())
			}
			app, src, err := opts.open(uowOpts...)
			if err != nil {
				return err
			}
			defer app.Close()

			var validate application.Validation
			if fail {
				validate = application.Fail("ERRO")
			}
			err = app.Service.Demo(cmd.Context(), src, validate)
			report(cmd.OutOrStdout(), err)
			return err
		},
	}
	cmd.Flags().BoolVar(&fail, "fail", false, "reject the batch between the two inserts")
	cmd.Flags().BoolVar(&legacy, "legacy-rollback", false, "roll back on a fresh connection")
	return cmd
}

// report prints the outcome of a unit of work.
func report(w io.Writer, err error) {
	var txErr *application.TransactionError
	switch {
	case err == nil:
		fmt.Fprintln(w, "transaction committed")
	case errors.As(err, &txErr):
		fmt.Fprintf(w, "error during transaction: %v\n", txErr.Cause)
		if txErr.RolledBack() {
			fmt.Fprintln(w, "rollback executed")
		} else {
			fmt.Fprintf(w, "rollback failed: %v\n", txErr.Rollback.Err)
		}
	}
}
