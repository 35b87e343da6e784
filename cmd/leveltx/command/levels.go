package command

import (
	"fmt"
	"strconv"

	"leveltx-service/internal/application"

	"github.com/spf13/cobra"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid level id %q", s)
	}
	return id, nil
}

// apply runs ops as a single unit of work on the selected source.
func apply(cmd *cobra.Command, opts *rootOptions, build func(repo application.LevelRepo) []application.Operation) error {
	app, src, err := opts.open()
	if err != nil {
		return err
	}
	defer app.Close()
	err = app.Service.Apply(cmd.Context(), src, nil, build(app.Service.Repo())...)
	report(cmd.OutOrStdout(), err)
	return err
}

func newInsertCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "insert NAME...",
		Short:   "Insert one or more levels in one transaction",
		Example: `  leveltx insert beginner intermediate advanced`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return apply(cmd, opts, func(repo application.LevelRepo) []application.Operation {
				ops := make([]application.Operation, 0, len(args))
				for _, name := range args {
					ops = append(ops, application.InsertLevel(repo, name))
				}
				return ops
			})
		},
	}
}

func newUpdateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update ID NAME",
		Short: "Rename a level",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return apply(cmd, opts, func(repo application.LevelRepo) []application.Operation {
				return []application.Operation{application.UpdateLevel(repo, id, args[1])}
			})
		},
	}
}

func newDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return apply(cmd, opts, func(repo application.LevelRepo) []application.Operation {
				return []application.Operation{application.DeleteLevel(repo, id)}
			})
		},
	}
}

func newListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all levels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, src, err := opts.open()
			if err != nil {
				return err
			}
			defer app.Close()
			levels, err := app.Service.List(cmd.Context(), src)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, l := range levels {
				fmt.Fprintf(out, "%d\t%s\n", l.ID, l.Name)
			}
			return nil
		},
	}
}
