// Package command holds the leveltx cobra commands.
//
//	leveltx demo [--fail] [--legacy-rollback]
//	leveltx insert NAME...
//	leveltx update ID NAME
//	leveltx delete ID
//	leveltx list
//	leveltx migrate
//	leveltx serve
//
// Every command accepts --source to pick a named data source and
// --properties to point the "properties" source at another file.
package command

import (
	"leveltx-service/internal/application"
	"leveltx-service/internal/bootstrap"
	"leveltx-service/internal/config"

	"github.com/spf13/cobra"
)

// Builder assembles the application for one command invocation.
type Builder func(cfg config.Config, uowOpts ...application.UoWOption) (*bootstrap.App, error)

type rootOptions struct {
	source     string
	properties string
	build      Builder
}

func NewRootCommand() *cobra.Command { return newRootCommand(bootstrap.Build) }

func newRootCommand(build Builder) *cobra.Command {
	opts := &rootOptions{build: build}
	cmd := &cobra.Command{
		Use:   "leveltx",
		Short: "Transactional level writes over several database drivers",
		Long: `leveltx runs batches of level writes as one unit of work: every write
commits together or none of them does.

Data sources are chosen by name:
  properties  a db.properties file (dburl, user, password, driver)
  env         DATABASE_URL and DB_DRIVER
  alt         DATABASE_URL with ALT_DB_USER / ALT_DB_PASSWORD`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.source, "source", "", "data source name (properties, env, alt); defaults to DB_SOURCE")
	cmd.PersistentFlags().StringVar(&opts.properties, "properties", "", "path of the db.properties file; defaults to DB_PROPERTIES")

	cmd.AddCommand(
		newDemoCommand(opts),
		newInsertCommand(opts),
		newUpdateCommand(opts),
		newDeleteCommand(opts),
		newListCommand(opts),
		newMigrateCommand(opts),
		newServeCommand(opts),
	)
	return cmd
}

func (o *rootOptions) config() config.Config {
	cfg := config.Load()
	if o.properties != "" {
		cfg.PropertiesPath = o.properties
	}
	return cfg
}

// open builds the app and resolves the selected source.
func (o *rootOptions) open(uowOpts ...application.UoWOption) (*bootstrap.App, config.DataSource, error) {
	app, err := o.build(o.config(), uowOpts...)
	if err != nil {
		return nil, config.DataSource{}, err
	}
	src, err := app.Source(o.source)
	if err != nil {
		app.Close()
		return nil, config.DataSource{}, err
	}
	return app, src, nil
}
