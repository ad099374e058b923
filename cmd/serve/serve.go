// Package serve provides the serve command, which exposes the store over a
// read-only HTTP API.
package serve

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/zclstore/internal/api"
	"github.com/tphakala/zclstore/internal/app"
	"github.com/tphakala/zclstore/internal/buildinfo"
	"github.com/tphakala/zclstore/internal/conf"
	"github.com/tphakala/zclstore/internal/logger"
)

// Command creates and returns the serve command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the query API over HTTP",
		Long: `Serve starts the read-only query API. It runs until interrupted and then
drains in-flight requests before exiting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			version := buildinfo.Current().GetVersion()

			a, err := app.Open(settings, version)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			config := api.ConfigFromSettings(settings)
			if err := config.Validate(); err != nil {
				return err
			}

			server, err := api.New(config, a.LivePackages, a.Queries,
				api.WithLogger(a.Logger(logger.ModuleAPI)),
				api.WithMetrics(a.Metrics),
				api.WithVersion(version),
			)
			if err != nil {
				return err
			}

			a.Log.Info("serving query API",
				logger.String("listen", config.Listen),
				logger.String("database", settings.Database.Type))
			return server.Start(cmd.Context())
		},
	}

	cmd.Flags().String("listen", "", "Listen address, host:port (default: api.listen)")
	_ = viper.BindPFlag("api.listen", cmd.Flags().Lookup("listen"))

	return cmd
}
