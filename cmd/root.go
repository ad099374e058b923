package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/zclstore/cmd/configcmd"
	"github.com/tphakala/zclstore/cmd/load"
	"github.com/tphakala/zclstore/cmd/packages"
	"github.com/tphakala/zclstore/cmd/query"
	"github.com/tphakala/zclstore/cmd/serve"
	"github.com/tphakala/zclstore/internal/buildinfo"
	"github.com/tphakala/zclstore/internal/conf"
)

// skipSettings marks commands that run without loading the configuration.
const skipSettings = "skip-settings"

// RootCommand creates and returns the root command. settings is filled from
// the config file, environment and flags before any sub-command runs.
func RootCommand(settings *conf.Settings) *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:          "zclstore",
		Short:        "ZCL metadata ingestion and query tool",
		Version:      buildinfo.Current().GetVersion(),
		SilenceUsage: true,
	}

	if err := setupFlags(rootCmd, &configFile); err != nil {
		fmt.Fprintf(os.Stderr, "error setting up flags: %v\n", err)
		os.Exit(1)
	}

	configCmd := configcmd.Command()
	configCmd.Annotations = map[string]string{skipSettings: "true"}

	subcommands := []*cobra.Command{
		load.Command(settings),
		packages.Command(settings),
		query.Command(settings),
		serve.Command(settings),
		configCmd,
	}

	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if skipsSettings(cmd) {
			return nil
		}
		return initialize(settings, configFile)
	}

	return rootCmd
}

// skipsSettings reports whether cmd or one of its parents opted out of
// configuration loading.
func skipsSettings(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipSettings] == "true" {
			return true
		}
	}
	return false
}

// initialize loads the configuration into settings. Flag values bound to
// viper take precedence over the file and environment.
func initialize(settings *conf.Settings, configFile string) error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	}

	loaded, err := conf.Load()
	if err != nil {
		return err
	}
	*settings = *loaded
	return nil
}

// setupFlags defines flags that are global to the command line interface
// and binds them to their configuration keys.
func setupFlags(rootCmd *cobra.Command, configFile *string) error {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(configFile, "config", "", "Path to config.yaml (default: search ., ~/.config/zclstore, /etc/zclstore)")
	flags.BoolP("debug", "d", false, "Enable debug output")
	flags.String("db-type", conf.DatabaseSQLite, "Database backend: sqlite or mysql")
	flags.String("db-path", "", "SQLite database file")
	flags.String("log-level", "", "Console log level: trace, debug, info, warn, error")

	bindings := map[string]string{
		"debug":                 "debug",
		"database.type":         "db-type",
		"database.sqlite.path":  "db-path",
		"logging.console.level": "log-level",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}

	return nil
}
