package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/backline-audio/engine/internal/conf"
)

// RootCommand assembles the backline CLI: serve (the long-running Control
// Plane), plus the one-shot maintenance subcommands grounded on the same
// persistent-flags/viper pattern the teacher's own root command uses.
func RootCommand(settings *conf.Settings) *cobra.Command {
	root := &cobra.Command{
		Use:   "backline",
		Short: "Backline Engine — backing-track playback for worship teams and live musicians",
	}

	if err := setupFlags(root, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
	}

	root.AddCommand(
		serveCommand(settings),
		devicesCommand(settings),
		migrateCommand(settings),
		importCommand(settings),
		versionCommand(settings),
	)

	return root
}

func setupFlags(root *cobra.Command, settings *conf.Settings) error {
	root.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug logging")
	root.PersistentFlags().StringVar(&settings.Store.Path, "store", viper.GetString("store.path"), "Path to the SQLite metadata database")
	root.PersistentFlags().StringVar(&settings.HTTP.ListenAddress, "listen", viper.GetString("http.listenaddress"), "Control Plane HTTP listen address")

	return viper.BindPFlags(root.PersistentFlags())
}
