package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backline-audio/engine/internal/conf"
	"github.com/backline-audio/engine/internal/datastore"
)

func migrateCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending metadata store migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := datastore.Open(settings.Store.Path, settings.Debug)
			if err != nil {
				return fmt.Errorf("opening metadata store: %w", err)
			}
			defer func() { _ = store.Close() }()

			fmt.Println("metadata store up to date:", settings.Store.Path)
			return nil
		},
	}
}
