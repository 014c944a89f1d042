package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backline-audio/engine/internal/conf"
	"github.com/backline-audio/engine/internal/datastore"
	"github.com/backline-audio/engine/internal/importpipeline"
)

func importCommand(settings *conf.Settings) *cobra.Command {
	var title, artist, key, timeSignature string

	cmd := &cobra.Command{
		Use:   "import [stem files...]",
		Short: "Import one or more stem files as a new song",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := datastore.Open(settings.Store.Path, settings.Debug)
			if err != nil {
				return fmt.Errorf("opening metadata store: %w", err)
			}
			defer func() { _ = store.Close() }()

			pipeline := importpipeline.New(store, nil)
			songID, err := pipeline.Import(args, title, artist, key, timeSignature)
			if err != nil {
				return err
			}
			fmt.Println("imported song:", songID)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Song title (required unless supplied by a manifest.json sidecar)")
	cmd.Flags().StringVar(&artist, "artist", "", "Artist name")
	cmd.Flags().StringVar(&key, "key", "", "Musical key")
	cmd.Flags().StringVar(&timeSignature, "time-signature", "", "Time signature, e.g. 4/4")

	return cmd
}
