package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backline-audio/engine/internal/conf"
	"github.com/backline-audio/engine/internal/outputdriver"
)

func devicesCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available audio output devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := outputdriver.EnumerateDevices()
			if err != nil {
				return err
			}
			for _, d := range devices {
				marker := " "
				if d.IsDefault {
					marker = "*"
				}
				fmt.Printf("%s %s\n", marker, d.Name)
			}
			return nil
		},
	}
}
