package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          `flightsim`,
		Short:        `Simulated flight controller`,
		Long:         `Runs the rate scheduled flight control tasks of a simulated flying wing, fed by a simulated IMU, barometer, and SBUS receiver.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(newRunCmd(), newConfigCmd())
	return cmd
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   `config`,
		Short: `Print the default profile, as YAML`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := defaultProfile()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
}
