package cmd

import "github.com/spf13/cobra"

func newSimulateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "simulate",
		Short: "Time the partition given with --partition.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := a.cfg.ValidateForSimulate(); err != nil {
				return err
			}

			s, err := a.build()
			if err != nil {
				return err
			}
			defer a.terminate(s)

			_, err = s.RunSimulate()

			return err
		},
	}
}
