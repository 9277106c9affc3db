package cmd

import "github.com/spf13/cobra"

func newGreedyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "greedy",
		Short: "Place every layer on the device that finishes it first.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			s, err := a.build()
			if err != nil {
				return err
			}
			defer a.terminate(s)

			s.RunGreedy()

			return nil
		},
	}
}
