package cmd

import "github.com/spf13/cobra"

func newSearchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search",
		Short: "Try every partition and report the fastest.",
		Long: `Try every partition and report the fastest. The number of ` +
			`partitions grows as devices^layers, so only small graphs finish ` +
			`in reasonable time. Interrupting the search discards its results.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.build()
			if err != nil {
				return err
			}
			defer a.terminate(s)

			_, err = s.RunSearch(cmd.Context())

			return err
		},
	}
}
