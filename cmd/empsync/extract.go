package main

import (
	"github.com/spf13/cobra"
)

func newExtractCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Write employees awaiting extraction to a CSV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.extract.ExtractToDirectory(cmd.Context())
			if err != nil {
				return err
			}
			if result.Count == 0 {
				cmd.Println("no employees ready for extract")
				return nil
			}
			cmd.Printf("extracted %d employee(s) to %s\n", result.Count, result.OutputFile)
			return nil
		},
	}
}
