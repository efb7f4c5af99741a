package main

import (
	"github.com/spf13/cobra"
)

func newIngestCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest [file]",
		Short: "Ingest a CSV file, or sweep the configured ingest folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if len(args) == 1 {
				result, err := a.ingest.IngestFile(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				cmd.Printf("batch %s: total=%d new=%d updated=%d\n",
					result.BatchID, result.Total, result.New, result.Updated)
				return nil
			}

			sweep, err := a.ingest.SweepDirectory(cmd.Context())
			if err != nil {
				return err
			}
			for _, result := range sweep.Results {
				cmd.Printf("batch %s: total=%d new=%d updated=%d\n",
					result.BatchID, result.Total, result.New, result.Updated)
			}
			cmd.Printf("swept %d file(s), %d failed\n", sweep.Files, sweep.Failed)
			return nil
		},
	}
}
