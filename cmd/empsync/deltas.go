package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ogurasousui/employee-delta-sync/internal/core/delta"
)

func newDeltasCmd(configPath *string) *cobra.Command {
	var deltaType string

	cmd := &cobra.Command{
		Use:   "deltas <batch-id>",
		Short: "Show detected deltas for an ingest batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			batchID := args[0]

			summary, err := a.deltas.Summary(cmd.Context(), batchID)
			if err != nil {
				return err
			}
			cmd.Printf("batch %s: new=%d updated=%d deleted=%d total=%d\n",
				summary.BatchID, summary.New, summary.Updated, summary.Deleted, summary.Total())

			var deltas []*delta.Delta
			if deltaType != "" {
				t := delta.Type(deltaType)
				switch t {
				case delta.TypeNew, delta.TypeUpdated, delta.TypeDeleted:
				default:
					return fmt.Errorf("unknown delta type %q", deltaType)
				}
				deltas, err = a.deltas.DeltasForBatchByType(cmd.Context(), batchID, t)
			} else {
				deltas, err = a.deltas.DeltasForBatch(cmd.Context(), batchID)
			}
			if err != nil {
				return err
			}

			for _, d := range deltas {
				cmd.Printf("%-8s employee=%d %s\n", d.Type, d.EmployeeID, d.ChangeSummary)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&deltaType, "type", "", "filter by delta type (NEW, UPDATED, DELETED)")
	return cmd
}
