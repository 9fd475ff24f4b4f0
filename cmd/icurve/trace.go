package main

import (
	"github.com/maseology/icurve"
	"github.com/maseology/icurve/export"
	"github.com/spf13/cobra"
)

func newTraceCmd(rf *rootFlags) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Advect a single seed and write one recorded quantity against another as CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := rf.load()
			if err != nil {
				return err
			}
			res, _, err := advect(cmd.Context(), e)
			if err != nil {
				return err
			}
			x, y := e.batch.TraceKinds()
			xy, err := icurve.ScalarTrace(res.Curves, e.batch.Policy().Attributes, x, y)
			if err != nil {
				return err
			}
			if err := export.SaveTraceCSV(out, x, y, xy); err != nil {
				return err
			}
			e.log.Info("trace written", "path", out, "x", x.String(), "y", y.String(), "samples", len(xy))
			return rf.flushMetrics(e)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "trace.csv", "output file")
	return cmd
}
