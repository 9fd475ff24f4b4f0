package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/maseology/icurve"
	"github.com/maseology/icurve/export"
	"github.com/maseology/mmio"
	"github.com/spf13/cobra"
)

func newRenderCmd(rf *rootFlags) *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Rebuild polylines from curves saved by run --format gob",
		RunE: func(*cobra.Command, []string) error {
			e, err := rf.load()
			if err != nil {
				return err
			}
			if _, ok := mmio.FileExists(in); !ok {
				return fmt.Errorf("no saved curves at %s", in)
			}
			f, err := os.Open(in)
			if err != nil {
				return err
			}
			defer f.Close()
			rs, err := export.LoadCurvesGob(f)
			if err != nil {
				return fmt.Errorf("%s: %w", in, err)
			}
			pl := icurve.BuildPolylines(export.Curves(rs), e.batch.OutputOptions())
			write := func(w io.Writer) error { return export.WritePolylinesVTK(w, pl) }
			if filepath.Ext(out) == ".geojson" || filepath.Ext(out) == ".json" {
				write = func(w io.Writer) error { return export.WriteGeoJSON(w, pl) }
			}
			if err := export.SaveFile(out, write); err != nil {
				return err
			}
			e.log.Info("polylines written", "path", out, "lines", len(pl.Lines), "points", pl.NumPoints())
			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "curves.gob", "saved curves")
	cmd.Flags().StringVarP(&out, "out", "o", "curves.vtk", "output file")
	return cmd
}
