package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/maseology/icurve"
	"github.com/maseology/icurve/export"
	"github.com/spf13/cobra"
)

// advect runs one batch over the configured domain. A timed-out batch is
// returned with its finished curves and logged, not treated as a failure.
func advect(ctx context.Context, e *env) (*icurve.Batch, *icurve.Domain, error) {
	d, _, err := buildDomain(e.batch)
	if err != nil {
		return nil, nil, err
	}
	m, err := icurve.NewMetrics(e.reg)
	if err != nil {
		return nil, nil, err
	}
	a, err := icurve.NewAssembler(d, e.batch.AssemblerOptions(e.log, m))
	if err != nil {
		return nil, nil, err
	}
	seeds, err := e.batch.Seeds()
	if err != nil {
		return nil, nil, err
	}
	res, err := a.Run(ctx, seeds)
	var pe *icurve.PartialError
	if errors.As(err, &pe) {
		e.log.Warn("batch timed out", "run", res.RunID, "abandoned", pe.Abandoned)
		err = nil
	}
	return res, d, err
}

func newRunCmd(rf *rootFlags) *cobra.Command {
	var out, format, meshDir string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Advect the seeds and write the curves",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := rf.load()
			if err != nil {
				return err
			}
			res, _, err := advect(cmd.Context(), e)
			if err != nil {
				return err
			}
			if format == "" {
				format = strings.TrimPrefix(filepath.Ext(out), ".")
			}
			var write func(io.Writer) error
			switch format {
			case "vtk":
				pl := icurve.BuildPolylines(res.Curves, e.batch.OutputOptions())
				write = func(w io.Writer) error { return export.WritePolylinesVTK(w, pl) }
			case "geojson", "json":
				pl := icurve.BuildPolylines(res.Curves, e.batch.OutputOptions())
				write = func(w io.Writer) error { return export.WriteGeoJSON(w, pl) }
			case "gob":
				write = func(w io.Writer) error { return export.SaveCurvesGob(w, res.Curves) }
			default:
				return fmt.Errorf("unknown output format %q", format)
			}
			if err := export.SaveFile(out, write); err != nil {
				return err
			}
			e.log.Info("curves written", "path", out, "curves", len(res.Curves), "dropped", len(res.Dropped))
			if meshDir != "" {
				if err := writeMeshes(e, meshDir); err != nil {
					return err
				}
			}
			return rf.flushMetrics(e)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "curves.vtk", "output file")
	cmd.Flags().StringVar(&format, "format", "", "vtk, geojson or gob (default from the output extension)")
	cmd.Flags().StringVar(&meshDir, "mesh-dir", "", "also write each partition mesh as legacy VTK into this directory")
	return cmd
}

func writeMeshes(e *env, dir string) error {
	_, ms, err := buildDomain(e.batch)
	if err != nil {
		return err
	}
	for i, m := range ms {
		p := filepath.Join(dir, fmt.Sprintf("partition%03d.vtk", i))
		if err := export.SaveFile(p, func(w io.Writer) error { return export.WriteMeshVTK(w, m) }); err != nil {
			return err
		}
	}
	return nil
}
