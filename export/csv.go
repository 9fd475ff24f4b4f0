package export

import (
	"fmt"
	"path/filepath"

	"github.com/maseology/icurve"
	"github.com/maseology/mmio"
)

// SaveTraceCSV writes a scalar trace to path as two columns named after x and y.
func SaveTraceCSV(path string, x, y icurve.TraceKind, xy []icurve.XY) error {
	// NewCSVwriter exits on a create failure
	if !mmio.DirExists(filepath.Dir(path)) {
		return fmt.Errorf("export %s: directory does not exist", path)
	}
	csvw := mmio.NewCSVwriter(path)
	defer csvw.Close()
	if err := csvw.WriteHead(x.String() + "," + y.String()); err != nil {
		return err
	}
	for _, p := range xy {
		if err := csvw.WriteLine(p.X, p.Y); err != nil {
			return fmt.Errorf("export %s: %w", path, err)
		}
	}
	return nil
}
