// Package export writes assembled curves to files: legacy VTK for renderers,
// GeoJSON for GIS tools, gob for reloading raw curves and CSV for scalar traces.
package export

import (
	"fmt"
	"io"

	"github.com/maseology/mmio"
)

// SaveFile creates path and streams write into it.
func SaveFile(path string, write func(io.Writer) error) error {
	txtw, err := mmio.NewTXTwriter(path)
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	defer txtw.Close()
	if err := write(txtw.Writer); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	return txtw.Writer.Flush()
}
