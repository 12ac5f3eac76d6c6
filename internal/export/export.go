package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/secinterp/secinterp/internal/services"
)

// Options configure WriteAll
type Options struct {
	Dir     string
	Formats []string // csv, svg, kml
	SVG     SVGOptions
	Proj4   string // source CRS, required for kml
}

// WriteAll writes every requested format into opts.Dir and returns the
// written paths
func WriteAll(p *services.Profile, opts Options) ([]string, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export dir: %w", err)
	}

	var paths []string
	for _, format := range opts.Formats {
		switch strings.ToLower(format) {
		case "csv":
			written, err := WriteCSV(opts.Dir, p)
			paths = append(paths, written...)
			if err != nil {
				return paths, err
			}

		case "svg":
			path := filepath.Join(opts.Dir, FileName(p.Name, "", "svg"))
			if err := writeFile(path, func(w io.Writer) error { return WriteSVG(w, p, opts.SVG) }); err != nil {
				return paths, err
			}
			paths = append(paths, path)

		case "kml":
			transform, err := NewReprojector(opts.Proj4)
			if err != nil {
				return paths, err
			}
			path := filepath.Join(opts.Dir, FileName(p.Name, "", "kml"))
			if err := writeFile(path, func(w io.Writer) error { return WriteKML(w, p, transform) }); err != nil {
				return paths, err
			}
			paths = append(paths, path)

		default:
			return paths, fmt.Errorf("unknown export format %q", format)
		}
	}
	return paths, nil
}
