// Package export writes interpreted profiles as CSV tables, SVG drawings and
// KML overlays.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/secinterp/secinterp/internal/services"
)

// CSV tables written by WriteCSV
const (
	TableTopography = "topography"
	TableTraces     = "traces"
	TableIntervals  = "intervals"
	TableStructures = "structures"
	TableWarnings   = "warnings"
)

// WriteCSV writes one CSV file per table into dir and returns their paths
func WriteCSV(dir string, p *services.Profile) ([]string, error) {
	writers := []struct {
		table string
		write func(io.Writer, *services.Profile) error
	}{
		{TableTopography, WriteTopographyCSV},
		{TableTraces, WriteTracesCSV},
		{TableIntervals, WriteIntervalsCSV},
		{TableStructures, WriteStructuresCSV},
		{TableWarnings, WriteWarningsCSV},
	}

	var paths []string
	for _, w := range writers {
		path := filepath.Join(dir, FileName(p.Name, w.table, "csv"))
		if err := writeFile(path, func(f io.Writer) error { return w.write(f, p) }); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteTopographyCSV writes distance,elevation rows
func WriteTopographyCSV(w io.Writer, p *services.Profile) error {
	rows := [][]string{{"distance", "elevation"}}
	for _, pt := range p.Topography {
		rows = append(rows, []string{formatFloat(pt.Distance), formatFloat(pt.Elevation)})
	}
	return writeRows(w, rows)
}

// WriteTracesCSV writes every hole trace vertex with its depth
func WriteTracesCSV(w io.Writer, p *services.Profile) error {
	rows := [][]string{{"hole_id", "classification", "depth", "distance", "elevation", "x", "y", "z"}}
	for _, h := range p.Holes {
		for i, pt := range h.Trace {
			t := h.Trajectory[i]
			rows = append(rows, []string{
				h.HoleID, string(h.Classification), formatFloat(t.Depth),
				formatFloat(pt.Distance), formatFloat(pt.Elevation),
				formatFloat(t.X), formatFloat(t.Y), formatFloat(t.Z),
			})
		}
	}
	return writeRows(w, rows)
}

// WriteIntervalsCSV writes one row per interval polyline vertex
func WriteIntervalsCSV(w io.Writer, p *services.Profile) error {
	rows := [][]string{{"hole_id", "label", "from", "to", "vertex", "distance", "elevation"}}
	for _, h := range p.Holes {
		for _, iv := range h.Intervals {
			for i, pt := range iv.Points {
				rows = append(rows, []string{
					iv.HoleID, iv.Label, formatFloat(iv.From), formatFloat(iv.To),
					strconv.Itoa(i), formatFloat(pt.Distance), formatFloat(pt.Elevation),
				})
			}
		}
	}
	return writeRows(w, rows)
}

// WriteStructuresCSV writes projected structural measurements
func WriteStructuresCSV(w io.Writer, p *services.Profile) error {
	rows := [][]string{{"id", "distance", "offset", "elevation", "apparent_dip", "true_dip"}}
	for _, s := range p.Structures {
		rows = append(rows, []string{
			s.ID, formatFloat(s.Distance), formatFloat(s.Offset), formatFloat(s.Elevation),
			formatFloat(s.ApparentDip), formatFloat(s.TrueDip),
		})
	}
	return writeRows(w, rows)
}

// WriteWarningsCSV writes the profile warnings
func WriteWarningsCSV(w io.Writer, p *services.Profile) error {
	rows := [][]string{{"subject", "code", "message"}}
	for _, warning := range p.Warnings {
		rows = append(rows, []string{warning.Subject, string(warning.Code), warning.Message})
	}
	return writeRows(w, rows)
}

func writeRows(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName builds "<profile>_<table>.<ext>" with a filesystem-safe profile name
func FileName(profile, table, ext string) string {
	name := strings.Trim(unsafeName.ReplaceAllString(profile, "_"), "_")
	if name == "" {
		name = "section"
	}
	if table == "" {
		return name + "." + ext
	}
	return name + "_" + table + "." + ext
}

// writeFile creates path and removes it again if writing fails
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
