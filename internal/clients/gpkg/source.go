// Package gpkg reads feature layers from GeoPackage and plain SQLite files.
package gpkg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/secinterp/secinterp/internal/lib/records"
)

// ErrUnknownLayer is returned when a layer is not a table in the file
var ErrUnknownLayer = errors.New("unknown layer")

// Layer describes a table and its geometry column, if any
type Layer struct {
	Name           string
	GeometryColumn string
	SRSID          int
}

// Source is a read-only feature source over a GeoPackage file
type Source struct {
	db   *sql.DB
	path string
}

// Open opens an existing GeoPackage or SQLite file read-only
func Open(path string) (*Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open GeoPackage: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open GeoPackage: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open GeoPackage %s: %w", path, err)
	}

	return &Source{db: db, path: path}, nil
}

// Close releases the underlying database
func (s *Source) Close() error {
	return s.db.Close()
}

// Path returns the file the source was opened from
func (s *Source) Path() string {
	return s.path
}

// Layers lists user tables with their registered geometry column
func (s *Source) Layers(ctx context.Context) ([]Layer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%' AND name NOT LIKE 'gpkg_%' AND name NOT LIKE 'rtree_%'`)
	if err != nil {
		return nil, fmt.Errorf("failed to list layers: %w", err)
	}
	defer rows.Close()

	var layers []Layer
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to list layers: %w", err)
		}
		layers = append(layers, Layer{Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list layers: %w", err)
	}

	geomColumns, err := s.geometryColumns(ctx)
	if err != nil {
		return nil, err
	}
	for i := range layers {
		if gc, ok := geomColumns[strings.ToLower(layers[i].Name)]; ok {
			layers[i].GeometryColumn = gc.GeometryColumn
			layers[i].SRSID = gc.SRSID
		}
	}

	sort.Slice(layers, func(i, j int) bool { return layers[i].Name < layers[j].Name })
	return layers, nil
}

// geometryColumns reads gpkg_geometry_columns, which plain SQLite files lack
func (s *Source) geometryColumns(ctx context.Context) (map[string]Layer, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'gpkg_geometry_columns'`).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to read geometry columns: %w", err)
	}
	if exists == 0 {
		return map[string]Layer{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT table_name, column_name, srs_id FROM gpkg_geometry_columns`)
	if err != nil {
		return nil, fmt.Errorf("failed to read geometry columns: %w", err)
	}
	defer rows.Close()

	columns := make(map[string]Layer)
	for rows.Next() {
		var l Layer
		if err := rows.Scan(&l.Name, &l.GeometryColumn, &l.SRSID); err != nil {
			return nil, fmt.Errorf("failed to read geometry columns: %w", err)
		}
		columns[strings.ToLower(l.Name)] = l
	}
	return columns, rows.Err()
}

// Layer looks up one layer by case-insensitive name
func (s *Source) Layer(ctx context.Context, name string) (Layer, error) {
	layers, err := s.Layers(ctx)
	if err != nil {
		return Layer{}, err
	}
	for _, l := range layers {
		if strings.EqualFold(l.Name, name) {
			return l, nil
		}
	}
	return Layer{}, fmt.Errorf("%w: %q in %s", ErrUnknownLayer, name, s.path)
}

// Features reads every row of a layer. The geometry column, when registered,
// becomes the record's point; rows with non-point geometry keep attributes only.
func (s *Source) Features(ctx context.Context, name string) ([]records.FeatureRecord, error) {
	layer, err := s.Layer(ctx, name)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(layer.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to read layer %s: %w", layer.Name, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read layer %s: %w", layer.Name, err)
	}

	var features []records.FeatureRecord
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to read layer %s: %w", layer.Name, err)
		}

		rec := records.NewMapRecord(make(map[string]interface{}, len(columns)))
		for i, col := range columns {
			if layer.GeometryColumn != "" && strings.EqualFold(col, layer.GeometryColumn) {
				if blob, ok := values[i].([]byte); ok {
					if p, ok, err := ParseGeometry(blob); err == nil && ok {
						rec.Geometry = &p
					}
				}
				continue
			}
			rec.Attributes[col] = values[i]
		}
		features = append(features, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read layer %s: %w", layer.Name, err)
	}

	return features, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
