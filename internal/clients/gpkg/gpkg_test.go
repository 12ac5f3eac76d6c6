package gpkg

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secinterp/secinterp/internal/lib/records"
)

const (
	wkbPoint      = 1
	wkbMultiPoint = 4
)

// envelope sizes in bytes by the header's envelope indicator
var envelopeSizes = map[byte]int{0: 0, 1: 32, 2: 48, 3: 48, 4: 64}

// gpBlob builds a GeoPackage geometry blob around an ISO WKB body
func gpBlob(order binary.ByteOrder, envelope byte, wkbType uint32, coords ...float64) []byte {
	var buf bytes.Buffer
	buf.WriteString("GP")
	buf.WriteByte(0)
	flags := envelope << 1
	if order == binary.LittleEndian {
		flags |= 1
	}
	buf.WriteByte(flags)
	binary.Write(&buf, order, int32(32611))
	buf.Write(make([]byte, envelopeSizes[envelope]))

	if order == binary.LittleEndian {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	binary.Write(&buf, order, wkbType)
	for _, c := range coords {
		binary.Write(&buf, order, c)
	}
	return buf.Bytes()
}

func TestParseGeometry(t *testing.T) {
	p, ok, err := ParseGeometry(gpBlob(binary.LittleEndian, 0, 1, 500100, 4200200))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, records.PointGeometry{X: 500100, Y: 4200200}, p)

	p, ok, err = ParseGeometry(gpBlob(binary.BigEndian, 1, 1001, 1, 2, 350))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, records.PointGeometry{X: 1, Y: 2, Z: 350, HasZ: true}, p)

	p, ok, err = ParseGeometry(gpBlob(binary.LittleEndian, 4, 3001, 3, 4, 5, 99))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, records.PointGeometry{X: 3, Y: 4, Z: 5, HasZ: true}, p)

	p, ok, err = ParseGeometry(gpBlob(binary.LittleEndian, 0, 2001, 7, 8, 1))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, p.HasZ)
}

func TestParseGeometry_MultiPoint(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(gpBlob(binary.LittleEndian, 0, wkbMultiPoint)[:13])
	binary.Write(&buf, binary.LittleEndian, uint32(1))
	buf.WriteByte(1)
	binary.Write(&buf, binary.LittleEndian, uint32(wkbPoint))
	binary.Write(&buf, binary.LittleEndian, 10.0)
	binary.Write(&buf, binary.LittleEndian, 20.0)

	p, ok, err := ParseGeometry(buf.Bytes())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, records.PointGeometry{X: 10, Y: 20}, p)
}

func TestParseGeometry_Empty(t *testing.T) {
	blob := gpBlob(binary.LittleEndian, 0, 1, math.NaN(), math.NaN())
	_, ok, err := ParseGeometry(blob)
	require.NoError(t, err)
	assert.False(t, ok)

	blob[3] |= 0x10
	_, ok, err = ParseGeometry(blob)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseGeometry_Errors(t *testing.T) {
	_, _, err := ParseGeometry([]byte("not a blob"))
	assert.ErrorIs(t, err, ErrNotGeoPackageGeometry)

	_, _, err = ParseGeometry(gpBlob(binary.LittleEndian, 0, 2, 0, 0, 1, 1))
	assert.ErrorIs(t, err, ErrUnsupportedGeometry)

	blob := gpBlob(binary.LittleEndian, 0, 1, 1, 2)
	_, _, err = ParseGeometry(blob[:len(blob)-4])
	assert.Error(t, err)

	blob = gpBlob(binary.LittleEndian, 0, 1, 1, 2)
	blob[3] |= 5 << 1
	_, _, err = ParseGeometry(blob)
	assert.Error(t, err)
}

func createTestPackage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project.gpkg")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	stmts := []string{
		`CREATE TABLE gpkg_geometry_columns (table_name TEXT, column_name TEXT, geometry_type_name TEXT, srs_id INTEGER, z INTEGER, m INTEGER)`,
		`INSERT INTO gpkg_geometry_columns VALUES ('collars', 'geom', 'POINT', 32611, 1, 0)`,
		`CREATE TABLE collars (fid INTEGER PRIMARY KEY, geom BLOB, hole_id TEXT, eoh REAL)`,
		`CREATE TABLE surveys (hole_id TEXT, depth REAL, azimuth REAL, dip REAL)`,
		`INSERT INTO surveys VALUES ('DH1', 0, 90, -60), ('DH1', 50, 92, -58)`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}

	_, err = db.Exec(`INSERT INTO collars (geom, hole_id, eoh) VALUES (?, ?, ?), (?, ?, ?), (NULL, 'DH3', NULL)`,
		gpBlob(binary.LittleEndian, 0, 1001, 500000, 4200000, 1200), "DH1", 150.0,
		gpBlob(binary.LittleEndian, 0, 2, 0, 0, 1, 1), "DH2", 80.0,
	)
	require.NoError(t, err)
	return path
}

func TestSource_Layers(t *testing.T) {
	src, err := Open(createTestPackage(t))
	require.NoError(t, err)
	defer src.Close()

	layers, err := src.Layers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Layer{
		{Name: "collars", GeometryColumn: "geom", SRSID: 32611},
		{Name: "surveys"},
	}, layers)

	_, err = src.Layer(context.Background(), "assays")
	assert.ErrorIs(t, err, ErrUnknownLayer)
}

func TestSource_Features(t *testing.T) {
	src, err := Open(createTestPackage(t))
	require.NoError(t, err)
	defer src.Close()

	ctx := context.Background()
	features, err := src.Features(ctx, "Collars")
	require.NoError(t, err)
	require.Len(t, features, 3)

	p, ok := features[0].Point()
	require.True(t, ok)
	assert.Equal(t, records.PointGeometry{X: 500000, Y: 4200000, Z: 1200, HasZ: true}, p)
	id, _ := features[0].String("hole_id")
	assert.Equal(t, "DH1", id)
	eoh, ok := features[0].Float("eoh")
	assert.True(t, ok)
	assert.Equal(t, 150.0, eoh)

	_, ok = features[1].Point()
	assert.False(t, ok, "line geometry is dropped")
	_, ok = features[2].Point()
	assert.False(t, ok)
	_, ok = features[2].Float("eoh")
	assert.False(t, ok)

	surveys, err := src.Features(ctx, "surveys")
	require.NoError(t, err)
	assert.Len(t, surveys, 2)
	depth, _ := surveys[1].Float("depth")
	assert.Equal(t, 50.0, depth)
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.gpkg"))
	assert.Error(t, err)
}
