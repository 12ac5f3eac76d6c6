package cache

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"

	"github.com/secinterp/secinterp/internal/lib/geo"
)

// KeyInput is everything besides the line that changes a profile
type KeyInput struct {
	Source             string
	Layers             []string
	Fields             []string
	BufferWidth        float64
	SampleInterval     float64
	OnSectionTolerance float64
	DEMPath            string
	DEMBand            int
	Method             string
}

// ProfileKey hashes a section line and its settings into a cache key.
// Layer and field names are compared case-insensitively.
func ProfileKey(line *geo.SectionLine, in KeyInput) string {
	signature := strings.Join([]string{
		line.Encode(),
		in.Source,
		normalizeNames(in.Layers),
		normalizeNames(in.Fields),
		formatFloat(in.BufferWidth),
		formatFloat(in.SampleInterval),
		formatFloat(in.OnSectionTolerance),
		in.DEMPath,
		strconv.Itoa(in.DEMBand),
		in.Method,
	}, "|")

	hash := sha256.Sum256([]byte(signature))
	return fmt.Sprintf("profile:%x", hash)
}

func normalizeNames(names []string) string {
	normalized := make([]string, len(names))
	for i, n := range names {
		normalized[i] = strings.ToLower(strings.TrimSpace(n))
	}
	return strings.Join(normalized, ",")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
