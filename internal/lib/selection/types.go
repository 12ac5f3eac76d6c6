package selection

import (
	"github.com/secinterp/secinterp/internal/lib/geo"
)

// Classification represents the relationship between a site and the section line
type Classification string

const (
	OnSection Classification = "on_section" // within the on-section tolerance
	Within    Classification = "within"     // within the buffer width
	Outside   Classification = "outside"    // beyond the buffer (filtered out)
)

// Site is a point feature that may be projected onto a section: a drillhole
// collar or a structural measurement
type Site struct {
	ID       string    `json:"id"`
	Location geo.Point `json:"location"`
}

// Candidate is a site after classification against a section line
type Candidate struct {
	Site
	Projection     geo.Projection `json:"projection"`
	Classification Classification `json:"classification"`
}
