package model

import (
	"math"
	"time"
)

// Incident is a production incident from the issue tracker
type Incident struct {
	Key                  string     `json:"key"`
	Created              time.Time  `json:"created"`
	Resolved             *time.Time `json:"resolved,omitempty"`
	ResolutionTimeHours  *float64   `json:"resolution_time_hours,omitempty"`
	RelatedDeploymentTag string     `json:"related_deployment_tag,omitempty"`
}

// ResolutionHours returns how long the incident took to resolve.
// An explicit ResolutionTimeHours wins; otherwise Resolved - Created is used when positive.
func (x *Incident) ResolutionHours() (float64, bool) {
	if x.ResolutionTimeHours != nil {
		h := *x.ResolutionTimeHours
		if math.IsNaN(h) || math.IsInf(h, 0) || h < 0 {
			return 0, false
		}
		return h, true
	}

	if x.Created.IsZero() || x.Resolved == nil || x.Resolved.IsZero() {
		return 0, false
	}
	h := x.Resolved.Sub(x.Created).Hours()
	if h <= 0 {
		return 0, false
	}
	return h, true
}
