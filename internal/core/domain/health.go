package domain

// ComponentStatus is the health of one dependency.
type ComponentStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// HealthReport aggregates dependency health for the readiness endpoint.
type HealthReport struct {
	Status     string            `json:"status"`
	Components []ComponentStatus `json:"components"`
}

// Healthy reports whether every component is ok.
func (r HealthReport) Healthy() bool {
	for _, c := range r.Components {
		if c.Status != "ok" {
			return false
		}
	}
	return true
}
