package domain

import "math"

// DefaultPriority is used when an agent does not declare one.
const DefaultPriority = 1

// Agent is a train moving along a path of stations.
type Agent struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	TrainType   string   `json:"train_type,omitempty"`
	Source      string   `json:"source,omitempty"`
	Destination string   `json:"destination,omitempty"`
	Path        []string `json:"path"`

	// Progress is the fraction of Path already traversed, in [0,1].
	Progress float64 `json:"progress"`
	// Speed is expressed in km/h.
	Speed float64 `json:"speed"`
	// Priority ranks agents in a conflict; the lower value is rerouted.
	Priority *int `json:"priority,omitempty"`

	// Lat and Lon are the last reported position, used when the path cannot be resolved.
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`

	// Risk is an optional aggregate supplied with the roster.
	Risk   *float64 `json:"risk,omitempty"`
	Status string   `json:"status,omitempty"`
}

// Normalize returns a copy with progress clamped to [0,1], a non-negative
// finite speed and the default priority filled in.
func (a Agent) Normalize() Agent {
	a.Progress = Clamp01(a.Progress)
	if math.IsNaN(a.Speed) || math.IsInf(a.Speed, 0) || a.Speed < 0 {
		a.Speed = 0
	}
	if a.Priority == nil {
		p := DefaultPriority
		a.Priority = &p
	}
	if math.IsNaN(a.Lat) || math.IsInf(a.Lat, 0) {
		a.Lat = 0
	}
	if math.IsNaN(a.Lon) || math.IsInf(a.Lon, 0) {
		a.Lon = 0
	}
	if a.Path != nil {
		a.Path = append([]string(nil), a.Path...)
	}
	return a
}

// EffectivePriority returns the declared priority or DefaultPriority.
func (a Agent) EffectivePriority() int {
	if a.Priority == nil {
		return DefaultPriority
	}
	return *a.Priority
}

// Reported returns the last reported coordinate.
func (a Agent) Reported() Coordinate {
	return Coordinate{Lat: a.Lat, Lon: a.Lon}
}

// Goal returns the declared destination, or the last station of the path.
func (a Agent) Goal() string {
	if a.Destination != "" {
		return a.Destination
	}
	if len(a.Path) > 0 {
		return a.Path[len(a.Path)-1]
	}
	return ""
}

// SegmentIndex returns i such that the agent currently runs on (Path[i], Path[i+1]).
// It returns -1 when the path has fewer than two stations.
func (a Agent) SegmentIndex() int {
	n := len(a.Path)
	if n < 2 {
		return -1
	}
	i := int(math.Floor(Clamp01(a.Progress) * float64(n-1)))
	if i > n-2 {
		i = n - 2
	}
	if i < 0 {
		i = 0
	}
	return i
}

// CurrentEdge returns the edge the agent occupies, if any.
func (a Agent) CurrentEdge() (Edge, bool) {
	i := a.SegmentIndex()
	if i < 0 {
		return Edge{}, false
	}
	return Edge{From: a.Path[i], To: a.Path[i+1]}, true
}

// Ahead reports whether u-v is the current edge or any edge after it on the path.
func (a Agent) Ahead(u, v string) bool {
	i := a.SegmentIndex()
	if i < 0 {
		return false
	}
	k := NewEdgeKey(u, v)
	for ; i < len(a.Path)-1; i++ {
		if NewEdgeKey(a.Path[i], a.Path[i+1]) == k {
			return true
		}
	}
	return false
}

// Clamp01 bounds v to [0,1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// IntPtr is a helper for optional priorities.
func IntPtr(v int) *int { return &v }

// FloatPtr is a helper for optional risk values.
func FloatPtr(v float64) *float64 { return &v }
