package domain

import "time"

// Action is the verdict of an evaluation cycle.
type Action string

const (
	ActionNormal              Action = "NORMAL"
	ActionRequestConfirmation Action = "REQUEST_CONFIRMATION"
	ActionEmergencyStop       Action = "EMERGENCY_STOP"
	ActionStopBoth            Action = "STOP_BOTH"
)

// Actions lists every action, in severity order.
var Actions = []Action{ActionNormal, ActionRequestConfirmation, ActionEmergencyStop, ActionStopBoth}

// RiskAssessment holds the score of one pair and every intermediate value.
type RiskAssessment struct {
	AgentA string `json:"agent_a"`
	AgentB string `json:"agent_b"`

	CurrentDistance float64 `json:"current_distance_m"`
	FutureDistance  float64 `json:"future_distance_m"`
	RelativeSpeed   float64 `json:"relative_speed_mps"`
	TimeToCollision float64 `json:"ttc_s"`
	BrakingA        float64 `json:"braking_distance_a_m"`
	BrakingB        float64 `json:"braking_distance_b_m"`

	ProximityScore float64    `json:"proximity_score"`
	TTCScore       float64    `json:"ttc_score"`
	BrakingScore   float64    `json:"braking_score"`
	KinematicScore float64    `json:"kinematic_score"`
	FeedRisk       float64    `json:"feed_risk"`
	FeedStatus     FeedStatus `json:"feed_status"`
	BaseScore      float64    `json:"base_score"`

	// MonteCarlo is the fraction of perturbed samples above the threshold, when enabled.
	MonteCarlo *float64 `json:"monte_carlo,omitempty"`
	Score      float64  `json:"score"`
}

// Conflict is the worst pair of a cycle.
type Conflict struct {
	A          string         `json:"a"`
	B          string         `json:"b"`
	Score      float64        `json:"score"`
	TTC        float64        `json:"ttc_s"`
	Loser      string         `json:"loser"`
	Assessment RiskAssessment `json:"assessment"`
}

// Decision is returned by every evaluation cycle.
type Decision struct {
	ID            string    `json:"id"`
	Action        Action    `json:"action"`
	AgentID       string    `json:"train_id,omitempty"`
	SuggestedPath []string  `json:"suggested_path,omitempty"`
	BlockedEdge   *Edge     `json:"blocked_edge,omitempty"`
	Reason        string    `json:"reason"`
	Score         float64   `json:"score"`
	Conflict      *Conflict `json:"conflict,omitempty"`

	// Critical is set when the time to collision is below the critical horizon.
	Critical    bool      `json:"critical"`
	TrainsSaved int64     `json:"trains_saved_today"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Route is a path found by the router.
type Route struct {
	Path []string `json:"path"`
	// Distance is the raw great-circle length in metres.
	Distance float64 `json:"distance_m"`
	// Cost is the risk-weighted length; never below Distance.
	Cost float64 `json:"cost"`
}

// RerouteAck acknowledges a reroute without changing engine state.
type RerouteAck struct {
	Status         string    `json:"status"`
	AgentID        string    `json:"train_id"`
	NewPath        []string  `json:"new_path"`
	AcknowledgedAt time.Time `json:"acknowledged_at"`
}

// SyncStatus reports the result of replacing the graph snapshot.
type SyncStatus struct {
	Status       string `json:"status"`
	Stations     int    `json:"stations_count"`
	Edges        int    `json:"edges_count"`
	SkippedEdges int    `json:"skipped_edges"`
	Version      uint64 `json:"version"`
}

// RiskCacheEntry is the latest risk known for an agent.
type RiskCacheEntry struct {
	AgentID     string    `json:"train_id"`
	Score       float64   `json:"score"`
	RiskLevel   float64   `json:"risk_level"`
	TTC         *float64  `json:"ttc_s"`
	Counterpart string    `json:"counterpart"`
	UpdatedAt   time.Time `json:"updated_at"`
}
