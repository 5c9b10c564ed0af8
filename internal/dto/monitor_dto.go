package dto

import "time"

// Per-student display statuses on the monitoring dashboard. Disqualified
// takes precedence over in_progress when both could apply.
const (
	MonitorStatusWaiting      = "waiting"
	MonitorStatusInProgress   = "in_progress"
	MonitorStatusSubmitted    = "submitted"
	MonitorStatusDisqualified = "disqualified"
)

type StudentMonitorDTO struct {
	StudentID        uint   `json:"student_id"`
	FullName         string `json:"full_name"`
	TicketNumber     int    `json:"ticket_number"`
	Status           string `json:"status"`
	AnsweredCount    int    `json:"answered_count"`
	ViolationCount   int    `json:"violation_count"`
	TabSwitchCount   int    `json:"tab_switch_count"`
	RemainingSeconds int64  `json:"remaining_seconds"`
}

type MonitorTotalsDTO struct {
	Enrolled    int `json:"enrolled"`
	Started     int `json:"started"`
	Submitted   int `json:"submitted"`
	Problematic int `json:"problematic"`
}

type ActivityEntryDTO struct {
	Kind    string    `json:"kind,omitempty"`
	ActorID uint      `json:"actor_id"`
	Role    string    `json:"role"`
	Action  string    `json:"action"`
	At      time.Time `json:"at"`
}

// MonitorSnapshotDTO is recomputed from scratch on every request; nothing in
// it is persisted.
type MonitorSnapshotDTO struct {
	ExamID           uint                `json:"exam_id"`
	ExamTitle        string              `json:"exam_title"`
	ExamStatus       string              `json:"exam_status"`
	RemainingSeconds int64               `json:"remaining_seconds"`
	Totals           MonitorTotalsDTO    `json:"totals"`
	Students         []StudentMonitorDTO `json:"students"`
	Feed             []ActivityEntryDTO  `json:"feed"`
}
