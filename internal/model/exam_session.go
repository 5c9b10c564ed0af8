package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusSubmitted SessionStatus = "submitted"
)

type ViolationType string

const (
	ViolationTabSwitch      ViolationType = "tab_switch"
	ViolationFullscreenExit ViolationType = "fullscreen_exit"
	ViolationCopyPaste      ViolationType = "copy_paste"
	ViolationRightClick     ViolationType = "right_click"
)

// DisqualifyTabSwitchThreshold is the tab-switch count at which a student is
// reported as disqualified. Advisory only: nothing blocks further answering.
const DisqualifyTabSwitchThreshold = 3

// ViolationEvent is one entry in a session's proctoring log.
type ViolationEvent struct {
	Type ViolationType `json:"type"`
	At   time.Time     `json:"at"`
}

// ExamSession binds a student to their ticket for one attempt. At most one
// session exists per (exam, student); StartedAt and SubmittedAt are each set
// exactly once.
type ExamSession struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	ExamID         uint           `json:"exam_id" gorm:"not null;uniqueIndex:idx_session_exam_student"`
	StudentID      uint           `json:"student_id" gorm:"not null;uniqueIndex:idx_session_exam_student"`
	TicketID       uint           `json:"ticket_id" gorm:"not null;index"`
	Status         SessionStatus  `json:"status" gorm:"default:'active';index"`
	StartedAt      time.Time      `json:"started_at" gorm:"not null"`
	SubmittedAt    *time.Time     `json:"submitted_at,omitempty"`
	ViolationCount int            `json:"violation_count" gorm:"default:0"`
	TabSwitchCount int            `json:"tab_switch_count" gorm:"default:0"`
	Violations     datatypes.JSON `json:"violations" gorm:"type:jsonb"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// ViolationLog decodes the session's violation entries in recorded order.
func (s *ExamSession) ViolationLog() []ViolationEvent {
	if len(s.Violations) == 0 {
		return nil
	}
	var events []ViolationEvent
	if err := json.Unmarshal(s.Violations, &events); err != nil {
		return nil
	}
	return events
}

// AppendViolation adds an event to the log and bumps the counters. The caller
// persists the session afterwards so log and counters move together.
func (s *ExamSession) AppendViolation(event ViolationEvent) {
	events := append(s.ViolationLog(), event)
	if b, err := json.Marshal(events); err == nil {
		s.Violations = datatypes.JSON(b)
	}
	s.ViolationCount++
	if event.Type == ViolationTabSwitch {
		s.TabSwitchCount++
	}
}

// Deadline computes the live end time of the session for the given exam
// duration. Recomputed on every read so a later extension shifts it.
func (s *ExamSession) Deadline(durationMinutes int) time.Time {
	return s.StartedAt.Add(time.Duration(durationMinutes) * time.Minute)
}
