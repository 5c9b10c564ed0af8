package model

import "time"

type ActivityKind string

const (
	ActivityKindStart        ActivityKind = "start"
	ActivityKindAnswer       ActivityKind = "answer"
	ActivityKindWarning      ActivityKind = "warning"
	ActivityKindDisqualified ActivityKind = "disqualified"
	ActivityKindSubmit       ActivityKind = "submit"
)

// ActivityLog is an append-only record of notable actions. Entries written
// by this core carry a structured Kind; entries from elsewhere may leave it
// empty and are classified by the monitor from the action text.
type ActivityLog struct {
	ID        uint         `gorm:"primarykey" json:"id"`
	ActorID   uint         `json:"actor_id" gorm:"not null;index"`
	Role      string       `json:"role" gorm:"not null"` // "student", "teacher", "registrar"
	Kind      ActivityKind `json:"kind,omitempty" gorm:"index"`
	Action    string       `json:"action" gorm:"type:text;not null"`
	ExamID    *uint        `json:"exam_id,omitempty" gorm:"index"`
	SessionID *uint        `json:"session_id,omitempty" gorm:"index"`
	CreatedAt time.Time    `json:"created_at"`
}
