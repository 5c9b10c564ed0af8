package model

import (
	"time"

	"gorm.io/datatypes"
)

// Ticket is an immutable assignment of an ordered question subset to one
// student for one exam. Created once at exam creation; never updated.
type Ticket struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	ExamID      uint           `json:"exam_id" gorm:"not null;uniqueIndex:idx_ticket_exam_student"`
	StudentID   uint           `json:"student_id" gorm:"not null;uniqueIndex:idx_ticket_exam_student"`
	Number      int            `json:"number" gorm:"not null"`
	QuestionIDs datatypes.JSON `json:"question_ids" gorm:"type:jsonb"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Questions returns the ticket's question ids in assignment order.
func (t *Ticket) Questions() []uint {
	return UintsFromJSON(t.QuestionIDs)
}
