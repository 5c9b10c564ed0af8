package repository

import (
	"github.com/smartexam/server/internal/model"
	"gorm.io/gorm"
)

type TicketRepository interface {
	CreateBatch(tx *gorm.DB, tickets []model.Ticket) error
	FindByID(id uint) (*model.Ticket, error)
	FindByExamAndStudent(examID, studentID uint) (*model.Ticket, error)
	FindByExam(examID uint) ([]model.Ticket, error)
}

type ticketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{db: db}
}

// CreateBatch inserts tickets inside the caller's transaction so the exam
// and its tickets land together. Pass nil to use the repository's own db.
func (r *ticketRepository) CreateBatch(tx *gorm.DB, tickets []model.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	db := r.db
	if tx != nil {
		db = tx
	}
	return db.Create(&tickets).Error
}

func (r *ticketRepository) FindByID(id uint) (*model.Ticket, error) {
	var ticket model.Ticket
	if err := r.db.First(&ticket, id).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) FindByExamAndStudent(examID, studentID uint) (*model.Ticket, error) {
	var ticket model.Ticket
	err := r.db.Where("exam_id = ? AND student_id = ?", examID, studentID).First(&ticket).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) FindByExam(examID uint) ([]model.Ticket, error) {
	var tickets []model.Ticket
	err := r.db.Where("exam_id = ?", examID).Order("number ASC").Find(&tickets).Error
	return tickets, err
}
