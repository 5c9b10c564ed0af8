package service

import (
	"errors"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/smartexam/server/internal/dto"
	"github.com/smartexam/server/internal/model"
	"github.com/smartexam/server/internal/repository"
	"gorm.io/gorm"
)

// QuestionService manages the question bank entries that exam creation
// draws its pools from.
type QuestionService interface {
	CreateQuestion(req dto.QuestionCreateDTO) (*dto.QuestionResponseDTO, error)
	ListBySubject(subjectID uint) ([]dto.QuestionResponseDTO, error)
	GetQuestion(id uint) (*dto.QuestionResponseDTO, error)
}

type questionService struct {
	questionRepo repository.QuestionRepository
}

func NewQuestionService(questionRepo repository.QuestionRepository) QuestionService {
	return &questionService{questionRepo: questionRepo}
}

func (s *questionService) CreateQuestion(req dto.QuestionCreateDTO) (*dto.QuestionResponseDTO, error) {
	question := model.Question{
		SubjectID:    req.SubjectID,
		LectureID:    req.LectureID,
		Text:         req.Text,
		Difficulty:   req.Difficulty,
		Keywords:     req.Keywords,
		SampleAnswer: req.SampleAnswer,
	}
	if err := s.questionRepo.Create(&question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	var resp dto.QuestionResponseDTO
	if err := copier.Copy(&resp, &question); err != nil {
		return nil, fmt.Errorf("error preparing response: %w", err)
	}
	return &resp, nil
}

func (s *questionService) ListBySubject(subjectID uint) ([]dto.QuestionResponseDTO, error) {
	questions, err := s.questionRepo.FindBySubject(subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	dtos := make([]dto.QuestionResponseDTO, 0, len(questions))
	for _, q := range questions {
		var item dto.QuestionResponseDTO
		if err := copier.Copy(&item, &q); err != nil {
			continue
		}
		dtos = append(dtos, item)
	}
	return dtos, nil
}

func (s *questionService) GetQuestion(id uint) (*dto.QuestionResponseDTO, error) {
	question, err := s.questionRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}

	var resp dto.QuestionResponseDTO
	if err := copier.Copy(&resp, question); err != nil {
		return nil, fmt.Errorf("error preparing response: %w", err)
	}
	return &resp, nil
}
