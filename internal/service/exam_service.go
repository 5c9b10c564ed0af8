package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/smartexam/server/internal/dto"
	"github.com/smartexam/server/internal/model"
	"github.com/smartexam/server/internal/repository"
	"gorm.io/gorm"
)

// ExamService covers the teacher-side operations: exam creation with ticket
// materialization, force-ending, duration extension and manual score
// overrides.
type ExamService interface {
	CreateExam(req dto.ExamCreateDTO) (*dto.ExamResponseDTO, error)
	EndExam(examID, teacherID uint) error
	ExtendTime(examID, teacherID uint, minutes int) (*dto.ExamResponseDTO, error)
	OverrideScore(answerID uint, req dto.ManualScoreDTO) (*dto.AnswerResponseDTO, error)
}

type examService struct {
	examRepo      repository.ExamRepository
	ticketRepo    repository.TicketRepository
	questionRepo  repository.QuestionRepository
	answerRepo    repository.AnswerRepository
	sessionRepo   repository.SessionRepository
	directoryRepo repository.DirectoryRepository
	activityRepo  repository.ActivityRepository
	allocator     TicketAllocator
	sessions      SessionService
	db            *gorm.DB
}

func NewExamService(
	examRepo repository.ExamRepository,
	ticketRepo repository.TicketRepository,
	questionRepo repository.QuestionRepository,
	answerRepo repository.AnswerRepository,
	sessionRepo repository.SessionRepository,
	directoryRepo repository.DirectoryRepository,
	activityRepo repository.ActivityRepository,
	allocator TicketAllocator,
	sessions SessionService,
	db *gorm.DB,
) ExamService {
	return &examService{
		examRepo:      examRepo,
		ticketRepo:    ticketRepo,
		questionRepo:  questionRepo,
		answerRepo:    answerRepo,
		sessionRepo:   sessionRepo,
		directoryRepo: directoryRepo,
		activityRepo:  activityRepo,
		allocator:     allocator,
		sessions:      sessions,
		db:            db,
	}
}

// CreateExam persists the exam and one ticket per enrolled student in a
// single transaction, so a partial allocation never becomes visible.
func (s *examService) CreateExam(req dto.ExamCreateDTO) (*dto.ExamResponseDTO, error) {
	if len(req.QuestionIDs) < req.QuestionsPerTicket {
		return nil, fmt.Errorf("question pool has %d questions but %d are required per ticket", len(req.QuestionIDs), req.QuestionsPerTicket)
	}

	questions, err := s.questionRepo.FindByIDs(req.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load question pool: %w", err)
	}
	if len(questions) != len(req.QuestionIDs) {
		return nil, fmt.Errorf("question pool references %d unknown questions", len(req.QuestionIDs)-len(questions))
	}

	studentIDs, err := s.directoryRepo.StudentIDsByGroups(req.GroupIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve enrolled students: %w", err)
	}

	exam := model.Exam{
		Title:              req.Title,
		SubjectID:          req.SubjectID,
		TeacherID:          req.TeacherID,
		GroupIDs:           model.UintsJSON(req.GroupIDs),
		QuestionPool:       model.UintsJSON(req.QuestionIDs),
		QuestionsPerTicket: req.QuestionsPerTicket,
		DurationMinutes:    req.DurationMinutes,
		ScheduledAt:        req.ScheduledAt,
		Status:             model.ExamStatusScheduled,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&exam).Error; err != nil {
			return fmt.Errorf("failed to create exam: %w", err)
		}
		tickets := s.allocator.Allocate(exam.ID, req.QuestionIDs, req.QuestionsPerTicket, studentIDs)
		if err := s.ticketRepo.CreateBatch(tx, tickets); err != nil {
			return fmt.Errorf("failed to create tickets: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("title", req.Title).Msg("Exam creation transaction failed")
		return nil, err
	}

	log.Info().Uint("exam_id", exam.ID).Int("tickets", len(studentIDs)).Msg("Exam created with tickets")

	resp := s.examResponse(&exam)
	resp.TicketsCreated = len(studentIDs)
	return resp, nil
}

// EndExam completes the exam and force-submits every still-active session,
// funneling each through the same submission path students use so grading
// kicks off for all of them.
func (s *examService) EndExam(examID, teacherID uint) error {
	exam, err := s.ownedExam(examID, teacherID)
	if err != nil {
		return err
	}

	exam.Status = model.ExamStatusCompleted
	if err := s.examRepo.Update(exam); err != nil {
		return fmt.Errorf("failed to complete exam %d: %w", examID, err)
	}

	active, err := s.sessionRepo.FindActiveByExam(examID)
	if err != nil {
		return fmt.Errorf("failed to load active sessions for exam %d: %w", examID, err)
	}
	for _, session := range active {
		if _, err := s.sessions.Submit(session.ID); err != nil {
			log.Error().Err(err).Uint("session_id", session.ID).Msg("Force-submit failed during exam end, continuing")
		}
	}

	log.Info().Uint("exam_id", examID).Int("force_submitted", len(active)).Msg("Exam ended by teacher")
	return nil
}

// ExtendTime increases the exam duration. Every live deadline is derived
// from the duration at read time, so the extension applies immediately to
// all active sessions.
func (s *examService) ExtendTime(examID, teacherID uint, minutes int) (*dto.ExamResponseDTO, error) {
	exam, err := s.ownedExam(examID, teacherID)
	if err != nil {
		return nil, err
	}

	exam.DurationMinutes += minutes
	if err := s.examRepo.Update(exam); err != nil {
		return nil, fmt.Errorf("failed to extend exam %d: %w", examID, err)
	}

	log.Info().Uint("exam_id", examID).Int("minutes", minutes).Int("duration", exam.DurationMinutes).Msg("Exam duration extended")
	return s.examResponse(exam), nil
}

// OverrideScore stores the teacher's manual score and comment on an answer.
// It may land before or after AI grading; either way the manual score wins
// in every downstream aggregate.
func (s *examService) OverrideScore(answerID uint, req dto.ManualScoreDTO) (*dto.AnswerResponseDTO, error) {
	if req.ManualScore == nil {
		return nil, fmt.Errorf("manual score is required")
	}
	if *req.ManualScore < 0 || *req.ManualScore > model.MaxAnswerScore {
		return nil, fmt.Errorf("manual score %.2f outside [0,%.0f]", *req.ManualScore, model.MaxAnswerScore)
	}

	answer, err := s.answerRepo.FindByID(answerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnswerNotFound
		}
		return nil, err
	}

	answer.ManualScore = req.ManualScore
	answer.ManualComment = req.ManualComment
	// Manual columns only; the grading job may be writing the AI columns of
	// this row at the same time.
	if err := s.answerRepo.SaveManualScore(answer); err != nil {
		return nil, fmt.Errorf("failed to store manual score: %w", err)
	}

	var resp dto.AnswerResponseDTO
	if err := copier.Copy(&resp, answer); err != nil {
		return nil, fmt.Errorf("error preparing response: %w", err)
	}
	resp.AIFeedback = answer.Feedback()
	resp.FinalScore = answer.FinalScore()
	return &resp, nil
}

func (s *examService) ownedExam(examID, teacherID uint) (*model.Exam, error) {
	exam, err := s.examRepo.FindByID(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, err
	}
	if exam.TeacherID != teacherID {
		return nil, ErrNotExamOwner
	}
	return exam, nil
}

func (s *examService) examResponse(exam *model.Exam) *dto.ExamResponseDTO {
	var resp dto.ExamResponseDTO
	if err := copier.Copy(&resp, exam); err != nil {
		log.Warn().Err(err).Uint("exam_id", exam.ID).Msg("Failed to copy exam to response DTO")
	}
	resp.Status = string(exam.Status)
	return &resp
}

// examRemainingSeconds is the exam-wide countdown from the scheduled start,
// floored at zero. Per-session deadlines live on the model instead.
func examRemainingSeconds(exam *model.Exam, now time.Time) int64 {
	end := exam.ScheduledAt.Add(time.Duration(exam.DurationMinutes) * time.Minute)
	remaining := int64(end.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}
