package service

import (
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/smartexam/server/internal/dto"
	"github.com/smartexam/server/internal/model"
	"github.com/smartexam/server/internal/repository"
	"gorm.io/gorm"
)

const activityFeedLimit = 50

// MonitorService builds the live per-exam dashboard: a pure read-side
// composition over sessions, answers, tickets and the activity log,
// recomputed on every request.
type MonitorService interface {
	GetSnapshot(examID, teacherID uint) (*dto.MonitorSnapshotDTO, error)
}

type monitorService struct {
	examRepo      repository.ExamRepository
	ticketRepo    repository.TicketRepository
	sessionRepo   repository.SessionRepository
	answerRepo    repository.AnswerRepository
	activityRepo  repository.ActivityRepository
	directoryRepo repository.DirectoryRepository
	now           func() time.Time
}

func NewMonitorService(
	examRepo repository.ExamRepository,
	ticketRepo repository.TicketRepository,
	sessionRepo repository.SessionRepository,
	answerRepo repository.AnswerRepository,
	activityRepo repository.ActivityRepository,
	directoryRepo repository.DirectoryRepository,
) MonitorService {
	return &monitorService{
		examRepo:      examRepo,
		ticketRepo:    ticketRepo,
		sessionRepo:   sessionRepo,
		answerRepo:    answerRepo,
		activityRepo:  activityRepo,
		directoryRepo: directoryRepo,
		now:           time.Now,
	}
}

func (s *monitorService) GetSnapshot(examID, teacherID uint) (*dto.MonitorSnapshotDTO, error) {
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

	tickets, err := s.ticketRepo.FindByExam(examID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessionRepo.FindByExam(examID)
	if err != nil {
		return nil, err
	}
	sessionByStudent := make(map[uint]*model.ExamSession, len(sessions))
	sessionIDs := make([]uint, 0, len(sessions))
	for i := range sessions {
		sessionByStudent[sessions[i].StudentID] = &sessions[i]
		sessionIDs = append(sessionIDs, sessions[i].ID)
	}

	answeredBySession, err := s.answeredCounts(sessionIDs)
	if err != nil {
		return nil, err
	}

	studentIDs := make([]uint, 0, len(tickets))
	for _, t := range tickets {
		studentIDs = append(studentIDs, t.StudentID)
	}
	students, err := s.directoryRepo.StudentsByIDs(studentIDs)
	if err != nil {
		log.Warn().Err(err).Uint("exam_id", examID).Msg("Directory lookup failed, monitor rows will miss names")
	}
	nameByStudent := make(map[uint]string, len(students))
	for _, st := range students {
		nameByStudent[st.ID] = st.FullName
	}

	now := s.now()
	snapshot := &dto.MonitorSnapshotDTO{
		ExamID:           exam.ID,
		ExamTitle:        exam.Title,
		ExamStatus:       string(exam.Status),
		RemainingSeconds: examRemainingSeconds(exam, now),
	}
	snapshot.Totals.Enrolled = len(tickets)

	for _, ticket := range tickets {
		session := sessionByStudent[ticket.StudentID]
		row := dto.StudentMonitorDTO{
			StudentID:    ticket.StudentID,
			FullName:     nameByStudent[ticket.StudentID],
			TicketNumber: ticket.Number,
			Status:       studentStatus(session),
		}
		if session != nil {
			row.AnsweredCount = answeredBySession[session.ID]
			row.ViolationCount = session.ViolationCount
			row.TabSwitchCount = session.TabSwitchCount
			if session.Status == model.SessionStatusActive {
				remaining := int64(session.Deadline(exam.DurationMinutes).Sub(now).Seconds())
				if remaining < 0 {
					remaining = 0
				}
				row.RemainingSeconds = remaining
			}
			if row.Status != dto.MonitorStatusWaiting {
				snapshot.Totals.Started++
			}
			if session.Status == model.SessionStatusSubmitted {
				snapshot.Totals.Submitted++
			}
			if session.TabSwitchCount > 0 {
				snapshot.Totals.Problematic++
			}
		}
		snapshot.Students = append(snapshot.Students, row)
	}

	snapshot.Feed, err = s.activityFeed(examID)
	if err != nil {
		log.Warn().Err(err).Uint("exam_id", examID).Msg("Activity feed unavailable for monitor snapshot")
	}

	return snapshot, nil
}

// studentStatus derives the display status for one enrolled student.
// Disqualified wins over in_progress: a student who hit the tab-switch
// threshold without submitting must not show as merely in progress.
func studentStatus(session *model.ExamSession) string {
	switch {
	case session == nil:
		return dto.MonitorStatusWaiting
	case session.TabSwitchCount >= model.DisqualifyTabSwitchThreshold && session.Status != model.SessionStatusSubmitted:
		return dto.MonitorStatusDisqualified
	case session.Status == model.SessionStatusSubmitted:
		return dto.MonitorStatusSubmitted
	default:
		return dto.MonitorStatusInProgress
	}
}

func (s *monitorService) answeredCounts(sessionIDs []uint) (map[uint]int, error) {
	answers, err := s.answerRepo.FindBySessions(sessionIDs)
	if err != nil {
		return nil, err
	}
	counts := make(map[uint]int, len(sessionIDs))
	for i := range answers {
		if answers[i].Answered() {
			counts[answers[i].SessionID]++
		}
	}
	return counts, nil
}

func (s *monitorService) activityFeed(examID uint) ([]dto.ActivityEntryDTO, error) {
	entries, err := s.activityRepo.FindByExam(examID, activityFeedLimit)
	if err != nil {
		return nil, err
	}
	feed := make([]dto.ActivityEntryDTO, 0, len(entries))
	for _, e := range entries {
		feed = append(feed, dto.ActivityEntryDTO{
			Kind:    string(classifyActivity(&e)),
			ActorID: e.ActorID,
			Role:    e.Role,
			Action:  e.Action,
			At:      e.CreatedAt,
		})
	}
	return feed, nil
}

// classifyActivity buckets a log entry for the dashboard feed. Entries
// written by this core carry a structured kind; free-text entries from
// elsewhere fall back to substring matching on the action.
func classifyActivity(entry *model.ActivityLog) model.ActivityKind {
	if entry.Kind != "" {
		return entry.Kind
	}
	action := strings.ToLower(entry.Action)
	switch {
	case strings.Contains(action, "disqualif"):
		return model.ActivityKindDisqualified
	case strings.Contains(action, "submit"):
		return model.ActivityKindSubmit
	case strings.Contains(action, "violation"), strings.Contains(action, "warning"):
		return model.ActivityKindWarning
	case strings.Contains(action, "answer"):
		return model.ActivityKindAnswer
	case strings.Contains(action, "start"), strings.Contains(action, "login"):
		return model.ActivityKindStart
	default:
		return ""
	}
}
