package service

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/smartexam/server/config"
	"github.com/smartexam/server/internal/model"
	"github.com/smartexam/server/internal/repository"
)

// DeadlineSweeper force-submits sessions whose computed deadline has passed,
// independent of client liveness. Exam timing must not depend on a possibly
// disconnected browser calling submit; the sweep funnels through the same
// submission path, so grading kicks off exactly as with a manual submit.
type DeadlineSweeper struct {
	sessionRepo repository.SessionRepository
	examRepo    repository.ExamRepository
	sessions    SessionService
	interval    time.Duration
	now         func() time.Time
	stop        chan struct{}
}

func NewDeadlineSweeper(
	cfg *config.Config,
	sessionRepo repository.SessionRepository,
	examRepo repository.ExamRepository,
	sessions SessionService,
) *DeadlineSweeper {
	interval := time.Duration(cfg.Sweeper.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &DeadlineSweeper{
		sessionRepo: sessionRepo,
		examRepo:    examRepo,
		sessions:    sessions,
		interval:    interval,
		now:         time.Now,
		stop:        make(chan struct{}),
	}
}

// Start launches the sweep loop in a goroutine.
func (w *DeadlineSweeper) Start() {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		log.Info().Dur("interval", w.interval).Msg("Deadline sweeper started")
		for {
			select {
			case <-ticker.C:
				if n, err := w.Sweep(); err != nil {
					log.Error().Err(err).Msg("Deadline sweep failed")
				} else if n > 0 {
					log.Info().Int("submitted", n).Msg("Deadline sweep force-submitted sessions")
				}
			case <-w.stop:
				log.Info().Msg("Deadline sweeper stopped")
				return
			}
		}
	}()
}

func (w *DeadlineSweeper) Stop() {
	close(w.stop)
}

// Sweep scans every active session against its live deadline and submits the
// expired ones. Returns how many sessions it submitted.
func (w *DeadlineSweeper) Sweep() (int, error) {
	active, err := w.sessionRepo.FindAllActive()
	if err != nil {
		return 0, err
	}
	if len(active) == 0 {
		return 0, nil
	}

	examIDs := make([]uint, 0, len(active))
	seen := make(map[uint]bool, len(active))
	for _, s := range active {
		if !seen[s.ExamID] {
			seen[s.ExamID] = true
			examIDs = append(examIDs, s.ExamID)
		}
	}
	exams, err := w.examRepo.FindByIDs(examIDs)
	if err != nil {
		return 0, err
	}
	examByID := make(map[uint]*model.Exam, len(exams))
	for i := range exams {
		examByID[exams[i].ID] = &exams[i]
	}

	now := w.now()
	submitted := 0
	for _, session := range active {
		exam, ok := examByID[session.ExamID]
		if !ok {
			log.Warn().Uint("session_id", session.ID).Uint("exam_id", session.ExamID).Msg("Active session references a missing exam, skipping")
			continue
		}
		if now.Before(session.Deadline(exam.DurationMinutes)) {
			continue
		}
		if _, err := w.sessions.Submit(session.ID); err != nil {
			log.Error().Err(err).Uint("session_id", session.ID).Msg("Sweep submit failed, continuing")
			continue
		}
		submitted++
	}
	return submitted, nil
}
