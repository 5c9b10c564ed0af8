package service

import (
	"errors"
	"testing"
	"time"

	"github.com/smartexam/server/internal/dto"
	"github.com/smartexam/server/internal/model"
)

type monitorFixture struct {
	svc         *monitorService
	examRepo    *fakeExamRepo
	ticketRepo  *fakeTicketRepo
	sessionRepo *fakeSessionRepo
	answerRepo  *fakeAnswerRepo
	activity    *fakeActivityRepo
	examID      uint
	teacherID   uint
	now         time.Time
}

// newMonitorFixture seeds a 60-minute exam with three enrolled students and
// a frozen clock 10 minutes into the exam.
func newMonitorFixture(t *testing.T) *monitorFixture {
	t.Helper()

	f := &monitorFixture{
		examRepo:    newFakeExamRepo(),
		ticketRepo:  newFakeTicketRepo(),
		sessionRepo: newFakeSessionRepo(),
		answerRepo:  newFakeAnswerRepo(),
		activity:    &fakeActivityRepo{},
		teacherID:   7,
		now:         time.Date(2026, 5, 12, 10, 10, 0, 0, time.UTC),
	}

	exam := model.Exam{
		Title:              "Databases Midterm",
		TeacherID:          f.teacherID,
		Status:             model.ExamStatusActive,
		DurationMinutes:    60,
		QuestionsPerTicket: 2,
		ScheduledAt:        f.now.Add(-10 * time.Minute),
	}
	if err := f.examRepo.Create(&exam); err != nil {
		t.Fatalf("create exam: %v", err)
	}
	f.examID = exam.ID

	var tickets []model.Ticket
	for i, studentID := range []uint{1, 2, 3} {
		tickets = append(tickets, model.Ticket{
			ExamID:      exam.ID,
			StudentID:   studentID,
			Number:      i + 1,
			QuestionIDs: model.UintsJSON([]uint{1, 2}),
		})
	}
	if err := f.ticketRepo.CreateBatch(nil, tickets); err != nil {
		t.Fatalf("create tickets: %v", err)
	}

	directory := &fakeDirectoryRepo{students: []model.Student{
		{ID: 1, FullName: "Ivanov Ivan", GroupID: 1},
		{ID: 2, FullName: "Petrova Anna", GroupID: 1},
		{ID: 3, FullName: "Sidorov Petr", GroupID: 1},
	}}

	svc := NewMonitorService(f.examRepo, f.ticketRepo, f.sessionRepo, f.answerRepo, f.activity, directory)
	f.svc = svc.(*monitorService)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *monitorFixture) startSession(t *testing.T, studentID uint, startedAgo time.Duration) *model.ExamSession {
	t.Helper()
	session := model.ExamSession{
		ExamID:    f.examID,
		StudentID: studentID,
		TicketID:  studentID,
		Status:    model.SessionStatusActive,
		StartedAt: f.now.Add(-startedAgo),
	}
	if err := f.sessionRepo.Create(&session); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return &session
}

func rowFor(t *testing.T, snap *dto.MonitorSnapshotDTO, studentID uint) dto.StudentMonitorDTO {
	t.Helper()
	for _, row := range snap.Students {
		if row.StudentID == studentID {
			return row
		}
	}
	t.Fatalf("no monitor row for student %d", studentID)
	return dto.StudentMonitorDTO{}
}

func TestSnapshotStatusPrecedence(t *testing.T) {
	f := newMonitorFixture(t)

	// Student 1: never started. Student 2: submitted after hitting the
	// tab-switch threshold. Student 3: active with the threshold reached.
	s2 := f.startSession(t, 2, 5*time.Minute)
	s2.Status = model.SessionStatusSubmitted
	submittedAt := f.now.Add(-time.Minute)
	s2.SubmittedAt = &submittedAt
	s2.TabSwitchCount = model.DisqualifyTabSwitchThreshold
	if err := f.sessionRepo.Update(s2); err != nil {
		t.Fatalf("update session: %v", err)
	}

	s3 := f.startSession(t, 3, 5*time.Minute)
	s3.TabSwitchCount = model.DisqualifyTabSwitchThreshold
	if err := f.sessionRepo.Update(s3); err != nil {
		t.Fatalf("update session: %v", err)
	}

	snap, err := f.svc.GetSnapshot(f.examID, f.teacherID)
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}

	if got := rowFor(t, snap, 1).Status; got != dto.MonitorStatusWaiting {
		t.Errorf("student 1 status = %s, want waiting", got)
	}
	if got := rowFor(t, snap, 2).Status; got != dto.MonitorStatusSubmitted {
		t.Errorf("student 2 status = %s, want submitted despite violations", got)
	}
	if got := rowFor(t, snap, 3).Status; got != dto.MonitorStatusDisqualified {
		t.Errorf("student 3 status = %s, want disqualified over in_progress", got)
	}
}

func TestSnapshotTotals(t *testing.T) {
	f := newMonitorFixture(t)

	f.startSession(t, 1, 5*time.Minute)
	s2 := f.startSession(t, 2, 8*time.Minute)
	s2.Status = model.SessionStatusSubmitted
	submittedAt := f.now.Add(-2 * time.Minute)
	s2.SubmittedAt = &submittedAt
	s2.TabSwitchCount = 1
	if err := f.sessionRepo.Update(s2); err != nil {
		t.Fatalf("update session: %v", err)
	}

	snap, err := f.svc.GetSnapshot(f.examID, f.teacherID)
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}

	totals := snap.Totals
	if totals.Enrolled != 3 {
		t.Errorf("enrolled = %d, want 3", totals.Enrolled)
	}
	if totals.Started != 2 {
		t.Errorf("started = %d, want 2", totals.Started)
	}
	if totals.Submitted != 1 {
		t.Errorf("submitted = %d, want 1", totals.Submitted)
	}
	if totals.Problematic != 1 {
		t.Errorf("problematic = %d, want 1", totals.Problematic)
	}
}

func TestSnapshotAnsweredCountsSkipBlankAnswers(t *testing.T) {
	f := newMonitorFixture(t)
	session := f.startSession(t, 1, 5*time.Minute)

	answers := []model.StudentAnswer{
		{SessionID: session.ID, QuestionID: 1, AnswerText: "a relation is a set of tuples"},
		{SessionID: session.ID, QuestionID: 2, AnswerText: "   \n\t"},
	}
	for i := range answers {
		answers[i].AnsweredAt = f.now
		if err := f.answerRepo.Upsert(&answers[i]); err != nil {
			t.Fatalf("seed answer: %v", err)
		}
	}

	snap, err := f.svc.GetSnapshot(f.examID, f.teacherID)
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if got := rowFor(t, snap, 1).AnsweredCount; got != 1 {
		t.Errorf("answered count = %d, want 1 (whitespace-only is not answered)", got)
	}
}

func TestSnapshotRemainingSecondsFloorsAtZero(t *testing.T) {
	f := newMonitorFixture(t)
	f.startSession(t, 1, 90*time.Minute)
	f.startSession(t, 2, 10*time.Minute)

	snap, err := f.svc.GetSnapshot(f.examID, f.teacherID)
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}

	if got := rowFor(t, snap, 1).RemainingSeconds; got != 0 {
		t.Errorf("overdue session remaining = %d, want 0", got)
	}
	if got := rowFor(t, snap, 2).RemainingSeconds; got != 50*60 {
		t.Errorf("remaining = %d, want %d", got, 50*60)
	}
}

func TestSnapshotOwnership(t *testing.T) {
	f := newMonitorFixture(t)

	if _, err := f.svc.GetSnapshot(f.examID, f.teacherID+1); !errors.Is(err, ErrNotExamOwner) {
		t.Errorf("foreign teacher: err = %v, want ErrNotExamOwner", err)
	}
	if _, err := f.svc.GetSnapshot(999, f.teacherID); !errors.Is(err, ErrExamNotFound) {
		t.Errorf("unknown exam: err = %v, want ErrExamNotFound", err)
	}
}

func TestClassifyActivity(t *testing.T) {
	tests := []struct {
		name  string
		entry model.ActivityLog
		want  model.ActivityKind
	}{
		{"structured kind wins", model.ActivityLog{Kind: model.ActivityKindSubmit, Action: "violation recorded"}, model.ActivityKindSubmit},
		{"disqualification text", model.ActivityLog{Action: "Student 4 was disqualified"}, model.ActivityKindDisqualified},
		{"submit text", model.ActivityLog{Action: "student submitted the exam"}, model.ActivityKindSubmit},
		{"violation text", model.ActivityLog{Action: "Violation tab_switch recorded"}, model.ActivityKindWarning},
		{"answer text", model.ActivityLog{Action: "answer saved for question 2"}, model.ActivityKindAnswer},
		{"start text", model.ActivityLog{Action: "student started the exam"}, model.ActivityKindStart},
		{"unknown text", model.ActivityLog{Action: "something else entirely"}, model.ActivityKind("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyActivity(&tt.entry); got != tt.want {
				t.Errorf("classifyActivity = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSnapshotFeedLimit(t *testing.T) {
	f := newMonitorFixture(t)

	for i := 0; i < activityFeedLimit+10; i++ {
		examID := f.examID
		if err := f.activity.Append(&model.ActivityLog{
			ActorID: 1,
			Role:    "student",
			Kind:    model.ActivityKindAnswer,
			Action:  "answer saved",
			ExamID:  &examID,
		}); err != nil {
			t.Fatalf("append activity: %v", err)
		}
	}

	snap, err := f.svc.GetSnapshot(f.examID, f.teacherID)
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if len(snap.Feed) != activityFeedLimit {
		t.Errorf("feed length = %d, want capped at %d", len(snap.Feed), activityFeedLimit)
	}
}
