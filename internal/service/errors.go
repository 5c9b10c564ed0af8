package service

import "errors"

// Precondition failures surfaced synchronously to callers. Controllers map
// these to HTTP status codes with errors.Is.
var (
	ErrNoTicketAssigned = errors.New("no ticket assigned for this exam and student")
	ErrAlreadySubmitted = errors.New("session has already been submitted")
	ErrSessionNotFound  = errors.New("exam session not found")
	ErrExamNotFound     = errors.New("exam not found")
	ErrNotExamOwner     = errors.New("exam is not owned by this teacher")
	ErrAnswerNotFound   = errors.New("answer not found")
	ErrQuestionNotFound = errors.New("question not found")
)
