package service

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/smartexam/server/internal/model"
)

// maxDrawAttempts bounds the search for an unused question subset per
// student. Uniqueness is best-effort: once the enrolled count approaches the
// number of possible subsets, collisions are accepted rather than rejected.
const maxDrawAttempts = 100

// TicketAllocator materializes one ticket per enrolled student for an exam,
// each holding a randomly drawn fixed-size subset of the question pool.
type TicketAllocator interface {
	Allocate(examID uint, pool []uint, questionsPerTicket int, studentIDs []uint) []model.Ticket
}

type ticketAllocator struct {
	rng *rand.Rand
}

func NewTicketAllocator() TicketAllocator {
	return &ticketAllocator{rng: rand.New(rand.NewSource(rand.Int63()))}
}

// NewTicketAllocatorWithSeed fixes the random source, for tests.
func NewTicketAllocatorWithSeed(seed int64) TicketAllocator {
	return &ticketAllocator{rng: rand.New(rand.NewSource(seed))}
}

// Allocate assigns ticket numbers in enrollment order (1-based). When the
// pool is smaller than questionsPerTicket the subsets come out short; pool
// validation belongs to the caller.
func (a *ticketAllocator) Allocate(examID uint, pool []uint, questionsPerTicket int, studentIDs []uint) []model.Ticket {
	used := make(map[string]bool, len(studentIDs))
	tickets := make([]model.Ticket, 0, len(studentIDs))

	for i, studentID := range studentIDs {
		var subset []uint
		for attempt := 0; attempt < maxDrawAttempts; attempt++ {
			subset = a.drawSubset(pool, questionsPerTicket)
			if !used[subsetSignature(subset)] {
				break
			}
		}
		sig := subsetSignature(subset)
		if used[sig] {
			log.Warn().
				Uint("exam_id", examID).
				Uint("student_id", studentID).
				Msg("Ticket subset collides after exhausting draw attempts, accepting duplicate")
		}
		used[sig] = true

		tickets = append(tickets, model.Ticket{
			ExamID:      examID,
			StudentID:   studentID,
			Number:      i + 1,
			QuestionIDs: model.UintsJSON(subset),
		})
	}
	return tickets
}

func (a *ticketAllocator) drawSubset(pool []uint, size int) []uint {
	shuffled := make([]uint, len(pool))
	copy(shuffled, pool)
	a.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if size > len(shuffled) {
		size = len(shuffled)
	}
	return shuffled[:size]
}

// subsetSignature is order-insensitive: two draws of the same questions in a
// different order still collide.
func subsetSignature(subset []uint) string {
	ids := make([]uint, len(subset))
	copy(ids, subset)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte('-')
		}
		fmt.Fprintf(&b, "%d", id)
	}
	return b.String()
}
