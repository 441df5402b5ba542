package services

import (
	"sort"
	"strings"

	"sitetrack/microservices/tasks-service/models"
)

// PriorityRanker defines the one comparison every listing uses, so "next
// task to work on" is stable across repeated calls with unchanged data.
// Order: priority rank, then scheduledDate ascending with unscheduled tasks
// last, then createdAt ascending, then id as the final stabilizer.
type PriorityRanker struct{}

func NewPriorityRanker() *PriorityRanker {
	return &PriorityRanker{}
}

// Less reports whether a sorts before b.
func (PriorityRanker) Less(a, b *models.Task) bool {
	ra, rb := a.Priority.Rank(), b.Priority.Rank()
	if ra != rb {
		return ra < rb
	}
	switch {
	case a.ScheduledDate != nil && b.ScheduledDate != nil:
		if !a.ScheduledDate.Equal(*b.ScheduledDate) {
			return a.ScheduledDate.Before(*b.ScheduledDate)
		}
	case a.ScheduledDate != nil:
		return true
	case b.ScheduledDate != nil:
		return false
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return strings.Compare(a.ID.Hex(), b.ID.Hex()) < 0
}

// Sort orders tasks in place by the canonical order.
func (r PriorityRanker) Sort(tasks []models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return r.Less(&tasks[i], &tasks[j])
	})
}
