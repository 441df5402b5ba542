package services_test

import (
	"testing"
	"time"

	"sitetrack/microservices/tasks-service/models"
	"sitetrack/microservices/tasks-service/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func taskWith(priority models.TaskPriority, scheduled *time.Time, created time.Time) models.Task {
	return models.Task{
		ID:            primitive.NewObjectID(),
		Priority:      priority,
		ScheduledDate: scheduled,
		CreatedAt:     created,
	}
}

func TestPriorityRanker_UrgentBeforeHigh(t *testing.T) {
	ranker := services.NewPriorityRanker()
	now := time.Now()
	tomorrow := now.Add(24 * time.Hour)

	// An urgent task with no scheduled date still sorts before a high task
	// with any scheduled date.
	urgent := taskWith(models.PriorityUrgent, nil, now)
	high := taskWith(models.PriorityHigh, &tomorrow, now)

	assert.True(t, ranker.Less(&urgent, &high))
	assert.False(t, ranker.Less(&high, &urgent))
}

func TestPriorityRanker_ScheduledBeforeUnscheduled(t *testing.T) {
	ranker := services.NewPriorityRanker()
	now := time.Now()
	later := now.Add(30 * 24 * time.Hour)

	scheduled := taskWith(models.PriorityMedium, &later, now)
	unscheduled := taskWith(models.PriorityMedium, nil, now.Add(-time.Hour))

	assert.True(t, ranker.Less(&scheduled, &unscheduled))
}

func TestPriorityRanker_CreatedAtTieBreak(t *testing.T) {
	ranker := services.NewPriorityRanker()
	now := time.Now()

	older := taskWith(models.PriorityLow, nil, now.Add(-48*time.Hour))
	newer := taskWith(models.PriorityLow, nil, now)

	assert.True(t, ranker.Less(&older, &newer))
}

func TestPriorityRanker_SortIsDeterministic(t *testing.T) {
	ranker := services.NewPriorityRanker()
	now := time.Now()
	soon := now.Add(2 * time.Hour)
	later := now.Add(72 * time.Hour)

	tasks := []models.Task{
		taskWith(models.PriorityLow, nil, now),
		taskWith(models.PriorityUrgent, &later, now),
		taskWith(models.PriorityUrgent, &soon, now),
		taskWith(models.PriorityMedium, &soon, now),
		taskWith(models.PriorityHigh, nil, now.Add(-time.Hour)),
		taskWith(models.PriorityHigh, nil, now),
	}

	first := append([]models.Task(nil), tasks...)
	ranker.Sort(first)

	// Reversed input must produce the identical order.
	second := make([]models.Task, 0, len(tasks))
	for i := len(tasks) - 1; i >= 0; i-- {
		second = append(second, tasks[i])
	}
	ranker.Sort(second)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID, "position %d differs", i)
	}

	assert.Equal(t, models.PriorityUrgent, first[0].Priority)
	assert.Equal(t, soon.Unix(), first[0].ScheduledDate.Unix())
}
