package services_test

import (
	"context"
	"testing"
	"time"

	"sitetrack/microservices/tasks-service/models"
	"sitetrack/microservices/tasks-service/repositories"
	"sitetrack/microservices/tasks-service/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newAggregatorFixture(t *testing.T) (*services.StatsAggregator, *repositories.MemoryTaskRepo, *repositories.MemoryProjectRepo) {
	t.Helper()
	tasks := repositories.NewMemoryTaskRepo()
	projects := repositories.NewMemoryProjectRepo()
	return services.NewStatsAggregator(tasks, projects), tasks, projects
}

func TestStatsAggregator_DashboardCounts(t *testing.T) {
	aggregator, tasks, projects := newAggregatorFixture(t)
	ctx := context.Background()
	asOf := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	project := models.Project{ID: primitive.NewObjectID(), Title: "Main Hall"}
	projects.Put(project)

	tomorrow := asOf.Add(24 * time.Hour)
	farOut := asOf.Add(20 * 24 * time.Hour)

	insertTask(t, tasks, models.Task{
		ProjectID:     project.ID,
		Title:         "set rebar",
		Status:        models.StatusPending,
		Priority:      models.PriorityUrgent,
		Category:      models.CategoryStructural,
		ScheduledDate: &tomorrow,
	})
	insertTask(t, tasks, models.Task{
		ProjectID:     project.ID,
		Title:         "rough-in wiring",
		Status:        models.StatusInProgress,
		Priority:      models.PriorityHigh,
		Category:      models.CategoryElectrical,
		ScheduledDate: &farOut,
	})
	insertTask(t, tasks, models.Task{
		ProjectID: project.ID,
		Title:     "paint walls",
		Status:    models.StatusPending,
		Priority:  models.PriorityMedium,
		Category:  models.CategoryFinishing,
		Blockers:  []string{"waiting on drywall delivery"},
	})
	// Terminal tasks never count.
	insertTask(t, tasks, models.Task{
		ProjectID: project.ID,
		Title:     "demolition",
		Status:    models.StatusCompleted,
		Priority:  models.PriorityUrgent,
		Category:  models.CategoryStructural,
	})

	stats, err := aggregator.ComputeStats(ctx, []primitive.ObjectID{project.ID}, asOf)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalPending)
	assert.Equal(t, 1, stats.Urgent)
	assert.Equal(t, 1, stats.HighPriority)
	assert.Equal(t, 1, stats.InProgress)
	assert.Equal(t, 1, stats.DueSoon)
	assert.Equal(t, 0, stats.Overdue)
	assert.Equal(t, 1, stats.BlockedTasks)

	require.Len(t, stats.ByCategory, len(models.Categories))
	sum := 0
	for _, c := range models.Categories {
		count, present := stats.ByCategory[c]
		assert.True(t, present, "category %s must be present", c)
		sum += count
	}
	assert.Equal(t, 3, sum)
	assert.Equal(t, 0, stats.ByCategory[models.CategoryPlumbing])
	assert.Equal(t, 0, stats.ByCategory[models.CategoryOther])
}

func TestStatsAggregator_OverdueAndWindows(t *testing.T) {
	aggregator, tasks, projects := newAggregatorFixture(t)
	ctx := context.Background()
	asOf := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	project := models.Project{ID: primitive.NewObjectID(), Title: "Annex"}
	projects.Put(project)

	yesterday := asOf.Add(-24 * time.Hour)
	inSixDays := asOf.Add(6 * 24 * time.Hour)
	inTenDays := asOf.Add(10 * 24 * time.Hour)
	inTwentyDays := asOf.Add(20 * 24 * time.Hour)

	for _, sd := range []*time.Time{&yesterday, &inSixDays, &inTenDays, &inTwentyDays} {
		insertTask(t, tasks, models.Task{
			ProjectID:     project.ID,
			Title:         "scheduled work",
			Status:        models.StatusPending,
			Priority:      models.PriorityMedium,
			Category:      models.CategoryOther,
			ScheduledDate: sd,
		})
	}

	stats, err := aggregator.ComputeStats(ctx, []primitive.ObjectID{project.ID}, asOf)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Overdue)
	assert.Equal(t, 1, stats.DueSoon)

	// Deadlines look 14 days ahead: the 6-day and 10-day tasks, ordered by date.
	require.Len(t, stats.UpcomingDeadlines, 2)
	assert.Equal(t, inSixDays, stats.UpcomingDeadlines[0].ScheduledDate)
	assert.Equal(t, inTenDays, stats.UpcomingDeadlines[1].ScheduledDate)
	assert.Equal(t, "Annex", stats.UpcomingDeadlines[0].ProjectTitle)
}

func TestStatsAggregator_UpcomingDeadlinesCap(t *testing.T) {
	aggregator, tasks, projects := newAggregatorFixture(t)
	ctx := context.Background()
	asOf := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	project := models.Project{ID: primitive.NewObjectID(), Title: "Tower"}
	projects.Put(project)

	for i := 0; i < 13; i++ {
		sd := asOf.Add(time.Duration(i+1) * 24 * time.Hour)
		insertTask(t, tasks, models.Task{
			ProjectID:     project.ID,
			Title:         "daily milestone",
			Status:        models.StatusPending,
			Priority:      models.PriorityMedium,
			Category:      models.CategoryOther,
			ScheduledDate: &sd,
		})
	}

	stats, err := aggregator.ComputeStats(ctx, []primitive.ObjectID{project.ID}, asOf)
	require.NoError(t, err)

	require.Len(t, stats.UpcomingDeadlines, 10)
	for i := 1; i < len(stats.UpcomingDeadlines); i++ {
		assert.False(t, stats.UpcomingDeadlines[i].ScheduledDate.Before(stats.UpcomingDeadlines[i-1].ScheduledDate))
	}
}

func TestStatsAggregator_ByProjectOrdering(t *testing.T) {
	aggregator, tasks, projects := newAggregatorFixture(t)
	ctx := context.Background()
	asOf := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	calm := models.Project{ID: primitive.NewObjectID(), Title: "Calm Site"}
	busy := models.Project{ID: primitive.NewObjectID(), Title: "Busy Site"}
	idle := models.Project{ID: primitive.NewObjectID(), Title: "Idle Site"}
	projects.Put(calm)
	projects.Put(busy)
	projects.Put(idle)

	for i := 0; i < 3; i++ {
		insertTask(t, tasks, models.Task{
			ProjectID: calm.ID, Title: "steady work", Status: models.StatusPending,
			Priority: models.PriorityMedium, Category: models.CategoryOther,
		})
	}
	insertTask(t, tasks, models.Task{
		ProjectID: busy.ID, Title: "fire drill", Status: models.StatusPending,
		Priority: models.PriorityUrgent, Category: models.CategoryOther,
	})
	// Idle has only a terminal task and must be omitted.
	insertTask(t, tasks, models.Task{
		ProjectID: idle.ID, Title: "done", Status: models.StatusCancelled,
		Priority: models.PriorityLow, Category: models.CategoryOther,
	})

	scope := []primitive.ObjectID{calm.ID, busy.ID, idle.ID}
	stats, err := aggregator.ComputeStats(ctx, scope, asOf)
	require.NoError(t, err)

	require.Len(t, stats.ByProject, 2)
	assert.Equal(t, "Busy Site", stats.ByProject[0].ProjectTitle)
	assert.Equal(t, 1, stats.ByProject[0].UrgentCount)
	assert.Equal(t, "Calm Site", stats.ByProject[1].ProjectTitle)
	assert.Equal(t, 3, stats.ByProject[1].PendingCount)
}

func TestStatsAggregator_EmptyScope(t *testing.T) {
	aggregator, tasks, projects := newAggregatorFixture(t)
	ctx := context.Background()

	project := models.Project{ID: primitive.NewObjectID(), Title: "Hidden"}
	projects.Put(project)
	insertTask(t, tasks, models.Task{
		ProjectID: project.ID, Title: "invisible", Status: models.StatusPending,
		Priority: models.PriorityUrgent, Category: models.CategoryOther,
	})

	stats, err := aggregator.ComputeStats(ctx, []primitive.ObjectID{}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 0, stats.TotalPending)
	assert.Empty(t, stats.ByProject)
	assert.Empty(t, stats.UpcomingDeadlines)
	assert.Len(t, stats.ByCategory, len(models.Categories))
}
