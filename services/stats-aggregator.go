package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"sitetrack/microservices/tasks-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	dueSoonWindow  = 7 * 24 * time.Hour
	deadlineWindow = 14 * 24 * time.Hour
	deadlineLimit  = 10
)

// StatsAggregator builds the dashboard statistics over the caller's full
// visible active task set. It runs its own unpaginated query: counts derived
// from a single page would be wrong whenever the set spans pages.
type StatsAggregator struct {
	tasks    TaskRepository
	projects ProjectDirectory
}

func NewStatsAggregator(tasks TaskRepository, projects ProjectDirectory) *StatsAggregator {
	return &StatsAggregator{tasks: tasks, projects: projects}
}

func (a *StatsAggregator) ComputeStats(ctx context.Context, scope []primitive.ObjectID, asOf time.Time) (*models.TaskStats, error) {
	if scope == nil {
		scope = []primitive.ObjectID{}
	}
	filter := models.TaskFilter{
		Scope:    scope,
		Statuses: models.ActiveStatuses,
	}
	active, _, err := a.tasks.Find(ctx, filter, models.Page{})
	if err != nil {
		return nil, NewInfrastructure("scan active tasks", err)
	}

	stats := &models.TaskStats{
		ByCategory:        map[models.TaskCategory]int{},
		ByProject:         []models.ProjectTaskStats{},
		UpcomingDeadlines: []models.UpcomingDeadline{},
	}
	// Absent categories report zero rather than being omitted.
	for _, c := range models.Categories {
		stats.ByCategory[c] = 0
	}

	type projectCounts struct {
		pending int
		urgent  int
	}
	perProject := map[primitive.ObjectID]*projectCounts{}

	dueSoonEnd := asOf.Add(dueSoonWindow)
	deadlineEnd := asOf.Add(deadlineWindow)

	var deadlines []models.Task
	for i := range active {
		t := &active[i]
		stats.TotalPending++
		if t.Priority == models.PriorityUrgent {
			stats.Urgent++
		}
		if t.Priority == models.PriorityHigh {
			stats.HighPriority++
		}
		if t.Status == models.StatusInProgress {
			stats.InProgress++
		}
		if t.Blocked() {
			stats.BlockedTasks++
		}
		if t.ScheduledDate != nil {
			sd := *t.ScheduledDate
			if sd.Before(asOf) {
				stats.Overdue++
			} else if !sd.After(dueSoonEnd) {
				stats.DueSoon++
			}
			if !sd.Before(asOf) && !sd.After(deadlineEnd) {
				deadlines = append(deadlines, *t)
			}
		}
		category := t.Category
		if !category.Valid() {
			category = models.CategoryOther
		}
		stats.ByCategory[category]++

		pc := perProject[t.ProjectID]
		if pc == nil {
			pc = &projectCounts{}
			perProject[t.ProjectID] = pc
		}
		pc.pending++
		if t.Priority == models.PriorityUrgent {
			pc.urgent++
		}
	}

	wanted := map[primitive.ObjectID]struct{}{}
	for id := range perProject {
		wanted[id] = struct{}{}
	}
	for _, t := range deadlines {
		wanted[t.ProjectID] = struct{}{}
	}
	titles, err := a.projectTitles(ctx, wanted)
	if err != nil {
		return nil, err
	}

	for projectID, pc := range perProject {
		stats.ByProject = append(stats.ByProject, models.ProjectTaskStats{
			ProjectID:    projectID,
			ProjectTitle: titles[projectID],
			PendingCount: pc.pending,
			UrgentCount:  pc.urgent,
		})
	}
	sort.Slice(stats.ByProject, func(i, j int) bool {
		pi, pj := stats.ByProject[i], stats.ByProject[j]
		if pi.UrgentCount != pj.UrgentCount {
			return pi.UrgentCount > pj.UrgentCount
		}
		if pi.PendingCount != pj.PendingCount {
			return pi.PendingCount > pj.PendingCount
		}
		return strings.Compare(pi.ProjectID.Hex(), pj.ProjectID.Hex()) < 0
	})

	sort.SliceStable(deadlines, func(i, j int) bool {
		return deadlines[i].ScheduledDate.Before(*deadlines[j].ScheduledDate)
	})
	if len(deadlines) > deadlineLimit {
		deadlines = deadlines[:deadlineLimit]
	}
	for _, t := range deadlines {
		stats.UpcomingDeadlines = append(stats.UpcomingDeadlines, models.UpcomingDeadline{
			ID:            t.ID,
			Title:         t.Title,
			ScheduledDate: *t.ScheduledDate,
			ProjectTitle:  titles[t.ProjectID],
			Priority:      t.Priority,
		})
	}

	return stats, nil
}

// projectTitles resolves titles for every project id in wanted. A project
// deleted between the task scan and the lookup keeps an empty title instead
// of failing the whole aggregation.
func (a *StatsAggregator) projectTitles(ctx context.Context, wanted map[primitive.ObjectID]struct{}) (map[primitive.ObjectID]string, error) {
	titles := map[primitive.ObjectID]string{}
	for id := range wanted {
		project, err := a.projects.Get(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				titles[id] = ""
				continue
			}
			return nil, NewInfrastructure("load project", err)
		}
		titles[id] = project.Title
	}
	return titles, nil
}
