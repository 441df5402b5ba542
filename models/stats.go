package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskStats is the dashboard read-model, computed over the caller's full
// visible active task set rather than a paginated page.
type TaskStats struct {
	TotalPending      int                  `json:"totalPending"`
	Urgent            int                  `json:"urgent"`
	HighPriority      int                  `json:"highPriority"`
	InProgress        int                  `json:"inProgress"`
	DueSoon           int                  `json:"dueSoon"`
	Overdue           int                  `json:"overdue"`
	BlockedTasks      int                  `json:"blockedTasks"`
	ByCategory        map[TaskCategory]int `json:"byCategory"`
	ByProject         []ProjectTaskStats   `json:"byProject"`
	UpcomingDeadlines []UpcomingDeadline   `json:"upcomingDeadlines"`
}

type ProjectTaskStats struct {
	ProjectID    primitive.ObjectID `json:"projectId"`
	ProjectTitle string             `json:"projectTitle"`
	PendingCount int                `json:"pendingCount"`
	UrgentCount  int                `json:"urgentCount"`
}

type UpcomingDeadline struct {
	ID            primitive.ObjectID `json:"id"`
	Title         string             `json:"title"`
	ScheduledDate time.Time          `json:"scheduledDate"`
	ProjectTitle  string             `json:"projectTitle"`
	Priority      TaskPriority       `json:"priority"`
}
