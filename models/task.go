package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
)

// ActiveStatuses are the statuses surfaced by listings and statistics.
// Completed and cancelled tasks are terminal and excluded.
var ActiveStatuses = []TaskStatus{StatusPending, StatusInProgress}

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s TaskStatus) Active() bool {
	return s == StatusPending || s == StatusInProgress
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Rank maps a priority to its sort rank; lower ranks sort first.
// Unknown values rank after low so malformed records never float up.
func (p TaskPriority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 1
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 3
	case PriorityLow:
		return 4
	}
	return 5
}

type TaskCategory string

const (
	CategoryStructural TaskCategory = "structural"
	CategoryElectrical TaskCategory = "electrical"
	CategoryPlumbing   TaskCategory = "plumbing"
	CategoryFinishing  TaskCategory = "finishing"
	CategoryOther      TaskCategory = "other"
)

// Categories lists every category value, used to report zero counts.
var Categories = []TaskCategory{
	CategoryStructural,
	CategoryElectrical,
	CategoryPlumbing,
	CategoryFinishing,
	CategoryOther,
}

func (c TaskCategory) Valid() bool {
	switch c {
	case CategoryStructural, CategoryElectrical, CategoryPlumbing, CategoryFinishing, CategoryOther:
		return true
	}
	return false
}

type Task struct {
	ID                 primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	ProjectID          primitive.ObjectID   `json:"projectId" bson:"projectId"`
	Title              string               `json:"title" bson:"title"`
	Description        string               `json:"description,omitempty" bson:"description,omitempty"`
	Status             TaskStatus           `json:"status" bson:"status"`
	Priority           TaskPriority         `json:"priority" bson:"priority"`
	Category           TaskCategory         `json:"category" bson:"category"`
	Progress           int                  `json:"progress" bson:"progress"`
	AssignedTo         *primitive.ObjectID  `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`
	Dependencies       []primitive.ObjectID `json:"dependencies,omitempty" bson:"dependencies,omitempty"`
	Blockers           []string             `json:"blockers,omitempty" bson:"blockers,omitempty"`
	ScheduledDate      *time.Time           `json:"scheduledDate,omitempty" bson:"scheduledDate,omitempty"`
	EstimatedStartDate *time.Time           `json:"estimatedStartDate,omitempty" bson:"estimatedStartDate,omitempty"`
	EstimatedDuration  string               `json:"estimatedDuration,omitempty" bson:"estimatedDuration,omitempty"`
	CreatedBy          primitive.ObjectID   `json:"createdBy" bson:"createdBy"`
	CreatedAt          time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time            `json:"updatedAt" bson:"updatedAt"`
	UpdatedBy          primitive.ObjectID   `json:"updatedBy" bson:"updatedBy"`
}

// Blocked reports whether the task carries at least one blocker entry.
func (t *Task) Blocked() bool {
	return len(t.Blockers) > 0
}
