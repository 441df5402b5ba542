package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskFilter is a conjunction of the recognized query predicates. A nil
// pointer or empty slice means the predicate is not applied, except Scope:
// a non-nil empty scope matches nothing, so an empty visibility set can
// never widen a query.
type TaskFilter struct {
	Scope           []primitive.ObjectID
	Statuses        []TaskStatus
	Priority        *TaskPriority
	Category        *TaskCategory
	AssignedTo      *primitive.ObjectID
	Blocked         bool
	ScheduledBefore *time.Time
}

// Matches evaluates the filter against a single task. The Mongo repository
// translates the same predicates into a server-side query; the in-memory
// repository applies this directly.
func (f TaskFilter) Matches(t *Task) bool {
	if f.Scope != nil {
		inScope := false
		for _, p := range f.Scope {
			if p == t.ProjectID {
				inScope = true
				break
			}
		}
		if !inScope {
			return false
		}
	}
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if s == t.Status {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.Category != nil && t.Category != *f.Category {
		return false
	}
	if f.AssignedTo != nil && (t.AssignedTo == nil || *t.AssignedTo != *f.AssignedTo) {
		return false
	}
	if f.Blocked && !t.Blocked() {
		return false
	}
	if f.ScheduledBefore != nil {
		if t.ScheduledDate == nil || t.ScheduledDate.After(*f.ScheduledBefore) {
			return false
		}
	}
	return true
}

// Page is offset+limit pagination. A zero Limit disables pagination and
// returns the full matching set, which the stats aggregator relies on.
type Page struct {
	Number int
	Limit  int
}

func (p Page) Skip() int {
	if p.Number <= 1 {
		return 0
	}
	return (p.Number - 1) * p.Limit
}

// TaskUpdate is a partial-field update record. Nil fields are untouched.
// There is deliberately no project field: projectId is immutable.
type TaskUpdate struct {
	Title              *string               `bson:"title,omitempty"`
	Description        *string               `bson:"description,omitempty"`
	Status             *TaskStatus           `bson:"status,omitempty"`
	Priority           *TaskPriority         `bson:"priority,omitempty"`
	Category           *TaskCategory         `bson:"category,omitempty"`
	Progress           *int                  `bson:"progress,omitempty"`
	AssignedTo         *primitive.ObjectID   `bson:"assignedTo,omitempty"`
	Dependencies       *[]primitive.ObjectID `bson:"dependencies,omitempty"`
	Blockers           *[]string             `bson:"blockers,omitempty"`
	ScheduledDate      *time.Time            `bson:"scheduledDate,omitempty"`
	EstimatedStartDate *time.Time            `bson:"estimatedStartDate,omitempty"`
	EstimatedDuration  *string               `bson:"estimatedDuration,omitempty"`
	UpdatedBy          primitive.ObjectID    `bson:"updatedBy"`
	UpdatedAt          time.Time             `bson:"updatedAt"`
}

// Apply copies the set fields onto a task, mirroring the $set document the
// Mongo repository builds.
func (u TaskUpdate) Apply(t *Task) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	if u.Priority != nil {
		t.Priority = *u.Priority
	}
	if u.Category != nil {
		t.Category = *u.Category
	}
	if u.Progress != nil {
		t.Progress = *u.Progress
	}
	if u.AssignedTo != nil {
		assigned := *u.AssignedTo
		t.AssignedTo = &assigned
	}
	if u.Dependencies != nil {
		t.Dependencies = append([]primitive.ObjectID(nil), (*u.Dependencies)...)
	}
	if u.Blockers != nil {
		t.Blockers = append([]string(nil), (*u.Blockers)...)
	}
	if u.ScheduledDate != nil {
		scheduled := *u.ScheduledDate
		t.ScheduledDate = &scheduled
	}
	if u.EstimatedStartDate != nil {
		start := *u.EstimatedStartDate
		t.EstimatedStartDate = &start
	}
	if u.EstimatedDuration != nil {
		t.EstimatedDuration = *u.EstimatedDuration
	}
	t.UpdatedBy = u.UpdatedBy
	t.UpdatedAt = u.UpdatedAt
}
