package services

import (
	"context"
	"errors"

	"sitetrack/microservices/tasks-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DependencyGuard validates dependency references before anything is
// persisted. Validation is deliberately synchronous and pre-write: a task
// list that silently references missing tasks or users breaks every
// downstream dashboard and report.
type DependencyGuard struct {
	tasks TaskRepository
	users UserDirectory
}

func NewDependencyGuard(tasks TaskRepository, users UserDirectory) *DependencyGuard {
	return &DependencyGuard{tasks: tasks, users: users}
}

// ValidateReferences confirms the assignee and every dependency id resolve
// to existing records, reporting the first unresolved id.
func (g *DependencyGuard) ValidateReferences(ctx context.Context, task *models.Task) error {
	if task.AssignedTo != nil {
		ok, err := g.users.Exists(ctx, *task.AssignedTo)
		if err != nil {
			return NewInfrastructure("check assignee", err)
		}
		if !ok {
			return NewInvalidReference("assignedTo", task.AssignedTo.Hex())
		}
	}
	for _, depID := range task.Dependencies {
		_, err := g.tasks.FindByID(ctx, depID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return NewInvalidReference("dependencies", depID.Hex())
			}
			return NewInfrastructure("check dependency", err)
		}
	}
	return nil
}

// ValidateNoSelfDependency rejects a task that lists its own id.
func (g *DependencyGuard) ValidateNoSelfDependency(task *models.Task) error {
	for _, depID := range task.Dependencies {
		if depID == task.ID {
			return NewSelfDependency(task.ID.Hex())
		}
	}
	return nil
}

// ValidateAcyclic walks the dependency graph from each direct dependency and
// rejects the write if it can reach the task itself. Dangling ids are
// skipped here; ValidateReferences already owns that failure mode.
func (g *DependencyGuard) ValidateAcyclic(ctx context.Context, taskID primitive.ObjectID, deps []primitive.ObjectID) error {
	visited := map[primitive.ObjectID]bool{}
	stack := append([]primitive.ObjectID(nil), deps...)
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current == taskID {
			return NewDependencyCycle(taskID.Hex())
		}
		if visited[current] {
			continue
		}
		visited[current] = true
		task, err := g.tasks.FindByID(ctx, current)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return NewInfrastructure("walk dependencies", err)
		}
		stack = append(stack, task.Dependencies...)
	}
	return nil
}

// GuardDeletion blocks deletion while other tasks still depend on the
// target, reporting the dependent count to the caller. The count is read
// before the delete; the window between the two is accepted (single-document
// store, no multi-record transaction).
func (g *DependencyGuard) GuardDeletion(ctx context.Context, taskID primitive.ObjectID) error {
	count, err := g.tasks.CountDependents(ctx, taskID)
	if err != nil {
		return NewInfrastructure("count dependents", err)
	}
	if count > 0 {
		return NewHasDependents(count)
	}
	return nil
}
