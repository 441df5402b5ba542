package services

import (
	"context"
	"errors"

	"sitetrack/microservices/tasks-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is the repository-level sentinel for a missing record.
// Repositories return it; services translate it into a domain error.
var ErrNotFound = errors.New("record not found")

// TaskRepository is the narrow persistence boundary for tasks. No business
// rules live behind it; Find returns pages in the canonical execution order
// so pagination and ranking always agree.
type TaskRepository interface {
	Find(ctx context.Context, filter models.TaskFilter, page models.Page) ([]models.Task, int64, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	Insert(ctx context.Context, task *models.Task) (primitive.ObjectID, error)
	UpdateFields(ctx context.Context, id primitive.ObjectID, update models.TaskUpdate) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountDependents(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// ProjectDirectory exposes the project records this service reads for
// visibility scoping, ownership checks and dashboard titles.
type ProjectDirectory interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Project, error)
	IDs(ctx context.Context) ([]primitive.ObjectID, error)
	IDsByManager(ctx context.Context, managerID primitive.ObjectID) ([]primitive.ObjectID, error)
	IDsByClient(ctx context.Context, clientID primitive.ObjectID) ([]primitive.ObjectID, error)
}

// UserDirectory answers existence checks for assignee references.
type UserDirectory interface {
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
}
