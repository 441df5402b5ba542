package services_test

import (
	"context"
	"errors"
	"testing"

	"sitetrack/microservices/tasks-service/models"
	"sitetrack/microservices/tasks-service/repositories"
	"sitetrack/microservices/tasks-service/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newGuard(t *testing.T) (*services.DependencyGuard, *repositories.MemoryTaskRepo, *repositories.MemoryUserRepo) {
	t.Helper()
	tasks := repositories.NewMemoryTaskRepo()
	users := repositories.NewMemoryUserRepo()
	return services.NewDependencyGuard(tasks, users), tasks, users
}

func insertTask(t *testing.T, repo *repositories.MemoryTaskRepo, task models.Task) models.Task {
	t.Helper()
	id, err := repo.Insert(context.Background(), &task)
	require.NoError(t, err)
	task.ID = id
	return task
}

func TestDependencyGuard_ValidateReferences(t *testing.T) {
	guard, tasks, users := newGuard(t)
	ctx := context.Background()

	existingUser := models.User{ID: primitive.NewObjectID(), Role: models.RoleProjectManager}
	users.Put(existingUser)
	existing := insertTask(t, tasks, models.Task{Title: "pour foundation", Status: models.StatusPending})

	t.Run("resolvable references pass", func(t *testing.T) {
		candidate := &models.Task{
			ID:           primitive.NewObjectID(),
			AssignedTo:   &existingUser.ID,
			Dependencies: []primitive.ObjectID{existing.ID},
		}
		assert.NoError(t, guard.ValidateReferences(ctx, candidate))
	})

	t.Run("unknown assignee is rejected", func(t *testing.T) {
		ghost := primitive.NewObjectID()
		candidate := &models.Task{ID: primitive.NewObjectID(), AssignedTo: &ghost}
		err := guard.ValidateReferences(ctx, candidate)
		require.Error(t, err)
		assert.True(t, services.IsCode(err, services.CodeInvalidReference))

		var de *services.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, ghost.Hex(), de.Details["id"])
	})

	t.Run("unknown dependency is rejected with the first unresolved id", func(t *testing.T) {
		ghost := primitive.NewObjectID()
		candidate := &models.Task{
			ID:           primitive.NewObjectID(),
			Dependencies: []primitive.ObjectID{existing.ID, ghost},
		}
		err := guard.ValidateReferences(ctx, candidate)
		require.True(t, services.IsCode(err, services.CodeInvalidReference))

		var de *services.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, ghost.Hex(), de.Details["id"])
	})
}

func TestDependencyGuard_SelfDependency(t *testing.T) {
	guard, _, _ := newGuard(t)

	id := primitive.NewObjectID()
	candidate := &models.Task{ID: id, Dependencies: []primitive.ObjectID{primitive.NewObjectID(), id}}

	err := guard.ValidateNoSelfDependency(candidate)
	assert.True(t, services.IsCode(err, services.CodeSelfDependency))

	candidate.Dependencies = []primitive.ObjectID{primitive.NewObjectID()}
	assert.NoError(t, guard.ValidateNoSelfDependency(candidate))
}

func TestDependencyGuard_ValidateAcyclic(t *testing.T) {
	guard, tasks, _ := newGuard(t)
	ctx := context.Background()

	// c -> b -> a; pointing a at c would close the loop.
	a := insertTask(t, tasks, models.Task{Title: "a", Status: models.StatusPending})
	b := insertTask(t, tasks, models.Task{Title: "b", Status: models.StatusPending, Dependencies: []primitive.ObjectID{a.ID}})
	c := insertTask(t, tasks, models.Task{Title: "c", Status: models.StatusPending, Dependencies: []primitive.ObjectID{b.ID}})

	err := guard.ValidateAcyclic(ctx, a.ID, []primitive.ObjectID{c.ID})
	assert.True(t, services.IsCode(err, services.CodeDependencyCycle))

	// A fresh node may depend on the chain head.
	assert.NoError(t, guard.ValidateAcyclic(ctx, primitive.NewObjectID(), []primitive.ObjectID{c.ID}))

	// Dangling ids are not this check's failure mode.
	assert.NoError(t, guard.ValidateAcyclic(ctx, a.ID, []primitive.ObjectID{primitive.NewObjectID()}))
}

func TestDependencyGuard_GuardDeletion(t *testing.T) {
	guard, tasks, _ := newGuard(t)
	ctx := context.Background()

	a := insertTask(t, tasks, models.Task{Title: "a", Status: models.StatusPending})
	b := insertTask(t, tasks, models.Task{Title: "b", Status: models.StatusPending, Dependencies: []primitive.ObjectID{a.ID}})

	err := guard.GuardDeletion(ctx, a.ID)
	require.Error(t, err)
	assert.True(t, services.IsCode(err, services.CodeHasDependents))

	var de *services.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, int64(1), de.Details["dependents"])

	require.NoError(t, tasks.Delete(ctx, b.ID))
	assert.NoError(t, guard.GuardDeletion(ctx, a.ID))
}
