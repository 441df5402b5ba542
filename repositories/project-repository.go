package repositories

import (
	"context"
	"fmt"

	"sitetrack/microservices/tasks-service/models"
	"sitetrack/microservices/tasks-service/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProjectRepo reads the projects collection owned by the projects service.
// This service never writes to it.
type ProjectRepo struct {
	collection *mongo.Collection
}

func NewProjectRepo(collection *mongo.Collection) *ProjectRepo {
	return &ProjectRepo{collection: collection}
}

var _ services.ProjectDirectory = (*ProjectRepo)(nil)

func (r *ProjectRepo) Get(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var project models.Project
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&project)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve project: %w", err)
	}
	return &project, nil
}

func (r *ProjectRepo) IDs(ctx context.Context) ([]primitive.ObjectID, error) {
	return r.idsByFilter(ctx, bson.M{})
}

func (r *ProjectRepo) IDsByManager(ctx context.Context, managerID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return r.idsByFilter(ctx, bson.M{"managerId": managerID})
}

func (r *ProjectRepo) IDsByClient(ctx context.Context, clientID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return r.idsByFilter(ctx, bson.M{"clientId": clientID})
}

func (r *ProjectRepo) idsByFilter(ctx context.Context, filter bson.M) ([]primitive.ObjectID, error) {
	projection := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, filter, projection)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve projects: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}
