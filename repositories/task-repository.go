package repositories

import (
	"context"
	"fmt"
	"time"

	"sitetrack/microservices/tasks-service/models"
	"sitetrack/microservices/tasks-service/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// unscheduledSortKey substitutes for a missing scheduledDate so unscheduled
// tasks sort after every scheduled one.
var unscheduledSortKey = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// TaskRepo is the MongoDB implementation of the task store.
type TaskRepo struct {
	collection *mongo.Collection
}

func NewTaskRepo(collection *mongo.Collection) *TaskRepo {
	return &TaskRepo{collection: collection}
}

var _ services.TaskRepository = (*TaskRepo)(nil)

func buildTaskQuery(filter models.TaskFilter) bson.M {
	query := bson.M{}
	if filter.Scope != nil {
		query["projectId"] = bson.M{"$in": filter.Scope}
	}
	if len(filter.Statuses) > 0 {
		query["status"] = bson.M{"$in": filter.Statuses}
	}
	if filter.Priority != nil {
		query["priority"] = *filter.Priority
	}
	if filter.Category != nil {
		query["category"] = *filter.Category
	}
	if filter.AssignedTo != nil {
		query["assignedTo"] = *filter.AssignedTo
	}
	if filter.Blocked {
		query["blockers.0"] = bson.M{"$exists": true}
	}
	if filter.ScheduledBefore != nil {
		query["scheduledDate"] = bson.M{"$lte": *filter.ScheduledBefore}
	}
	return query
}

// Find returns matching tasks in the canonical execution order together with
// the unpaginated total. The ordering is computed server-side with a derived
// rank field so that offset pagination and ranking always agree.
func (r *TaskRepo) Find(ctx context.Context, filter models.TaskFilter, page models.Page) ([]models.Task, int64, error) {
	query := buildTaskQuery(filter)

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	rankSwitch := bson.M{"$switch": bson.M{
		"branches": bson.A{
			bson.M{"case": bson.M{"$eq": bson.A{"$priority", models.PriorityUrgent}}, "then": 1},
			bson.M{"case": bson.M{"$eq": bson.A{"$priority", models.PriorityHigh}}, "then": 2},
			bson.M{"case": bson.M{"$eq": bson.A{"$priority", models.PriorityMedium}}, "then": 3},
			bson.M{"case": bson.M{"$eq": bson.A{"$priority", models.PriorityLow}}, "then": 4},
		},
		"default": 5,
	}}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: query}},
		bson.D{{Key: "$addFields", Value: bson.M{
			"priorityRank": rankSwitch,
			"scheduleKey":  bson.M{"$ifNull": bson.A{"$scheduledDate", unscheduledSortKey}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "priorityRank", Value: 1},
			{Key: "scheduleKey", Value: 1},
			{Key: "createdAt", Value: 1},
			{Key: "_id", Value: 1},
		}}},
	}
	if page.Limit > 0 {
		pipeline = append(pipeline,
			bson.D{{Key: "$skip", Value: page.Skip()}},
			bson.D{{Key: "$limit", Value: page.Limit}},
		)
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, 0, fmt.Errorf("failed to decode tasks: %w", err)
	}
	return tasks, total, nil
}

func (r *TaskRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve task: %w", err)
	}
	return &task, nil
}

func (r *TaskRepo) Insert(ctx context.Context, task *models.Task) (primitive.ObjectID, error) {
	result, err := r.collection.InsertOne(ctx, task)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to create task: %w", err)
	}
	return result.InsertedID.(primitive.ObjectID), nil
}

func (r *TaskRepo) UpdateFields(ctx context.Context, id primitive.ObjectID, update models.TaskUpdate) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.MatchedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}

func (r *TaskRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.DeletedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}

// CountDependents counts the tasks whose dependencies array contains the id.
func (r *TaskRepo) CountDependents(ctx context.Context, id primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"dependencies": id})
	if err != nil {
		return 0, fmt.Errorf("failed to count dependents: %w", err)
	}
	return count, nil
}
