package repositories

import (
	"context"
	"sync"

	"sitetrack/microservices/tasks-service/models"
	"sitetrack/microservices/tasks-service/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryTaskRepo is a map-backed task store, usable as a local development
// driver and as the store double in tests. It applies the same filter and
// ordering semantics as the Mongo repository.
type MemoryTaskRepo struct {
	mtx    sync.RWMutex
	tasks  map[primitive.ObjectID]models.Task
	ranker *services.PriorityRanker
}

func NewMemoryTaskRepo() *MemoryTaskRepo {
	return &MemoryTaskRepo{
		tasks:  make(map[primitive.ObjectID]models.Task),
		ranker: services.NewPriorityRanker(),
	}
}

var _ services.TaskRepository = (*MemoryTaskRepo)(nil)

func (r *MemoryTaskRepo) Find(ctx context.Context, filter models.TaskFilter, page models.Page) ([]models.Task, int64, error) {
	r.mtx.RLock()
	var matched []models.Task
	for _, task := range r.tasks {
		if filter.Matches(&task) {
			matched = append(matched, task)
		}
	}
	r.mtx.RUnlock()

	r.ranker.Sort(matched)
	total := int64(len(matched))

	if page.Limit > 0 {
		skip := page.Skip()
		if skip >= len(matched) {
			return []models.Task{}, total, nil
		}
		end := skip + page.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[skip:end]
	}
	if matched == nil {
		matched = []models.Task{}
	}
	return matched, total, nil
}

func (r *MemoryTaskRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	return &task, nil
}

func (r *MemoryTaskRepo) Insert(ctx context.Context, task *models.Task) (primitive.ObjectID, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	r.tasks[task.ID] = *task
	return task.ID, nil
}

func (r *MemoryTaskRepo) UpdateFields(ctx context.Context, id primitive.ObjectID, update models.TaskUpdate) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	task, ok := r.tasks[id]
	if !ok {
		return services.ErrNotFound
	}
	update.Apply(&task)
	r.tasks[id] = task
	return nil
}

func (r *MemoryTaskRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return services.ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *MemoryTaskRepo) CountDependents(ctx context.Context, id primitive.ObjectID) (int64, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	var count int64
	for _, task := range r.tasks {
		for _, depID := range task.Dependencies {
			if depID == id {
				count++
				break
			}
		}
	}
	return count, nil
}

// MemoryProjectRepo holds project records for the memory driver and tests.
type MemoryProjectRepo struct {
	mtx      sync.RWMutex
	projects map[primitive.ObjectID]models.Project
}

func NewMemoryProjectRepo() *MemoryProjectRepo {
	return &MemoryProjectRepo{projects: make(map[primitive.ObjectID]models.Project)}
}

var _ services.ProjectDirectory = (*MemoryProjectRepo)(nil)

func (r *MemoryProjectRepo) Put(project models.Project) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.projects[project.ID] = project
}

func (r *MemoryProjectRepo) Get(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	project, ok := r.projects[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	return &project, nil
}

func (r *MemoryProjectRepo) IDs(ctx context.Context) ([]primitive.ObjectID, error) {
	return r.idsWhere(func(models.Project) bool { return true })
}

func (r *MemoryProjectRepo) IDsByManager(ctx context.Context, managerID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return r.idsWhere(func(p models.Project) bool { return p.Manager == managerID })
}

func (r *MemoryProjectRepo) IDsByClient(ctx context.Context, clientID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return r.idsWhere(func(p models.Project) bool { return p.ClientID == clientID })
}

func (r *MemoryProjectRepo) idsWhere(keep func(models.Project) bool) ([]primitive.ObjectID, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	ids := make([]primitive.ObjectID, 0, len(r.projects))
	for id, project := range r.projects {
		if keep(project) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// MemoryUserRepo holds user records for the memory driver and tests.
type MemoryUserRepo struct {
	mtx   sync.RWMutex
	users map[primitive.ObjectID]models.User
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{users: make(map[primitive.ObjectID]models.User)}
}

var _ services.UserDirectory = (*MemoryUserRepo)(nil)

func (r *MemoryUserRepo) Put(user models.User) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.users[user.ID] = user
}

func (r *MemoryUserRepo) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	_, ok := r.users[id]
	return ok, nil
}
