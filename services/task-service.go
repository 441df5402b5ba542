package services

import (
	"context"
	"errors"
	"time"

	"sitetrack/microservices/tasks-service/logging"
	"sitetrack/microservices/tasks-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	storeTimeout     = 5 * time.Second
)

// TaskQuery is the validated set of listing options. Unknown query
// parameters never reach this struct; the handler only fills recognized
// fields.
type TaskQuery struct {
	ProjectID    *primitive.ObjectID
	Priority     *models.TaskPriority
	Category     *models.TaskCategory
	AssignedTo   *primitive.ObjectID
	Blocked      bool
	DueSoon      bool
	Page         int
	Limit        int
	IncludeStats bool
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

type TaskList struct {
	Tasks      []models.Task     `json:"tasks"`
	Pagination Pagination        `json:"pagination"`
	Stats      *models.TaskStats `json:"stats,omitempty"`
}

type CreateTaskInput struct {
	ProjectID          primitive.ObjectID   `json:"projectId"`
	Title              string               `json:"title"`
	Description        string               `json:"description"`
	Status             models.TaskStatus    `json:"status"`
	Priority           models.TaskPriority  `json:"priority"`
	Category           models.TaskCategory  `json:"category"`
	Progress           int                  `json:"progress"`
	AssignedTo         *primitive.ObjectID  `json:"assignedTo"`
	Dependencies       []primitive.ObjectID `json:"dependencies"`
	Blockers           []string             `json:"blockers"`
	ScheduledDate      *time.Time           `json:"scheduledDate"`
	EstimatedStartDate *time.Time           `json:"estimatedStartDate"`
	EstimatedDuration  string               `json:"estimatedDuration"`
}

// UpdateTaskInput carries the fields a caller may change. There is no
// projectId field: a task never moves between projects.
type UpdateTaskInput struct {
	Title              *string               `json:"title"`
	Description        *string               `json:"description"`
	Status             *models.TaskStatus    `json:"status"`
	Priority           *models.TaskPriority  `json:"priority"`
	Category           *models.TaskCategory  `json:"category"`
	Progress           *int                  `json:"progress"`
	AssignedTo         *primitive.ObjectID   `json:"assignedTo"`
	Dependencies       *[]primitive.ObjectID `json:"dependencies"`
	Blockers           *[]string             `json:"blockers"`
	ScheduledDate      *time.Time            `json:"scheduledDate"`
	EstimatedStartDate *time.Time            `json:"estimatedStartDate"`
	EstimatedDuration  *string               `json:"estimatedDuration"`
}

// TaskService is the façade every request enters through. It narrows each
// operation to the caller's visible project scope before touching any task
// record.
type TaskService struct {
	tasks    TaskRepository
	projects ProjectDirectory
	users    UserDirectory
	scope    *AccessScopeResolver
	guard    *DependencyGuard
	ranker   *PriorityRanker
	stats    *StatsAggregator
	notifier Notifier
	now      func() time.Time
}

func NewTaskService(tasks TaskRepository, projects ProjectDirectory, users UserDirectory, notifier Notifier) *TaskService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &TaskService{
		tasks:    tasks,
		projects: projects,
		users:    users,
		scope:    NewAccessScopeResolver(projects),
		guard:    NewDependencyGuard(tasks, users),
		ranker:   NewPriorityRanker(),
		stats:    NewStatsAggregator(tasks, projects),
		notifier: notifier,
		now:      time.Now,
	}
}

// ListTasks returns the caller's visible tasks in canonical order. An
// explicit projectId outside the caller's scope yields an empty result, not
// an error, so the existence of other projects is not leaked.
func (s *TaskService) ListTasks(ctx context.Context, caller models.Caller, query TaskQuery) (*TaskList, error) {
	if err := checkCaller(caller); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	scope, err := s.scope.ResolveVisibleProjects(ctx, caller)
	if err != nil {
		return nil, err
	}
	if query.ProjectID != nil {
		scope = narrowScope(scope, *query.ProjectID)
	}

	page := models.Page{Number: query.Page, Limit: query.Limit}
	if page.Number < 1 {
		page.Number = 1
	}
	if page.Limit < 1 {
		page.Limit = defaultPageLimit
	}
	if page.Limit > maxPageLimit {
		page.Limit = maxPageLimit
	}

	filter := models.TaskFilter{
		Scope:      scope,
		Statuses:   models.ActiveStatuses,
		Priority:   query.Priority,
		Category:   query.Category,
		AssignedTo: query.AssignedTo,
		Blocked:    query.Blocked,
	}
	if query.DueSoon {
		threshold := s.now().Add(dueSoonWindow)
		filter.ScheduledBefore = &threshold
	}

	tasks, total, err := s.tasks.Find(ctx, filter, page)
	if err != nil {
		return nil, NewInfrastructure("find tasks", err)
	}
	s.ranker.Sort(tasks)

	result := &TaskList{
		Tasks: tasks,
		Pagination: Pagination{
			Page:  page.Number,
			Limit: page.Limit,
			Total: total,
			Pages: pageCount(total, page.Limit),
		},
	}
	if query.IncludeStats {
		stats, err := s.stats.ComputeStats(ctx, scope, s.now())
		if err != nil {
			return nil, err
		}
		result.Stats = stats
	}
	return result, nil
}

// GetTask fetches a single task. A task outside the caller's scope reports
// NotFound, the same as a task that does not exist.
func (s *TaskService) GetTask(ctx context.Context, caller models.Caller, taskID primitive.ObjectID) (*models.Task, error) {
	if err := checkCaller(caller); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	task, err := s.fetchTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	scope, err := s.scope.ResolveVisibleProjects(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !containsID(scope, task.ProjectID) {
		return nil, NewNotFound("task")
	}
	return task, nil
}

// CreateTask persists a new task after role, ownership and reference checks.
func (s *TaskService) CreateTask(ctx context.Context, caller models.Caller, input CreateTaskInput) (*models.Task, error) {
	if err := checkCaller(caller); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if err := s.authorizeMutation(ctx, caller, input.ProjectID); err != nil {
		return nil, err
	}

	task, err := buildTask(caller, input, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.guard.ValidateNoSelfDependency(task); err != nil {
		return nil, err
	}
	if err := s.guard.ValidateReferences(ctx, task); err != nil {
		return nil, err
	}
	if err := s.guard.ValidateAcyclic(ctx, task.ID, task.Dependencies); err != nil {
		return nil, err
	}

	id, err := s.tasks.Insert(ctx, task)
	if err != nil {
		return nil, NewInfrastructure("insert task", err)
	}
	task.ID = id
	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s created in project %s by %s", task.ID.Hex(), task.ProjectID.Hex(), caller.ID.Hex())

	if task.AssignedTo != nil {
		// Best effort: the breaker and the notifier log their own failures.
		_ = s.notifier.NotifyTaskAssigned(ctx, *task.AssignedTo, task.Title)
	}
	return task, nil
}

// UpdateTask applies a partial update after re-validating any touched
// reference fields.
func (s *TaskService) UpdateTask(ctx context.Context, caller models.Caller, taskID primitive.ObjectID, input UpdateTaskInput) (*models.Task, error) {
	if err := checkCaller(caller); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	existing, err := s.fetchTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeMutation(ctx, caller, existing.ProjectID); err != nil {
		return nil, err
	}
	update, err := buildUpdate(caller, input, s.now())
	if err != nil {
		return nil, err
	}

	if input.Dependencies != nil || input.AssignedTo != nil {
		// Re-validate only the touched reference fields.
		candidate := models.Task{ID: existing.ID}
		if input.AssignedTo != nil {
			candidate.AssignedTo = input.AssignedTo
		}
		if input.Dependencies != nil {
			candidate.Dependencies = *input.Dependencies
		}
		if err := s.guard.ValidateNoSelfDependency(&candidate); err != nil {
			return nil, err
		}
		if err := s.guard.ValidateReferences(ctx, &candidate); err != nil {
			return nil, err
		}
		if input.Dependencies != nil {
			if err := s.guard.ValidateAcyclic(ctx, taskID, *input.Dependencies); err != nil {
				return nil, err
			}
		}
	}

	if err := s.tasks.UpdateFields(ctx, taskID, update); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, NewNotFound("task")
		}
		return nil, NewInfrastructure("update task", err)
	}
	logging.Logger.Infof("Event ID: TASK_UPDATED, Description: Task %s updated by %s", taskID.Hex(), caller.ID.Hex())

	updated, err := s.fetchTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if input.AssignedTo != nil {
		_ = s.notifier.NotifyTaskAssigned(ctx, *input.AssignedTo, updated.Title)
	}
	return updated, nil
}

// DeleteTask removes a task unless other tasks still depend on it. The
// check-then-delete window is accepted; the store offers single-document
// atomicity only.
func (s *TaskService) DeleteTask(ctx context.Context, caller models.Caller, taskID primitive.ObjectID) error {
	if err := checkCaller(caller); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	existing, err := s.fetchTask(ctx, taskID)
	if err != nil {
		return err
	}
	if err := s.authorizeMutation(ctx, caller, existing.ProjectID); err != nil {
		return err
	}
	if err := s.guard.GuardDeletion(ctx, taskID); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, taskID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return NewNotFound("task")
		}
		return NewInfrastructure("delete task", err)
	}
	logging.Logger.Infof("Event ID: TASK_DELETED, Description: Task %s deleted by %s", taskID.Hex(), caller.ID.Hex())
	return nil
}

func (s *TaskService) fetchTask(ctx context.Context, taskID primitive.ObjectID) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, NewNotFound("task")
		}
		return nil, NewInfrastructure("find task", err)
	}
	return task, nil
}

// authorizeMutation enforces the role and ownership rules for every write:
// super_admin anywhere, project_manager only on projects they manage.
func (s *TaskService) authorizeMutation(ctx context.Context, caller models.Caller, projectID primitive.ObjectID) error {
	if !caller.Role.CanMutateTasks() {
		return NewForbidden()
	}
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return NewNotFound("project")
		}
		return NewInfrastructure("load project", err)
	}
	if caller.Role == models.RoleProjectManager && project.Manager != caller.ID {
		return NewForbidden()
	}
	return nil
}

func buildTask(caller models.Caller, input CreateTaskInput, now time.Time) (*models.Task, error) {
	if input.Title == "" {
		return nil, NewInvalidInput("title", "must not be empty")
	}
	if input.ProjectID.IsZero() {
		return nil, NewInvalidInput("projectId", "must be set")
	}
	status := input.Status
	if status == "" {
		status = models.StatusPending
	}
	if !status.Valid() {
		return nil, NewInvalidInput("status", "unknown status")
	}
	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, NewInvalidInput("priority", "unknown priority")
	}
	category := input.Category
	if category == "" {
		category = models.CategoryOther
	}
	if !category.Valid() {
		return nil, NewInvalidInput("category", "unknown category")
	}
	if input.Progress < 0 || input.Progress > 100 {
		return nil, NewInvalidInput("progress", "must be between 0 and 100")
	}

	return &models.Task{
		ID:                 primitive.NewObjectID(),
		ProjectID:          input.ProjectID,
		Title:              input.Title,
		Description:        input.Description,
		Status:             status,
		Priority:           priority,
		Category:           category,
		Progress:           input.Progress,
		AssignedTo:         input.AssignedTo,
		Dependencies:       dedupeIDs(input.Dependencies),
		Blockers:           input.Blockers,
		ScheduledDate:      input.ScheduledDate,
		EstimatedStartDate: input.EstimatedStartDate,
		EstimatedDuration:  input.EstimatedDuration,
		CreatedBy:          caller.ID,
		CreatedAt:          now,
		UpdatedAt:          now,
		UpdatedBy:          caller.ID,
	}, nil
}

func buildUpdate(caller models.Caller, input UpdateTaskInput, now time.Time) (models.TaskUpdate, error) {
	update := models.TaskUpdate{
		Title:              input.Title,
		Description:        input.Description,
		Status:             input.Status,
		Priority:           input.Priority,
		Category:           input.Category,
		Progress:           input.Progress,
		AssignedTo:         input.AssignedTo,
		Blockers:           input.Blockers,
		ScheduledDate:      input.ScheduledDate,
		EstimatedStartDate: input.EstimatedStartDate,
		EstimatedDuration:  input.EstimatedDuration,
		UpdatedBy:          caller.ID,
		UpdatedAt:          now,
	}
	if input.Title != nil && *input.Title == "" {
		return update, NewInvalidInput("title", "must not be empty")
	}
	if input.Status != nil && !input.Status.Valid() {
		return update, NewInvalidInput("status", "unknown status")
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return update, NewInvalidInput("priority", "unknown priority")
	}
	if input.Category != nil && !input.Category.Valid() {
		return update, NewInvalidInput("category", "unknown category")
	}
	if input.Progress != nil && (*input.Progress < 0 || *input.Progress > 100) {
		return update, NewInvalidInput("progress", "must be between 0 and 100")
	}
	if input.Dependencies != nil {
		deps := dedupeIDs(*input.Dependencies)
		update.Dependencies = &deps
	}
	return update, nil
}

func checkCaller(caller models.Caller) error {
	if caller.ID.IsZero() || !caller.Role.Valid() {
		return NewUnauthorized()
	}
	return nil
}

// narrowScope keeps the requested project only when it is already visible;
// otherwise the scope collapses to empty and the query matches nothing.
func narrowScope(scope []primitive.ObjectID, projectID primitive.ObjectID) []primitive.ObjectID {
	if containsID(scope, projectID) {
		return []primitive.ObjectID{projectID}
	}
	return []primitive.ObjectID{}
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func dedupeIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	if len(ids) == 0 {
		return nil
	}
	seen := map[primitive.ObjectID]bool{}
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func pageCount(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
