package services

import (
	"context"
	"fmt"

	"sitetrack/microservices/tasks-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccessScopeResolver maps a caller to the set of project ids they may see
// tasks for. It has no side effects; a failure here is always an
// infrastructure error from the project store, never a domain error.
type AccessScopeResolver struct {
	projects ProjectDirectory
}

func NewAccessScopeResolver(projects ProjectDirectory) *AccessScopeResolver {
	return &AccessScopeResolver{projects: projects}
}

func (r *AccessScopeResolver) ResolveVisibleProjects(ctx context.Context, caller models.Caller) ([]primitive.ObjectID, error) {
	var (
		ids []primitive.ObjectID
		err error
	)
	switch caller.Role {
	case models.RoleSuperAdmin:
		ids, err = r.projects.IDs(ctx)
	case models.RoleProjectManager:
		ids, err = r.projects.IDsByManager(ctx, caller.ID)
	case models.RoleClient:
		ids, err = r.projects.IDsByClient(ctx, caller.ID)
	default:
		return nil, NewDomainError(CodeForbidden, fmt.Sprintf("unknown role %q", caller.Role))
	}
	if err != nil {
		return nil, NewInfrastructure("resolve visible projects", err)
	}
	if ids == nil {
		// A caller with no projects sees nothing, not everything.
		ids = []primitive.ObjectID{}
	}
	return ids, nil
}
