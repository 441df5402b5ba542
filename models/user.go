package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Role string

const (
	RoleClient         Role = "client"
	RoleProjectManager Role = "project_manager"
	RoleSuperAdmin     Role = "super_admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleProjectManager, RoleSuperAdmin:
		return true
	}
	return false
}

// CanMutateTasks reports whether the role may create, update or delete tasks.
func (r Role) CanMutateTasks() bool {
	return r == RoleProjectManager || r == RoleSuperAdmin
}

type User struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name     string             `json:"name" bson:"name"`
	Email    string             `json:"email" bson:"email"`
	Role     Role               `json:"role" bson:"role"`
	IsActive bool               `json:"isActive" bson:"isActive"`
}

// Caller is the already-authenticated identity attached to every request.
// Session issuance happens upstream; this service only trusts what it is handed.
type Caller struct {
	ID   primitive.ObjectID
	Role Role
}
