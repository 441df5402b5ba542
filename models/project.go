package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Project is an external collaborator record; this service only reads the
// ownership fields to compute visibility and the title for dashboards.
type Project struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title    string             `json:"title" bson:"title"`
	ClientID primitive.ObjectID `json:"clientId" bson:"clientId"`
	Manager  primitive.ObjectID `json:"managerId" bson:"managerId"`
}
