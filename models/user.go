package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Email        string             `json:"email" bson:"email"`
	PasswordHash string             `json:"-" bson:"passwordHash,omitempty"`
	IsAdmin      bool               `json:"isAdmin" bson:"isAdmin"`
	Image        string             `json:"image" bson:"image"`
	GoogleID     string             `json:"-" bson:"googleId,omitempty"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
}

// ProfileResponse is the subset of User returned by the profile endpoint.
type ProfileResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image"`
}
