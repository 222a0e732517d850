package model

// User is read-only to the booking flow. Password is credential material owned
// by the auth side and is never serialised back to clients.
type User struct {
	ID       string `json:"id" bson:"_id" validate:"required"`
	Email    string `json:"email" bson:"email" validate:"required,email"`
	Password string `json:"-" bson:"password,omitempty"`
}
