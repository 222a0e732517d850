package model

type Webinar struct {
	ID          string `json:"id" bson:"_id" validate:"required"`
	Title       string `json:"title" bson:"title" validate:"required,min=1,max=200"`
	Seats       int    `json:"seats" bson:"seats" validate:"required,min=1"`
	OrganizerID string `json:"organizer_id" bson:"organizer_id" validate:"required"`
}
