package validators

import "go.mongodb.org/mongo-driver/bson"

var WebinarValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"title",
			"seats",
			"organizer_id",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 128,
			},

			"title": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 200,
			},

			"seats": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"organizer_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},
		},
	},
}
