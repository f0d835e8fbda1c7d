package validators

import "go.mongodb.org/mongo-driver/bson"

var EventTypeValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"slug",
			"duration_min",
			"booking_type",
			"capacity",
			"schedule_id",
			"active",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"slug": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 120,
			},

			"description": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"location": bson.M{
				"bsonType":  "string",
				"maxLength": 200,
			},

			"host_name": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},

			"host_email": bson.M{
				"bsonType":  "string",
				"maxLength": 254,
			},

			"duration_min": bson.M{
				"bsonType": "int",
				"minimum":  5,
				"maximum":  480,
			},

			"buffer_before_min": bson.M{
				"bsonType": "int",
				"minimum":  0,
				"maximum":  240,
			},

			"buffer_after_min": bson.M{
				"bsonType": "int",
				"minimum":  0,
				"maximum":  240,
			},

			"booking_type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"one_on_one",
					"group",
				},
			},

			"capacity": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  200,
			},

			"schedule_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"active": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
