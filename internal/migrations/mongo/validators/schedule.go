package validators

import "go.mongodb.org/mongo-driver/bson"

var timeWindowSchema = bson.M{
	"bsonType": "object",
	"required": []string{"start", "end"},
	"properties": bson.M{
		"start": bson.M{
			"bsonType": "string",
			"pattern":  "^(([01][0-9]|2[0-3]):[0-5][0-9](:[0-5][0-9])?|24:00(:00)?)$",
		},
		"end": bson.M{
			"bsonType": "string",
			"pattern":  "^(([01][0-9]|2[0-3]):[0-5][0-9](:[0-5][0-9])?|24:00(:00)?)$",
		},
	},
}

var ScheduleValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"time_zone",
			"weekly",
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

			"time_zone": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"weekly": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"day", "start", "end"},
					"properties": bson.M{
						"day": bson.M{
							"bsonType": "string",
							"enum": []string{
								"monday",
								"tuesday",
								"wednesday",
								"thursday",
								"friday",
								"saturday",
								"sunday",
							},
						},
						"start": bson.M{
							"bsonType": "string",
							"pattern":  "^(([01][0-9]|2[0-3]):[0-5][0-9](:[0-5][0-9])?|24:00(:00)?)$",
						},
						"end": bson.M{
							"bsonType": "string",
							"pattern":  "^(([01][0-9]|2[0-3]):[0-5][0-9](:[0-5][0-9])?|24:00(:00)?)$",
						},
					},
				},
			},

			"overrides": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"date", "windows"},
					"properties": bson.M{
						"date": bson.M{
							"bsonType": "string",
							"pattern":  "^\\d{4}-\\d{2}-\\d{2}$",
						},
						"windows": bson.M{
							"bsonType": "array",
							"items":    timeWindowSchema,
						},
					},
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
