package models

import "time"

// CartRecord is the document shape used when the durable cart record lives in MongoDB.
type CartRecord struct {
	Key       string    `bson:"_id" json:"key"`
	Payload   string    `bson:"payload" json:"payload"`
	Origin    string    `bson:"origin" json:"origin"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ChangeEnvelope is published alongside every Redis write so other execution
// contexts can tell whose write they are looking at.
type ChangeEnvelope struct {
	Key       string `json:"key"`
	Origin    string `json:"origin"`
	Timestamp int64  `json:"timestamp"`
}
