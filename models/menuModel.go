package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// MenuItem is the read-only catalog view the order coordinator prices against.
type MenuItem struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Price     float64            `bson:"price" json:"price"`
	Available bool               `bson:"available" json:"available"`
	Deleted   bool               `bson:"deleted" json:"-"`
}
