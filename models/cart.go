package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is one line in a user's cart. Price is captured when the line is
// first created and does not track later catalog price changes.
type CartItem struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"userId" bson:"userId"`
	ProductID primitive.ObjectID `json:"productId" bson:"productId"`
	Size      string             `json:"size" bson:"size"`
	Quantity  int                `json:"quantity" bson:"quantity"`
	Price     float64            `json:"price" bson:"price"`
	AddedAt   time.Time          `json:"addedAt" bson:"addedAt"`
}

// CartLine is a cart item joined with the current product display fields for
// rendering. Price remains the captured line price, not the live one.
type CartLine struct {
	ID          primitive.ObjectID `json:"id" bson:"_id"`
	ProductID   primitive.ObjectID `json:"productId" bson:"productId"`
	Size        string             `json:"size" bson:"size"`
	Quantity    int                `json:"quantity" bson:"quantity"`
	Price       float64            `json:"price" bson:"price"`
	AddedAt     time.Time          `json:"addedAt" bson:"addedAt"`
	ProductName string             `json:"productName" bson:"productName"`
	Images      []string           `json:"images" bson:"images"`
}
