package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses. An order starts pending and only moves forward through
// admin status transitions.
const (
	OrderPending   = "pending"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
)

func ValidOrderStatus(status string) bool {
	switch status {
	case OrderPending, OrderShipped, OrderDelivered:
		return true
	}
	return false
}

// OrderItem is an immutable snapshot of a purchased line, taken at checkout
// time and independent of later catalog edits.
type OrderItem struct {
	ProductID primitive.ObjectID `json:"productId" bson:"productId"`
	Name      string             `json:"name" bson:"name"`
	Price     float64            `json:"price" bson:"price"`
	Quantity  int                `json:"quantity" bson:"quantity"`
	Size      string             `json:"size" bson:"size"`
	Image     string             `json:"image" bson:"image"`
}

type Order struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID      primitive.ObjectID `json:"userId" bson:"userId"`
	Items       []OrderItem        `json:"items" bson:"items"`
	TotalAmount float64            `json:"totalAmount" bson:"totalAmount"`
	Status      string             `json:"status" bson:"status"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}

// AdminOrder is an order joined with the buyer's name and email for the
// admin dashboard listing.
type AdminOrder struct {
	Order     `bson:",inline"`
	UserName  string `json:"userName" bson:"userName"`
	UserEmail string `json:"userEmail" bson:"userEmail"`
}
