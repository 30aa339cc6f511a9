package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Categories is the fixed set of product categories the catalog accepts.
var Categories = []string{"watches", "headphones", "laptops", "gaming", "futuristic", "soundbar"}

func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Review is embedded in its product: reviews are always read together with
// the product and never queried on their own.
type Review struct {
	UserID    primitive.ObjectID `json:"userId" bson:"userId"`
	UserName  string             `json:"userName" bson:"userName"`
	Rating    int                `json:"rating" bson:"rating"`
	Comment   string             `json:"comment" bson:"comment"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

type Product struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	Price       float64            `json:"price" bson:"price"`
	Category    string             `json:"category" bson:"category"`
	Sizes       []string           `json:"sizes" bson:"sizes"`
	Images      []string           `json:"images" bson:"images"`
	Reviews     []Review           `json:"reviews" bson:"reviews"`
}

// PrimaryImage returns the image shown on listings and payment pages.
func (p *Product) PrimaryImage() string {
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}
