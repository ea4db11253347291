package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a shopper or administrator. Role is informational; requests are
// authorised from the verified token.
type User struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Name      string               `bson:"name"          json:"name"`
	Email     string               `bson:"email"         json:"email"`
	Role      string               `bson:"role"          json:"role"`
	Wishlist  []primitive.ObjectID `bson:"wishlist"      json:"wishlist"`
	CreatedAt time.Time            `bson:"createdAt"     json:"createdAt"`
}

// InWishlist reports whether productID is already wishlisted.
func (u *User) InWishlist(productID primitive.ObjectID) bool {
	for _, id := range u.Wishlist {
		if id == productID {
			return true
		}
	}
	return false
}
