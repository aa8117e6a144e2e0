package memory

import (
	"github.com/geocoder89/bakery/internal/repo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ids follow the same hex ObjectID format as the mongo repositories so
// malformed ids fail the same way in tests.
func newID() string {
	return primitive.NewObjectID().Hex()
}

func checkID(id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return repo.ErrInvalidID
	}
	return nil
}
