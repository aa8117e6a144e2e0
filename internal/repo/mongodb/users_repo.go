package mongodb

import (
	"context"
	"time"

	"github.com/geocoder89/bakery/internal/domain/user"
	"github.com/geocoder89/bakery/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Email     string             `bson:"email"`
	FullName  string             `bson:"full_name"`
	Password  string             `bson:"password"`
	IsAdmin   bool               `bson:"is_admin"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (d userDoc) toDomain() user.User {
	return user.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		FullName:     d.FullName,
		PasswordHash: d.Password,
		IsAdmin:      d.IsAdmin,
		CreatedAt:    d.CreatedAt,
	}
}

type UsersRepo struct {
	coll *mongo.Collection
	observer
}

func NewUsersRepo(db *mongo.Database, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{
		coll:     db.Collection(UsersCollection),
		observer: observer{prom: prom},
	}
}

// Create relies on the unique email index; a duplicate surfaces as repo.ErrDuplicateKey.
func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	doc := userDoc{
		Email:     u.Email,
		FullName:  u.FullName,
		Password:  u.PasswordHash,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
	}

	var res *mongo.InsertOneResult
	err := r.observe("users.create", func() (err error) {
		res, err = r.coll.InsertOne(ctx, doc)
		return err
	})
	if err != nil {
		return user.User{}, translate(err)
	}

	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var doc userDoc

	err := r.observe("users.get_by_email", func() error {
		return r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	})
	if err != nil {
		return user.User{}, translate(err)
	}

	return doc.toDomain(), nil
}
