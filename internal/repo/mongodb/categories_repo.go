package mongodb

import (
	"context"
	"regexp"

	"github.com/geocoder89/bakery/internal/domain/category"
	"github.com/geocoder89/bakery/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type categoryDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Slug        string             `bson:"slug"`
	Images      []string           `bson:"images"`
}

func (d categoryDoc) toDomain() category.Category {
	images := d.Images
	if images == nil {
		images = []string{}
	}

	return category.Category{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		Slug:        d.Slug,
		Images:      images,
	}
}

type CategoriesRepo struct {
	coll *mongo.Collection
	observer
}

func NewCategoriesRepo(db *mongo.Database, prom *observability.Prom) *CategoriesRepo {
	return &CategoriesRepo{
		coll:     db.Collection(CategoriesCollection),
		observer: observer{prom: prom},
	}
}

func (r *CategoriesRepo) Create(ctx context.Context, c category.Category) (category.Category, error) {
	doc := categoryDoc{
		Name:        c.Name,
		Description: c.Description,
		Slug:        c.Slug,
		Images:      c.Images,
	}
	if doc.Images == nil {
		doc.Images = []string{}
	}

	var res *mongo.InsertOneResult
	err := r.observe("categories.create", func() (err error) {
		res, err = r.coll.InsertOne(ctx, doc)
		return err
	})
	if err != nil {
		return category.Category{}, translate(err)
	}

	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *CategoriesRepo) GetByID(ctx context.Context, id string) (category.Category, error) {
	oid, err := parseID(id)
	if err != nil {
		return category.Category{}, err
	}

	return r.findOne(ctx, "categories.get_by_id", bson.M{"_id": oid})
}

func (r *CategoriesRepo) FindByName(ctx context.Context, name string) (category.Category, error) {
	return r.findOne(ctx, "categories.find_by_name", bson.M{"name": name})
}

// FindByNameFold matches the whole name case-insensitively; the input is
// quoted so it never acts as a pattern.
func (r *CategoriesRepo) FindByNameFold(ctx context.Context, name string) (category.Category, error) {
	return r.findOne(ctx, "categories.find_by_name_fold", nameFoldFilter(name))
}

func (r *CategoriesRepo) NameTaken(ctx context.Context, name, exceptID string) (bool, error) {
	filter := bson.M{"name": name}

	if exceptID != "" {
		oid, err := parseID(exceptID)
		if err != nil {
			return false, err
		}
		filter["_id"] = bson.M{"$ne": oid}
	}

	var n int64
	err := r.observe("categories.name_taken", func() (err error) {
		n, err = r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
		return err
	})
	if err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}

// List returns every category by name. Documents that do not decode into the
// current shape are skipped and counted instead of failing the listing.
func (r *CategoriesRepo) List(ctx context.Context) ([]category.Category, int, error) {
	var (
		items   []category.Category
		skipped int
	)

	err := r.observe("categories.list", func() error {
		cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
		if err != nil {
			return err
		}
		items, skipped, err = decodeCategories(ctx, cur)
		return err
	})
	if err != nil {
		return nil, 0, translate(err)
	}

	return items, skipped, nil
}

func (r *CategoriesRepo) Update(ctx context.Context, id string, patch category.Patch) (category.Category, error) {
	oid, err := parseID(id)
	if err != nil {
		return category.Category{}, err
	}

	var doc categoryDoc
	err = r.observe("categories.update", func() error {
		return r.coll.FindOneAndUpdate(
			ctx,
			bson.M{"_id": oid},
			categoryUpdate(patch),
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&doc)
	})
	if err != nil {
		return category.Category{}, translate(err)
	}

	return doc.toDomain(), nil
}

func (r *CategoriesRepo) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	var res *mongo.DeleteResult
	err = r.observe("categories.delete", func() (err error) {
		res, err = r.coll.DeleteOne(ctx, bson.M{"_id": oid})
		return err
	})
	if err != nil {
		return translate(err)
	}

	if res.DeletedCount == 0 {
		return translate(mongo.ErrNoDocuments)
	}
	return nil
}

func (r *CategoriesRepo) findOne(ctx context.Context, op string, filter bson.M) (category.Category, error) {
	var doc categoryDoc

	err := r.observe(op, func() error {
		return r.coll.FindOne(ctx, filter).Decode(&doc)
	})
	if err != nil {
		return category.Category{}, translate(err)
	}

	return doc.toDomain(), nil
}

type documentCursor interface {
	Next(ctx context.Context) bool
	Decode(val interface{}) error
	Err() error
	Close(ctx context.Context) error
}

func decodeCategories(ctx context.Context, cur documentCursor) (items []category.Category, skipped int, err error) {
	defer func() { _ = cur.Close(ctx) }()

	items = make([]category.Category, 0)

	for cur.Next(ctx) {
		var doc categoryDoc
		if err := cur.Decode(&doc); err != nil || doc.Name == "" {
			skipped++
			continue
		}
		items = append(items, doc.toDomain())
	}

	return items, skipped, cur.Err()
}

func nameFoldFilter(name string) bson.M {
	return bson.M{"name": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(name) + "$", Options: "i"}}
}

func categoryUpdate(patch category.Patch) bson.M {
	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Slug != nil {
		set["slug"] = *patch.Slug
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if patch.AddImage != nil {
		update["$push"] = bson.M{"images": *patch.AddImage}
	}
	return update
}
