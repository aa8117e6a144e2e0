package mongodb

import (
	"context"
	"time"

	"github.com/geocoder89/bakery/internal/domain/product"
	"github.com/geocoder89/bakery/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type productDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Price       float64            `bson:"price"`
	Category    string             `bson:"category"`
	Available   bool               `bson:"available"`
	Discount    float64            `bson:"discount"`
	Tags        []string           `bson:"tags"`
	Images      []string           `bson:"images"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (d productDoc) toDomain() product.Product {
	p := product.Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Category:    d.Category,
		Available:   d.Available,
		Discount:    d.Discount,
		Tags:        d.Tags,
		Images:      d.Images,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return p
}

type ProductsRepo struct {
	coll *mongo.Collection
	observer
}

func NewProductsRepo(db *mongo.Database, prom *observability.Prom) *ProductsRepo {
	return &ProductsRepo{
		coll:     db.Collection(ProductsCollection),
		observer: observer{prom: prom},
	}
}

func (r *ProductsRepo) Create(ctx context.Context, p product.Product) (product.Product, error) {
	doc := productDoc{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Available:   p.Available,
		Discount:    p.Discount,
		Tags:        p.Tags,
		Images:      p.Images,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}

	var res *mongo.InsertOneResult
	err := r.observe("products.create", func() (err error) {
		res, err = r.coll.InsertOne(ctx, doc)
		return err
	})
	if err != nil {
		return product.Product{}, translate(err)
	}

	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *ProductsRepo) GetByID(ctx context.Context, id string) (product.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return product.Product{}, err
	}

	var doc productDoc
	err = r.observe("products.get_by_id", func() error {
		return r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	})
	if err != nil {
		return product.Product{}, translate(err)
	}

	return doc.toDomain(), nil
}

func (r *ProductsRepo) List(ctx context.Context, f product.ListFilter) ([]product.Product, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetSkip(int64(f.Skip)).
		SetLimit(int64(f.Limit))

	var docs []productDoc
	err := r.observe("products.list", func() error {
		cur, err := r.coll.Find(ctx, productFilter(f), opts)
		if err != nil {
			return err
		}
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, translate(err)
	}

	out := make([]product.Product, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *ProductsRepo) Count(ctx context.Context, f product.ListFilter) (int, error) {
	var n int64
	err := r.observe("products.count", func() (err error) {
		n, err = r.coll.CountDocuments(ctx, productFilter(f))
		return err
	})
	if err != nil {
		return 0, translate(err)
	}
	return int(n), nil
}

func (r *ProductsRepo) CountByCategory(ctx context.Context, name string) (int, error) {
	var n int64
	err := r.observe("products.count_by_category", func() (err error) {
		n, err = r.coll.CountDocuments(ctx, bson.M{"category": name})
		return err
	})
	if err != nil {
		return 0, translate(err)
	}
	return int(n), nil
}

func (r *ProductsRepo) Update(ctx context.Context, id string, patch product.Patch, now time.Time) (product.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return product.Product{}, err
	}

	var doc productDoc
	err = r.observe("products.update", func() error {
		return r.coll.FindOneAndUpdate(
			ctx,
			bson.M{"_id": oid},
			productUpdate(patch, now),
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&doc)
	})
	if err != nil {
		return product.Product{}, translate(err)
	}

	return doc.toDomain(), nil
}

func (r *ProductsRepo) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	var res *mongo.DeleteResult
	err = r.observe("products.delete", func() (err error) {
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

func productFilter(f product.ListFilter) bson.D {
	filter := bson.D{}

	if f.AvailableOnly {
		filter = append(filter, bson.E{Key: "available", Value: true})
	}
	if f.Category != nil {
		filter = append(filter, bson.E{Key: "category", Value: *f.Category})
	}
	return filter
}

func productUpdate(patch product.Patch, now time.Time) bson.M {
	set := bson.M{"updated_at": now}

	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.Available != nil {
		set["available"] = *patch.Available
	}
	if patch.Discount != nil {
		set["discount"] = *patch.Discount
	}
	if patch.Tags != nil {
		set["tags"] = *patch.Tags
	}

	update := bson.M{"$set": set}
	if patch.AddImage != nil {
		update["$push"] = bson.M{"images": *patch.AddImage}
	}
	return update
}
