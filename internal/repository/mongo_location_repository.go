package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Jinwoo290350/PaiLOCAL/internal/model"
)

// LocationsCollection is the collection holding location documents.
const LocationsCollection = "locations"

// locationDocument keeps the field names of the existing collection,
// including the misspelled longtitude key.
type locationDocument struct {
	ID               primitive.ObjectID `bson:"_id"`
	PlaceID          string             `bson:"placeID"`
	Name             string             `bson:"name"`
	Address          string             `bson:"address"`
	Latitude         float64            `bson:"latitude"`
	Longitude        float64            `bson:"longtitude"`
	Keyword          string             `bson:"keyword"`
	Types            string             `bson:"types"`
	Phone            *string            `bson:"phone,omitempty"`
	Website          *string            `bson:"website,omitempty"`
	Photo            *string            `bson:"photo_1_URL,omitempty"`
	ReviewSummary    *string            `bson:"review_summary,omitempty"`
	UserRatingsTotal *int               `bson:"user_ratings_total,omitempty"`
	NumReviews       *int               `bson:"num_reviews,omitempty"`
	Rating           *float64           `bson:"rating,omitempty"`
}

func newLocationDocument(id primitive.ObjectID, in model.LocationInput) locationDocument {
	return locationDocument{
		ID:               id,
		PlaceID:          in.PlaceID,
		Name:             in.Name,
		Address:          in.Address,
		Latitude:         in.Latitude,
		Longitude:        in.Longitude,
		Keyword:          in.Keyword,
		Types:            in.Types,
		Phone:            in.Phone,
		Website:          in.Website,
		Photo:            in.Photo,
		ReviewSummary:    in.ReviewSummary,
		UserRatingsTotal: in.UserRatingsTotal,
		NumReviews:       in.NumReviews,
		Rating:           in.Rating,
	}
}

func (d locationDocument) toModel() model.Location {
	return model.Location{
		ID:               d.ID.Hex(),
		PlaceID:          d.PlaceID,
		Name:             d.Name,
		Address:          d.Address,
		Latitude:         d.Latitude,
		Longitude:        d.Longitude,
		Keyword:          d.Keyword,
		Types:            d.Types,
		Phone:            d.Phone,
		Website:          d.Website,
		Photo:            d.Photo,
		ReviewSummary:    d.ReviewSummary,
		UserRatingsTotal: d.UserRatingsTotal,
		NumReviews:       d.NumReviews,
		Rating:           d.Rating,
	}
}

// NewMongoClient connects to MongoDB and verifies the connection with a ping.
func NewMongoClient(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return client, nil
}

// MongoLocationRepository stores locations in a MongoDB collection.
type MongoLocationRepository struct {
	coll *mongo.Collection
}

// NewMongoLocationRepository creates a repository over the given collection.
func NewMongoLocationRepository(coll *mongo.Collection) *MongoLocationRepository {
	return &MongoLocationRepository{coll: coll}
}

// Create inserts a document with a new ObjectID.
func (r *MongoLocationRepository) Create(ctx context.Context, in model.LocationInput) (*model.Location, error) {
	doc := newLocationDocument(primitive.NewObjectID(), in)
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to insert location: %w", err)
	}
	loc := doc.toModel()
	return &loc, nil
}

// ListAll returns every document of the collection.
func (r *MongoLocationRepository) ListAll(ctx context.Context) ([]model.Location, error) {
	cur, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	var docs []locationDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode locations: %w", err)
	}
	locations := make([]model.Location, 0, len(docs))
	for _, d := range docs {
		locations = append(locations, d.toModel())
	}
	return locations, nil
}

// GetByID looks up a document by its hex ObjectID.
func (r *MongoLocationRepository) GetByID(ctx context.Context, id string) (*model.Location, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var doc locationDocument
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location %s: %w", id, err)
	}
	loc := doc.toModel()
	return &loc, nil
}

// UpdateByID $sets the patch fields and returns the updated document.
func (r *MongoLocationRepository) UpdateByID(ctx context.Context, id string, patch model.LocationPatch) (*model.Location, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	set := patchDocument(patch)
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc locationDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update location %s: %w", id, err)
	}
	loc := doc.toModel()
	return &loc, nil
}

// DeleteByID removes the document with the given hex ObjectID.
func (r *MongoLocationRepository) DeleteByID(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete location %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// patchDocument lists the supplied fields under their stored key.
func patchDocument(p model.LocationPatch) bson.D {
	set := bson.D{}
	add := func(key string, value interface{}) {
		set = append(set, bson.E{Key: key, Value: value})
	}
	if p.PlaceID != nil {
		add("placeID", *p.PlaceID)
	}
	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Address != nil {
		add("address", *p.Address)
	}
	if p.Latitude != nil {
		add("latitude", *p.Latitude)
	}
	if p.Longitude != nil {
		add("longtitude", *p.Longitude)
	}
	if p.Keyword != nil {
		add("keyword", *p.Keyword)
	}
	if p.Types != nil {
		add("types", *p.Types)
	}
	if p.Phone != nil {
		add("phone", *p.Phone)
	}
	if p.Website != nil {
		add("website", *p.Website)
	}
	if p.Photo != nil {
		add("photo_1_URL", *p.Photo)
	}
	if p.ReviewSummary != nil {
		add("review_summary", *p.ReviewSummary)
	}
	if p.UserRatingsTotal != nil {
		add("user_ratings_total", *p.UserRatingsTotal)
	}
	if p.NumReviews != nil {
		add("num_reviews", *p.NumReviews)
	}
	if p.Rating != nil {
		add("rating", *p.Rating)
	}
	return set
}
