package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"koselimart/internal/models"
)

type MongoProducts struct {
	db *mongo.Database
}

func NewMongoProducts(db *mongo.Database) *MongoProducts {
	return &MongoProducts{db: db}
}

func (s *MongoProducts) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := s.db.Collection("products").FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *MongoProducts) DeductStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	res, err := s.db.Collection("products").UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{
			"stock.quantity": -qty,
			"salesCount":     qty,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
