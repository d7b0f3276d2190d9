package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"koselimart/internal/models"
)

type MongoCarts struct {
	db *mongo.Database
}

func NewMongoCarts(db *mongo.Database) *MongoCarts {
	return &MongoCarts{db: db}
}

func (s *MongoCarts) GetByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.Collection("carts").FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *MongoCarts) Upsert(ctx context.Context, cart *models.Cart) error {
	now := time.Now()
	cart.UpdatedAt = now
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}

	update := bson.M{
		"$set": bson.M{
			"items":     cart.Items,
			"sessionId": cart.SessionID,
			"updatedAt": cart.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"createdAt": cart.CreatedAt,
		},
	}

	res, err := s.db.Collection("carts").UpdateOne(ctx,
		bson.M{"userId": cart.UserID},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return err
	}
	if id, ok := res.UpsertedID.(primitive.ObjectID); ok {
		cart.ID = id
	}
	return nil
}

func (s *MongoCarts) Clear(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.db.Collection("carts").UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{
			"items":     []models.CartItem{},
			"updatedAt": time.Now(),
		}},
	)
	return err
}
