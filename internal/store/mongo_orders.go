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

type MongoOrders struct {
	db *mongo.Database
}

func NewMongoOrders(db *mongo.Database) *MongoOrders {
	return &MongoOrders{db: db}
}

func (s *MongoOrders) Insert(ctx context.Context, order *models.Order) error {
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	res, err := s.db.Collection("orders").InsertOne(ctx, order)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		order.ID = id
	}
	return nil
}

// NextOrderNumber reserves the next value of an atomic counter document and
// formats it. findOneAndUpdate with $inc is atomic on the server, so
// concurrent order creation cannot produce duplicates.
func (s *MongoOrders) NextOrderNumber(ctx context.Context) (string, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}

	err := s.db.Collection("counters").FindOneAndUpdate(ctx,
		bson.M{"_id": "orderNumber"},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return "", err
	}

	return models.FormatOrderNumber(counter.Seq, time.Now()), nil
}

func (s *MongoOrders) FindPending(ctx context.Context, orderID, userID primitive.ObjectID, intentID string) (*models.Order, error) {
	return s.findOne(ctx, bson.M{
		"_id":                   orderID,
		"userId":                userID,
		"stripePaymentIntentId": intentID,
		"status":                models.OrderPending,
	})
}

func (s *MongoOrders) FindByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error) {
	return s.findOne(ctx, bson.M{"stripePaymentIntentId": intentID})
}

func (s *MongoOrders) findOne(ctx context.Context, filter bson.M) (*models.Order, error) {
	var order models.Order
	err := s.db.Collection("orders").FindOne(ctx, filter).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *MongoOrders) MarkPaid(ctx context.Context, orderID primitive.ObjectID, chargeID string) (bool, error) {
	set := bson.M{
		"status":        models.OrderConfirmed,
		"paymentStatus": models.PaymentPaid,
		"stockDeducted": true,
		"updatedAt":     time.Now(),
	}
	if chargeID != "" {
		set["stripeChargeId"] = chargeID
	}

	// The stockDeducted guard makes this a first-writer-wins update: a retry
	// or a racing webhook matches zero documents and performs no side effects.
	res, err := s.db.Collection("orders").UpdateOne(ctx,
		bson.M{
			"_id":           orderID,
			"status":        models.OrderPending,
			"stockDeducted": false,
		},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (s *MongoOrders) MarkPaymentFailed(ctx context.Context, intentID string) error {
	_, err := s.db.Collection("orders").UpdateOne(ctx,
		bson.M{
			"stripePaymentIntentId": intentID,
			"status":                models.OrderPending,
		},
		bson.M{"$set": bson.M{
			"paymentStatus": models.PaymentFailed,
			"status":        models.OrderCancelled,
			"updatedAt":     time.Now(),
		}},
	)
	return err
}
