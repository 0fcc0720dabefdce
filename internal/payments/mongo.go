package payments

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/adleverage/ads-onboarding/internal/config"
)

// ErrNotFound is returned when no record exists for a gateway id.
var ErrNotFound = errors.New("payment not found")

// MongoStore implements Store on a MongoDB collection.
type MongoStore struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

// NewMongoStore connects to Mongo and ensures the collection indexes.
func NewMongoStore(ctx context.Context, cfg config.MongoConfig, logger *zap.Logger) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "gateway_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "customer_id", Value: 1}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payment indexes: %w", err)
	}

	logger.Info("Payment store ready",
		zap.String("database", cfg.Database),
		zap.String("collection", cfg.Collection))

	return &MongoStore{coll: coll, logger: logger}, nil
}

// Create inserts a new payment record.
func (s *MongoStore) Create(ctx context.Context, gatewayID, customerID string, amount float64, currency, status string) (*Record, error) {
	now := nowISO()
	rec := &Record{
		GatewayID:  gatewayID,
		CustomerID: customerID,
		Amount:     amount,
		Currency:   currency,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	res, err := s.coll.InsertOne(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to insert payment: %w", err)
	}
	if oid, ok := res.InsertedID.(interface{ Hex() string }); ok {
		rec.ID = oid.Hex()
	}
	return rec, nil
}

// Get fetches a payment by gateway id.
func (s *MongoStore) Get(ctx context.Context, gatewayID string) (*Record, error) {
	var rec Record
	err := s.coll.FindOne(ctx, bson.M{"gateway_id": gatewayID}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch payment: %w", err)
	}
	return &rec, nil
}

// UpdateStatus updates the status of a payment by gateway id. Used by the
// gateway webhook.
func (s *MongoStore) UpdateStatus(ctx context.Context, gatewayID, status string) (*Record, error) {
	var rec Record
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"gateway_id": gatewayID},
		bson.M{"$set": bson.M{"status": status, "updated_at": nowISO()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}
	return &rec, nil
}

// ListByCustomer returns a customer's payments, newest first.
func (s *MongoStore) ListByCustomer(ctx context.Context, customerID string) ([]*Record, error) {
	cur, err := s.coll.Find(ctx,
		bson.M{"customer_id": customerID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer cur.Close(ctx)

	var recs []*Record
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("failed to decode payments: %w", err)
	}
	return recs, nil
}
