package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/example/artshop/pkg/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Audit actions written by the checkout flow.
const (
	AuditOrderCreated    = "order_created"
	AuditOrderConfirmed  = "order_confirmed"
	AuditWebhookRejected = "webhook_rejected"
)

// MongoRepository stores the order lifecycle audit trail.
type MongoRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	service    string
}

func NewMongoRepository(cfg *config.MongoDBConfig, service string) (*MongoRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	return &MongoRepository{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		service:    service,
	}, nil
}

func (m *MongoRepository) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoRepository) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// AuditLog represents an audit log entry
type AuditLog struct {
	ID        string    `bson:"_id,omitempty"`
	Service   string    `bson:"service"`
	Action    string    `bson:"action"`
	EntityID  string    `bson:"entity_id"`
	Data      bson.M    `bson:"data"`
	CreatedAt time.Time `bson:"created_at"`
}

func newAuditLog(service, action, entityID string, data map[string]interface{}) *AuditLog {
	return &AuditLog{
		Service:   service,
		Action:    action,
		EntityID:  entityID,
		Data:      bson.M(data),
		CreatedAt: time.Now().UTC(),
	}
}

func (m *MongoRepository) Record(ctx context.Context, action, entityID string, data map[string]interface{}) error {
	_, err := m.collection.InsertOne(ctx, newAuditLog(m.service, action, entityID, data))
	if err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// NopAuditor is used when no MongoDB URI is configured.
type NopAuditor struct{}

func (NopAuditor) Record(context.Context, string, string, map[string]interface{}) error {
	return nil
}
