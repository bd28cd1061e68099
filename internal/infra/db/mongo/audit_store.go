package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"amoita/internal/infra/obs"
)

// AuditStore persists audit entries in the audit_logs collection.
type AuditStore struct {
	col *mongo.Collection
}

func NewAuditStore(db *mongo.Database) *AuditStore {
	return &AuditStore{col: db.Collection("audit_logs")}
}

var _ obs.AuditStore = (*AuditStore)(nil)

func (s *AuditStore) Insert(ctx context.Context, entry obs.AuditEntry) error {
	_, err := s.col.InsertOne(ctx, entry)
	return err
}

// Recent returns the newest entries, optionally filtered by action.
func (s *AuditStore) Recent(ctx context.Context, action string, limit int64) ([]obs.AuditEntry, error) {
	filter := bson.M{}
	if action != "" {
		filter["action"] = action
	}
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().SetSort(bson.M{"timestamp": -1}).SetLimit(limit)
	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var entries []obs.AuditEntry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// EnsureIndexes creates the TTL and lookup indexes the store relies on.
func (s *AuditStore) EnsureIndexes(ctx context.Context, retention time.Duration) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "action", Value: 1}, {Key: "timestamp", Value: -1}}},
	}
	if retention > 0 {
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: "timestamp", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(retention / time.Second)),
		})
	}
	_, err := s.col.Indexes().CreateMany(ctx, models)
	return err
}
