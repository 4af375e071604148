package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mealvilla/staff-portal/internal/core/domain"
)

// NotificationRepository implements ports.NotificationRepository.
type NotificationRepository struct {
	col     *mongo.Collection
	timeout time.Duration
}

func NewNotificationRepository(db *mongo.Database, timeout time.Duration) *NotificationRepository {
	return &NotificationRepository{col: db.Collection(collectionNotifications), timeout: orDefault(timeout)}
}

// Insert appends n with a store-assigned timestamp. Re-inserting the same id
// is a no-op, so a retried delivery does not duplicate the feed item.
func (r *NotificationRepository) Insert(ctx context.Context, n *domain.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc, err := fields(n, "_id", "timestamp")
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	update := bson.M{
		"$setOnInsert": doc,
		"$currentDate": bson.M{"timestamp": true},
	}
	if _, err := r.col.UpdateOne(ctx, bson.M{"_id": n.ID}, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) ListFor(ctx context.Context, role domain.Role, uid string, limit int) ([]*domain.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{"recipient_role": role, "recipient_uid": bson.M{"$exists": false}},
		bson.M{"recipient_role": domain.RoleAll, "recipient_uid": bson.M{"$exists": false}},
		bson.M{"recipient_uid": uid},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	items := make([]*domain.Notification, 0)
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return items, nil
}

func (r *NotificationRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipient_role", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "recipient_uid", Value: 1}, {Key: "timestamp", Value: -1}}, Options: options.Index().SetSparse(true)},
	})
	return err
}
