package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mealvilla/staff-portal/internal/core/domain"
)

// upsertAttempts bounds the retry after a concurrent first write for the
// same day raced us to the insert.
const upsertAttempts = 2

// SalesRepository implements ports.SalesRepository on the salesEntries
// collection. Every mutation is a single conditional update so concurrent
// submissions never lose each other's counts.
type SalesRepository struct {
	col     *mongo.Collection
	timeout time.Duration
}

func NewSalesRepository(db *mongo.Database, timeout time.Duration) *SalesRepository {
	return &SalesRepository{col: db.Collection(collectionSalesEntries), timeout: orDefault(timeout)}
}

func (r *SalesRepository) Get(ctx context.Context, userID, date string) (*domain.SalesEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.get(ctx, domain.SalesKey(userID, date))
}

func (r *SalesRepository) get(ctx context.Context, key string) (*domain.SalesEntry, error) {
	var e domain.SalesEntry
	if err := r.col.FindOne(ctx, bson.M{"_id": key}).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find sales entry: %w", err)
	}
	return &e, nil
}

// Accumulate applies delta with $inc on every product counter.
func (r *SalesRepository) Accumulate(ctx context.Context, userID, staffID, date string, delta domain.SalesTotals) (*domain.SalesEntry, error) {
	inc := bson.M{}
	for category, q := range delta.Categories() {
		for item, n := range q.Fields() {
			inc[category+"."+item] = n
		}
	}
	update := bson.M{
		"$inc":         inc,
		"$setOnInsert": identity(userID, staffID, date),
		"$currentDate": bson.M{"updated_at": true},
	}
	return r.mutateOpen(ctx, domain.SalesKey(userID, date), update)
}

// Reset zeroes every counter and leaves the entry unfinalized.
func (r *SalesRepository) Reset(ctx context.Context, userID, staffID, date string) (*domain.SalesEntry, error) {
	set := zeroTotals()
	set["is_finalized"] = false
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"user_id": userID, "staff_id": staffID, "date": date},
		"$currentDate": bson.M{"updated_at": true},
	}
	return r.mutateOpen(ctx, domain.SalesKey(userID, date), update)
}

// Finalize sets the lock. Finalizing twice is harmless.
func (r *SalesRepository) Finalize(ctx context.Context, userID, staffID, date string) (*domain.SalesEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	insert := zeroTotals()
	insert["user_id"] = userID
	insert["staff_id"] = staffID
	insert["date"] = date
	update := bson.M{
		"$set":         bson.M{"is_finalized": true},
		"$setOnInsert": insert,
		"$currentDate": bson.M{"updated_at": true},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var e domain.SalesEntry
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": domain.SalesKey(userID, date)}, update, opts).Decode(&e); err != nil {
		return nil, fmt.Errorf("finalize sales entry: %w", err)
	}
	return &e, nil
}

// ListByDate returns every entry for date ordered by staff id.
func (r *SalesRepository) ListByDate(ctx context.Context, date string) ([]*domain.SalesEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"date": date}, options.Find().SetSort(bson.D{{Key: "staff_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list sales entries: %w", err)
	}
	entries := make([]*domain.SalesEntry, 0)
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode sales entries: %w", err)
	}
	return entries, nil
}

// mutateOpen applies update only while the entry is not finalized. When the
// filter misses on an existing finalized document, the upsert collides on
// _id; that collision is how a lock is detected.
func (r *SalesRepository) mutateOpen(ctx context.Context, key string, update bson.M) (*domain.SalesEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{"_id": key, "is_finalized": bson.M{"$ne": true}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var lastErr error
	for attempt := 0; attempt < upsertAttempts; attempt++ {
		var e domain.SalesEntry
		err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&e)
		if err == nil {
			return &e, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("update sales entry: %w", err)
		}
		lastErr = err

		cur, err := r.get(ctx, key)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		if cur != nil && cur.IsFinalized {
			return nil, domain.ErrLocked
		}
	}
	return nil, fmt.Errorf("update sales entry: %w", lastErr)
}

// EnsureIndexes supports the per-day listing used by the export.
func (r *SalesRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "date", Value: 1}, {Key: "staff_id", Value: 1}},
	})
	return err
}

func identity(userID, staffID, date string) bson.M {
	return bson.M{
		"user_id":      userID,
		"staff_id":     staffID,
		"date":         date,
		"is_finalized": false,
	}
}

func zeroTotals() bson.M {
	m := bson.M{}
	for category, q := range (domain.SalesTotals{}).Categories() {
		m[category] = q
	}
	return m
}
