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
	"github.com/mealvilla/staff-portal/internal/core/ports"
)

// RequestRepository implements ports.RequestRepository with one collection per kind.
type RequestRepository struct {
	deletions *mongo.Collection
	additions *mongo.Collection
	timeout   time.Duration
}

func NewRequestRepository(db *mongo.Database, timeout time.Duration) *RequestRepository {
	return &RequestRepository{
		deletions: db.Collection(collectionDeletionRequests),
		additions: db.Collection(collectionAddStaffRequests),
		timeout:   orDefault(timeout),
	}
}

func (r *RequestRepository) col(kind domain.RequestKind) *mongo.Collection {
	if kind == domain.KindDeletion {
		return r.deletions
	}
	return r.additions
}

// Create upserts the request by id so the store can stamp request_timestamp
// with its own clock, then returns the stored document.
func (r *RequestRepository) Create(ctx context.Context, req *domain.StaffRequest) (*domain.StaffRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc, err := fields(req, "_id", "request_timestamp")
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	update := bson.M{
		"$setOnInsert": doc,
		"$currentDate": bson.M{"request_timestamp": true},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored domain.StaffRequest
	if err := r.col(req.Kind).FindOneAndUpdate(ctx, bson.M{"_id": req.ID}, update, opts).Decode(&stored); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateStaffID
		}
		return nil, fmt.Errorf("insert %s request: %w", req.Kind, err)
	}
	return &stored, nil
}

func (r *RequestRepository) Get(ctx context.Context, kind domain.RequestKind, id string) (*domain.StaffRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var req domain.StaffRequest
	if err := r.col(kind).FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, fmt.Errorf("find %s request: %w", kind, err)
	}
	return &req, nil
}

// List returns newest-first requests matching filter.
func (r *RequestRepository) List(ctx context.Context, kind domain.RequestKind, f ports.RequestFilter) ([]*domain.StaffRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.RequestedByUID != "" {
		filter["requested_by_uid"] = f.RequestedByUID
	}
	opts := options.Find().SetSort(bson.D{{Key: "request_timestamp", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	cur, err := r.col(kind).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list %s requests: %w", kind, err)
	}
	items := make([]*domain.StaffRequest, 0)
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode %s requests: %w", kind, err)
	}
	return items, nil
}

// Transition is a compare-and-set on status == pending. The initial password
// hash of an add-staff request is dropped once the request is settled.
func (r *RequestRepository) Transition(ctx context.Context, kind domain.RequestKind, id string, d domain.RequestDecision) (*domain.StaffRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	set := bson.M{
		"status":            d.Status,
		"processed_by_uid":  d.ProcessedByUID,
		"processed_by_name": d.ProcessedByName,
	}
	if d.Feedback != "" {
		set["manager_feedback"] = d.Feedback
	}
	update := bson.M{
		"$set":         set,
		"$unset":       bson.M{"initial_password_hash": ""},
		"$currentDate": bson.M{"processed_timestamp": true},
	}
	filter := bson.M{"_id": id, "status": domain.StatusPending}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	col := r.col(kind)
	var updated domain.StaffRequest
	err := col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("transition %s request: %w", kind, err)
	}

	n, err := col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("transition %s request: %w", kind, err)
	}
	if n == 0 {
		return nil, domain.ErrRequestNotFound
	}
	return nil, domain.ErrAlreadyProcessed
}

// Reopen undoes an approval claimed by processedByUID, returning the request
// to pending. Anything else in the stored status yields domain.ErrAlreadyProcessed.
func (r *RequestRepository) Reopen(ctx context.Context, kind domain.RequestKind, id, processedByUID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{
		"_id":              id,
		"status":           domain.StatusApproved,
		"processed_by_uid": processedByUID,
	}
	update := bson.M{
		"$set": bson.M{"status": domain.StatusPending},
		"$unset": bson.M{
			"processed_by_uid":    "",
			"processed_by_name":   "",
			"processed_timestamp": "",
			"manager_feedback":    "",
		},
	}
	res, err := r.col(kind).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("reopen %s request: %w", kind, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAlreadyProcessed
	}
	return nil
}

// EnsureIndexes creates listing indexes on both collections and the partial
// unique index that keeps one pending add-staff request per staff id.
func (r *RequestRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	listing := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "request_timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "requested_by_uid", Value: 1}, {Key: "request_timestamp", Value: -1}}},
	}
	if _, err := r.deletions.Indexes().CreateMany(ctx, listing); err != nil {
		return fmt.Errorf("deletion request indexes: %w", err)
	}

	additions := append(listing, mongo.IndexModel{
		Keys: bson.D{{Key: "target_staff_id", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"status": domain.StatusPending}),
	})
	if _, err := r.additions.Indexes().CreateMany(ctx, additions); err != nil {
		return fmt.Errorf("add-staff request indexes: %w", err)
	}
	return nil
}
