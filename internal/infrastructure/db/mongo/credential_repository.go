package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mealvilla/staff-portal/internal/core/domain"
)

// CredentialRepository stores login secrets keyed by email.
type CredentialRepository struct {
	col     *mongo.Collection
	timeout time.Duration
}

func NewCredentialRepository(db *mongo.Database, timeout time.Duration) *CredentialRepository {
	return &CredentialRepository{col: db.Collection(collectionCredentials), timeout: orDefault(timeout)}
}

func (r *CredentialRepository) Create(ctx context.Context, c *domain.Credential) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateStaffID
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (r *CredentialRepository) FindByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var c domain.Credential
	if err := r.col.FindOne(ctx, bson.M{"_id": email}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return &c, nil
}

func (r *CredentialRepository) Delete(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": email})
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
