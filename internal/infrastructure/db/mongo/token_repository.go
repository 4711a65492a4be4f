package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskbox/task-api/internal/core/domain"
)

const (
	collectionTokens = "auth_tokens"
	sequenceTokens   = "token_id"
)

// TokenRepository is the MongoDB-backed token registry. The signed token
// string is stored verbatim under a unique index; lookups are exact-match
// since tokens are high-entropy artifacts.
type TokenRepository struct {
	coll       *mongo.Collection
	counters   *mongo.Collection
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenRepository wires the registry with the per-kind lifetimes used to
// compute row expiry on Record.
func NewTokenRepository(db *mongo.Database, accessTTL, refreshTTL time.Duration) *TokenRepository {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	return &TokenRepository{
		coll:       db.Collection(collectionTokens),
		counters:   db.Collection(collectionCounters),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

type tokenDoc struct {
	ID        int64            `bson:"_id"`
	UserID    int64            `bson:"user_id"`
	Token     string           `bson:"token"`
	Kind      domain.TokenKind `bson:"kind"`
	ExpiresAt time.Time        `bson:"expires_at"`
	IsRevoked bool             `bson:"is_revoked"`
	CreatedAt time.Time        `bson:"created_at"`
	UpdatedAt time.Time        `bson:"updated_at"`
}

func (d *tokenDoc) toDomain() *domain.AuthToken {
	return &domain.AuthToken{
		ID:        d.ID,
		UserID:    d.UserID,
		Token:     d.Token,
		Kind:      d.Kind,
		ExpiresAt: d.ExpiresAt,
		IsRevoked: d.IsRevoked,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (r *TokenRepository) Record(ctx context.Context, userID int64, token string, kind domain.TokenKind, now time.Time) (*domain.AuthToken, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextID(ctx, r.counters, sequenceTokens)
	if err != nil {
		return nil, err
	}

	ttl := r.accessTTL
	if kind == domain.TokenKindRefresh {
		ttl = r.refreshTTL
	}

	doc := tokenDoc{
		ID:        id,
		UserID:    userID,
		Token:     token,
		Kind:      kind,
		ExpiresAt: now.Add(ttl),
		IsRevoked: false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrTokenExists
		}
		return nil, fmt.Errorf("insert token: %w", err)
	}

	return doc.toDomain(), nil
}

// RevokeAll flags every row of the user as revoked. An empty kind covers both
// kinds. UpdateMany makes the call naturally idempotent.
func (r *TokenRepository) RevokeAll(ctx context.Context, userID int64, kind domain.TokenKind) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"user_id": userID}
	if kind != "" {
		filter["kind"] = kind
	}

	update := bson.M{"$set": bson.M{"is_revoked": true, "updated_at": time.Now().UTC()}}
	if _, err := r.coll.UpdateMany(ctx, filter, update); err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	return nil
}

func (r *TokenRepository) RevokeOne(ctx context.Context, token string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"is_revoked": true, "updated_at": time.Now().UTC()}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"token": token}, update)
	if err != nil {
		return false, fmt.Errorf("revoke token: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *TokenRepository) FindValid(ctx context.Context, token string, now time.Time) (*domain.AuthToken, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"token":      token,
		"is_revoked": false,
		"expires_at": bson.M{"$gt": now},
	}

	var doc tokenDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find valid token: %w", err)
	}
	return doc.toDomain(), nil
}

// SweepExpired deletes rows already excluded by FindValid, so it can run
// concurrently with request handling without any locking.
func (r *TokenRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{"expires_at": bson.M{"$lt": now}},
		bson.M{"is_revoked": true},
	}}

	res, err := r.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("sweep tokens: %w", err)
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates the unique token index plus the owner/kind index used
// by RevokeAll.
func (r *TokenRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "kind", Value: 1}}},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
