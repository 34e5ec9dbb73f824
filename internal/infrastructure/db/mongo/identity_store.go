package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/signet-auth/signet/internal/core/domain"
)

const identityCollection = "api_identities"

// IdentityStore is the MongoDB-backed CredentialStore. Documents carry a
// version counter; updates are conditional on the version their caller read,
// which gives the per-record serialization concurrent role grants need.
type IdentityStore struct {
	coll *mongo.Collection
}

func NewIdentityStore(db *mongo.Database) *IdentityStore {
	return &IdentityStore{coll: db.Collection(identityCollection)}
}

// EnsureIndexes creates the unique index backing key uniqueness. Call once
// at startup.
func (r *IdentityStore) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "apikey", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create apikey index: %w", err)
	}
	return nil
}

type identityDoc struct {
	Key       string   `bson:"apikey"`
	Secret    string   `bson:"apisecret"`
	Email     string   `bson:"email"`
	Enabled   bool     `bson:"enabled"`
	Roles     []string `bson:"roles"`
	Version   int64    `bson:"version"`
	CreatedAt int64    `bson:"created_at"`
	UpdatedAt int64    `bson:"updated_at"`
}

func (r *IdentityStore) FindByKey(ctx context.Context, key string) (*domain.Identity, error) {
	var doc identityDoc
	if err := r.coll.FindOne(ctx, bson.M{"apikey": key}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return docToIdentity(doc), nil
}

func (r *IdentityStore) ExistsByKey(ctx context.Context, key string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"apikey": key}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count identities: %w", err)
	}
	return n > 0, nil
}

func (r *IdentityStore) Insert(ctx context.Context, identity *domain.Identity) error {
	identity.Version = 1
	if _, err := r.coll.InsertOne(ctx, identityToDoc(identity)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateKey
		}
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

// Update persists the identity if and only if the stored version still
// matches the one the caller read. A lost race surfaces as
// domain.ErrVersionConflict rather than a silent overwrite.
func (r *IdentityStore) Update(ctx context.Context, identity *domain.Identity) error {
	filter := bson.M{"apikey": identity.Key, "version": identity.Version}
	update := bson.M{
		"$set": bson.M{
			"apisecret":  identity.Secret,
			"email":      identity.Email,
			"enabled":    identity.Enabled,
			"roles":      identity.Roles.Names(),
			"updated_at": identity.UpdatedAt.Unix(),
		},
		"$inc": bson.M{"version": int64(1)},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update identity: %w", err)
	}
	if res.MatchedCount == 0 {
		exists, err := r.ExistsByKey(ctx, identity.Key)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrVersionConflict
		}
		return domain.ErrIdentityNotFound
	}
	identity.Version++
	return nil
}

func (r *IdentityStore) Delete(ctx context.Context, key string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"apikey": key})
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

func (r *IdentityStore) All(ctx context.Context) ([]domain.Identity, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "apikey", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer cursor.Close(ctx)

	var identities []domain.Identity
	for cursor.Next(ctx) {
		var doc identityDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode identity: %w", err)
		}
		identities = append(identities, *docToIdentity(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return identities, nil
}

func identityToDoc(identity *domain.Identity) identityDoc {
	return identityDoc{
		Key:       identity.Key,
		Secret:    identity.Secret,
		Email:     identity.Email,
		Enabled:   identity.Enabled,
		Roles:     identity.Roles.Names(),
		Version:   identity.Version,
		CreatedAt: identity.CreatedAt.Unix(),
		UpdatedAt: identity.UpdatedAt.Unix(),
	}
}

func docToIdentity(doc identityDoc) *domain.Identity {
	return &domain.Identity{
		Key:       doc.Key,
		Secret:    doc.Secret,
		Email:     doc.Email,
		Enabled:   doc.Enabled,
		Roles:     domain.NewRoleSet(doc.Roles...),
		Version:   doc.Version,
		CreatedAt: unixToTime(doc.CreatedAt),
		UpdatedAt: unixToTime(doc.UpdatedAt),
	}
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
