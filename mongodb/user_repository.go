package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hyeonlab/boardauth/domain"
)

// UsersCollection is the collection backing identity persistence.
const UsersCollection = "users"

// UserRepository implements domain.UserRepository on MongoDB.
type UserRepository struct {
	users *mongo.Collection
}

// NewUserRepository creates a new UserRepository and ensures its indexes.
func NewUserRepository(ctx context.Context, db *mongo.Database) (*UserRepository, error) {
	repo := &UserRepository{
		users: db.Collection(UsersCollection),
	}
	if err := repo.createIndexes(ctx); err != nil {
		// Index creation commonly fails when compatible indexes already
		// exist; the repository stays usable either way.
		log.Warn().Err(err).Msg("Failed to create user indexes")
	}
	return repo, nil
}

func (r *UserRepository) createIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetCollation(&options.Collation{Locale: "en", Strength: 2}),
		},
		{
			Keys: bson.D{{Key: "provider", Value: 1}},
		},
	}

	if _, err := r.users.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes for users collection: %w", err)
	}
	return nil
}

// FindByEmail retrieves an identity by its email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		log.Error().Err(err).Str("email", email).Msg("Error getting user by email from MongoDB")
		return nil, err
	}
	return &user, nil
}

// Insert creates a new identity.
func (r *UserRepository) Insert(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if _, err := r.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		log.Error().Err(err).Str("email", user.Email).Msg("Error creating user in MongoDB")
		return err
	}
	return nil
}

// Update replaces an existing identity document.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now().UTC()

	result, err := r.users.ReplaceOne(ctx, bson.M{"email": user.Email}, user)
	if err != nil {
		log.Error().Err(err).Str("email", user.Email).Msg("Error updating user in MongoDB")
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Delete removes an identity by email.
func (r *UserRepository) Delete(ctx context.Context, email string) error {
	result, err := r.users.DeleteOne(ctx, bson.M{"email": email})
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("Error deleting user from MongoDB")
		return err
	}
	if result.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

var _ domain.UserRepository = (*UserRepository)(nil)
