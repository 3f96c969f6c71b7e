package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"alfredoptarigan/resume-parser/internal/models"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfileRepository interface {
	EnsureIndexes(ctx context.Context) error
	Upsert(ctx context.Context, profile *models.Profile) (*models.Profile, error)
	FindByClerkID(ctx context.Context, clerkID string) (*models.Profile, error)
	FindByClerkIDs(ctx context.Context, clerkIDs []string) ([]models.Profile, error)
	Update(ctx context.Context, clerkID string, fields bson.M) (*models.Profile, error)
	Delete(ctx context.Context, clerkID string) error
	ForEach(ctx context.Context, fn func(*models.Profile) error) error
}

type profileRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewProfileRepository(coll *mongo.Collection) ProfileRepository {
	return &profileRepository{
		coll: coll,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// EnsureIndexes implements ProfileRepository.
func (r *profileRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "clerk_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("clerk_id_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create clerk_id index: %w", err)
	}
	return nil
}

// Upsert implements ProfileRepository.
func (r *profileRepository) Upsert(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	now := r.now()
	profile.UpdatedAt = now

	update := bson.M{
		"$set":         profile.UpsertFields(),
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var saved models.Profile
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"clerk_id": profile.ClerkID}, update, opts).Decode(&saved)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile %s: %w", profile.ClerkID, err)
	}

	return &saved, nil
}

// FindByClerkID implements ProfileRepository.
func (r *profileRepository) FindByClerkID(ctx context.Context, clerkID string) (*models.Profile, error) {
	var profile models.Profile
	err := r.coll.FindOne(ctx, bson.M{"clerk_id": clerkID}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to find profile %s: %w", clerkID, err)
	}

	return &profile, nil
}

// FindByClerkIDs implements ProfileRepository.
func (r *profileRepository) FindByClerkIDs(ctx context.Context, clerkIDs []string) ([]models.Profile, error) {
	if len(clerkIDs) == 0 {
		return []models.Profile{}, nil
	}

	cursor, err := r.coll.Find(ctx, bson.M{"clerk_id": bson.M{"$in": clerkIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to find profiles: %w", err)
	}

	profiles := []models.Profile{}
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("failed to decode profiles: %w", err)
	}

	return profiles, nil
}

// Update implements ProfileRepository.
func (r *profileRepository) Update(ctx context.Context, clerkID string, fields bson.M) (*models.Profile, error) {
	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}
	set["updated_at"] = r.now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Profile
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"clerk_id": clerkID}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to update profile %s: %w", clerkID, err)
	}

	return &updated, nil
}

// Delete implements ProfileRepository.
func (r *profileRepository) Delete(ctx context.Context, clerkID string) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"clerk_id": clerkID})
	if err != nil {
		return fmt.Errorf("failed to delete profile %s: %w", clerkID, err)
	}

	if result.DeletedCount == 0 {
		return ErrProfileNotFound
	}

	return nil
}

// ForEach implements ProfileRepository. Iteration stops at the first error
// returned by fn.
func (r *profileRepository) ForEach(ctx context.Context, fn func(*models.Profile) error) error {
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var profile models.Profile
		if err := cursor.Decode(&profile); err != nil {
			return fmt.Errorf("failed to decode profile: %w", err)
		}
		if err := fn(&profile); err != nil {
			return err
		}
	}

	return cursor.Err()
}
