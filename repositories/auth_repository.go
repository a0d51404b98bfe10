package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/examsaathi/examsaathi_backend/config"
	"github.com/examsaathi/examsaathi_backend/models"
	"github.com/examsaathi/examsaathi_backend/services"
)

// AuthRepository persists auth records in the "auth" collection, keyed by
// phone number.
type AuthRepository struct {
	collection *mongo.Collection
}

var _ services.AuthStore = (*AuthRepository)(nil)

func NewAuthRepository(client *mongo.Client) *AuthRepository {
	return &AuthRepository{
		collection: config.GetCollection(client, "auth"),
	}
}

func (r *AuthRepository) FindByPhone(ctx context.Context, phone string) (*models.AuthRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var record models.AuthRecord
	err := r.collection.FindOne(ctx, bson.M{"phone": phone}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// UpsertChallenge overwrites the challenge fields unconditionally, which is
// what invalidates a previously issued code. The verified flag is only set
// on insert, so a verified record keeps its flag through a re-start.
func (r *AuthRepository) UpsertChallenge(ctx context.Context, name, phone, code string, expires, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"phone": phone}
	update := bson.M{
		"$set": bson.M{
			"name":        name,
			"phone":       phone,
			"otp_code":    code,
			"otp_expires": expires,
			"updated_at":  now,
		},
		"$setOnInsert": bson.M{
			"created_at": now,
			"verified":   false,
		},
	}

	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// MarkVerified flips verified and removes both otp fields in a single
// document update, so the challenge is cleared atomically.
func (r *AuthRepository) MarkVerified(ctx context.Context, phone string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"phone": phone}
	update := bson.M{
		"$set":   bson.M{"verified": true},
		"$unset": bson.M{"otp_code": "", "otp_expires": ""},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}
