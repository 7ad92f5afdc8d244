package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tubehub/user-service/internal/core/domain"
	"github.com/tubehub/user-service/internal/core/ports"
	"github.com/tubehub/user-service/internal/pkg/password"
)

const (
	collectionUsers         = "users"
	collectionSubscriptions = "subscriptions"
	collectionVideos        = "videos"
)

var _ ports.UserRepository = (*UserRepository)(nil)

// UserRepository implements ports.UserRepository on the users collection.
type UserRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers), now: time.Now}
}

type userDocument struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	Username     string               `bson:"username"`
	Email        string               `bson:"email"`
	FullName     string               `bson:"fullName"`
	Avatar       string               `bson:"avatar"`
	AvatarID     string               `bson:"avatarId,omitempty"`
	CoverImage   string               `bson:"coverImage"`
	CoverImageID string               `bson:"coverImageId,omitempty"`
	WatchHistory []primitive.ObjectID `bson:"watchHistory"`
	Password     string               `bson:"password"`
	RefreshToken string               `bson:"refreshToken,omitempty"`
	CreatedAt    time.Time            `bson:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt"`
}

func (d *userDocument) toDomain() *domain.User {
	history := make([]string, 0, len(d.WatchHistory))
	for _, id := range d.WatchHistory {
		history = append(history, id.Hex())
	}
	return &domain.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		FullName:     d.FullName,
		Avatar:       d.Avatar,
		AvatarID:     d.AvatarID,
		CoverImage:   d.CoverImage,
		CoverImageID: d.CoverImageID,
		WatchHistory: history,
		PasswordHash: d.Password,
		RefreshToken: d.RefreshToken,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

// EnsureIndexes creates the unique identity indexes and the subscription
// join indexes. Uniqueness is enforced here, not by the pre-check in the
// service.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	users := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := r.col.Indexes().CreateMany(ctx, users); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}

	subscriptions := []mongo.IndexModel{
		{Keys: bson.D{{Key: "channel", Value: 1}}},
		{Keys: bson.D{{Key: "subscriber", Value: 1}}},
	}
	if _, err := r.col.Database().Collection(collectionSubscriptions).Indexes().CreateMany(ctx, subscriptions); err != nil {
		return fmt.Errorf("subscriptions indexes: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByIdentifier(ctx context.Context, username, email string) (*domain.User, error) {
	or := bson.A{}
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if len(or) == 0 {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"$or": or})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

// Create hashes the password and inserts the user. A duplicate username or
// email is reported as domain.ErrUserExists.
func (r *UserRepository) Create(ctx context.Context, in ports.NewUser) (*domain.User, error) {
	hash, err := password.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := r.now().UTC()
	doc := userDocument{
		ID:           primitive.NewObjectID(),
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		Avatar:       in.Avatar.URL,
		AvatarID:     in.Avatar.PublicID,
		WatchHistory: []primitive.ObjectID{},
		Password:     hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.CoverImage != nil {
		doc.CoverImage = in.CoverImage.URL
		doc.CoverImageID = in.CoverImage.PublicID
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.toDomain(), nil
}

// SetRefreshToken overwrites the session slot.
func (r *UserRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	return r.updateOne(ctx, id, nil, bson.M{"$set": bson.M{"refreshToken": token, "updatedAt": r.now().UTC()}}, domain.ErrUserNotFound)
}

// SwapRefreshToken is a compare-and-swap on the session slot.
func (r *UserRepository) SwapRefreshToken(ctx context.Context, id, current, next string) error {
	if current == "" {
		return domain.ErrRefreshTokenReused
	}
	return r.updateOne(ctx, id,
		bson.M{"refreshToken": current},
		bson.M{"$set": bson.M{"refreshToken": next, "updatedAt": r.now().UTC()}},
		domain.ErrRefreshTokenReused,
	)
}

// ClearRefreshToken removes the field; an absent token means no session.
func (r *UserRepository) ClearRefreshToken(ctx context.Context, id string) error {
	return r.updateOne(ctx, id, nil, bson.M{
		"$unset": bson.M{"refreshToken": ""},
		"$set":   bson.M{"updatedAt": r.now().UTC()},
	}, domain.ErrUserNotFound)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, plain string) error {
	hash, err := password.Hash(plain)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return r.updateOne(ctx, id, nil, bson.M{"$set": bson.M{"password": hash, "updatedAt": r.now().UTC()}}, domain.ErrUserNotFound)
}

func (r *UserRepository) UpdateAccount(ctx context.Context, id, fullName, email string) (*domain.User, error) {
	return r.findAndSet(ctx, id, bson.M{"fullName": fullName, "email": email})
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id string, media domain.Media) (*domain.User, error) {
	return r.findAndSet(ctx, id, bson.M{"avatar": media.URL, "avatarId": media.PublicID})
}

func (r *UserRepository) UpdateCoverImage(ctx context.Context, id string, media domain.Media) (*domain.User, error) {
	return r.findAndSet(ctx, id, bson.M{"coverImage": media.URL, "coverImageId": media.PublicID})
}

// updateOne applies update to the user matching id and extra; notMatched is
// returned when no document matched.
func (r *UserRepository) updateOne(ctx context.Context, id string, extra bson.M, update bson.M, notMatched error) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return notMatched
	}
	filter := bson.M{"_id": oid}
	for k, v := range extra {
		filter[k] = v
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return notMatched
	}
	return nil
}

func (r *UserRepository) findAndSet(ctx context.Context, id string, fields bson.M) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	fields["updatedAt"] = r.now().UTC()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDocument
	err = r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, domain.ErrUserNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return doc.toDomain(), nil
}
