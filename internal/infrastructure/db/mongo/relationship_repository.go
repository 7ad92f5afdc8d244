package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tubehub/user-service/internal/core/domain"
)

// RelationshipRepository runs the channel and watch-history aggregations on
// the users collection.
type RelationshipRepository struct {
	users *mongo.Collection
}

func NewRelationshipRepository(db *mongo.Database) *RelationshipRepository {
	return &RelationshipRepository{users: db.Collection(collectionUsers)}
}

type channelDocument struct {
	ID                        primitive.ObjectID `bson:"_id"`
	FullName                  string             `bson:"fullName"`
	Username                  string             `bson:"username"`
	Email                     string             `bson:"email"`
	Avatar                    string             `bson:"avatar"`
	CoverImage                string             `bson:"coverImage"`
	SubscribersCount          int                `bson:"subscribersCount"`
	ChannelsSubscribedToCount int                `bson:"channelsSubscribedToCount"`
	IsSubscribed              bool               `bson:"isSubscribed"`
}

type ownerDocument struct {
	ID       primitive.ObjectID `bson:"_id"`
	FullName string             `bson:"fullName"`
	Username string             `bson:"username"`
	Avatar   string             `bson:"avatar"`
}

type videoDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	VideoFile   string             `bson:"videoFile"`
	Thumbnail   string             `bson:"thumbnail"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Duration    float64            `bson:"duration"`
	Views       int64              `bson:"views"`
	IsPublished bool               `bson:"isPublished"`
	Owner       *ownerDocument     `bson:"owner,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

type historyDocument struct {
	WatchOrder   []primitive.ObjectID `bson:"watchOrder"`
	WatchHistory []videoDocument      `bson:"watchHistory"`
}

// ChannelProfile returns nil, nil when no user has the given username.
// An empty viewerID never matches a subscriber.
func (r *RelationshipRepository) ChannelProfile(ctx context.Context, username, viewerID string) (*domain.ChannelProfile, error) {
	viewer := primitive.NilObjectID
	if viewerID != "" {
		oid, err := parseID(viewerID)
		if err != nil {
			return nil, err
		}
		viewer = oid
	}

	var docs []channelDocument
	if err := r.aggregate(ctx, channelProfilePipeline(username, viewer), &docs); err != nil {
		return nil, fmt.Errorf("channel profile: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	d := docs[0]
	return &domain.ChannelProfile{
		ID:                        d.ID.Hex(),
		FullName:                  d.FullName,
		Username:                  d.Username,
		Email:                     d.Email,
		Avatar:                    d.Avatar,
		CoverImage:                d.CoverImage,
		SubscribersCount:          d.SubscribersCount,
		ChannelsSubscribedToCount: d.ChannelsSubscribedToCount,
		IsSubscribed:              d.IsSubscribed,
	}, nil
}

// WatchHistory returns the user's history in stored order. Unknown users and
// dangling video references yield no entries.
func (r *RelationshipRepository) WatchHistory(ctx context.Context, userID string) ([]domain.WatchedVideo, error) {
	oid, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	var docs []historyDocument
	if err := r.aggregate(ctx, watchHistoryPipeline(oid), &docs); err != nil {
		return nil, fmt.Errorf("watch history: %w", err)
	}
	if len(docs) == 0 {
		return []domain.WatchedVideo{}, nil
	}
	return orderWatchHistory(docs[0].WatchOrder, docs[0].WatchHistory), nil
}

func (r *RelationshipRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline, out any) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.users.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	return cur.All(ctx, out)
}

// orderWatchHistory lays the joined videos out in the stored reference order,
// repeating entries that were watched more than once.
func orderWatchHistory(order []primitive.ObjectID, videos []videoDocument) []domain.WatchedVideo {
	byID := make(map[primitive.ObjectID]videoDocument, len(videos))
	for _, v := range videos {
		byID[v.ID] = v
	}

	out := make([]domain.WatchedVideo, 0, len(order))
	for _, id := range order {
		v, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, v.toDomain())
	}
	return out
}

func (v videoDocument) toDomain() domain.WatchedVideo {
	w := domain.WatchedVideo{
		ID:          v.ID.Hex(),
		VideoFile:   v.VideoFile,
		Thumbnail:   v.Thumbnail,
		Title:       v.Title,
		Description: v.Description,
		Duration:    v.Duration,
		Views:       v.Views,
		IsPublished: v.IsPublished,
		CreatedAt:   v.CreatedAt.UTC(),
	}
	if v.Owner != nil {
		w.Owner = &domain.VideoOwner{
			ID:       v.Owner.ID.Hex(),
			FullName: v.Owner.FullName,
			Username: v.Owner.Username,
			Avatar:   v.Owner.Avatar,
		}
	}
	return w
}

// parseID wraps every malformed id in primitive.ErrInvalidHex so the API
// layer can map it to a bad request.
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", primitive.ErrInvalidHex, id)
	}
	return oid, nil
}
