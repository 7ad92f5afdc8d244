package mongo

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// channelProfileFields is the public projection of a channel.
var channelProfileFields = bson.M{
	"fullName":                  1,
	"username":                  1,
	"subscribersCount":          1,
	"channelsSubscribedToCount": 1,
	"isSubscribed":              1,
	"avatar":                    1,
	"coverImage":                1,
	"email":                     1,
}

// channelProfilePipeline matches the channel, joins the subscription edges in
// both directions, derives the counters and the viewer's membership, then
// projects. Each stage reads fields produced by the previous one.
func channelProfilePipeline(username string, viewer primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"username": username}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         collectionSubscriptions,
			"localField":   "_id",
			"foreignField": "channel",
			"as":           "subscribers",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         collectionSubscriptions,
			"localField":   "_id",
			"foreignField": "subscriber",
			"as":           "subscribedTo",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"subscribersCount":          bson.M{"$size": "$subscribers"},
			"channelsSubscribedToCount": bson.M{"$size": "$subscribedTo"},
			"isSubscribed": bson.M{"$cond": bson.M{
				"if":   bson.M{"$in": bson.A{viewer, "$subscribers.subscriber"}},
				"then": true,
				"else": false,
			}},
		}}},
		{{Key: "$project", Value: channelProfileFields}},
	}
}

// watchHistoryPipeline matches the user and resolves its watch history
// against videos, resolving each video's owner to a single projected object.
// The stored reference order is copied to watchOrder first because $lookup
// returns joined documents in collection order.
func watchHistoryPipeline(userID primitive.ObjectID) mongo.Pipeline {
	ownerLookup := bson.M{"$lookup": bson.M{
		"from":         collectionUsers,
		"localField":   "owner",
		"foreignField": "_id",
		"as":           "owner",
		"pipeline": bson.A{
			bson.M{"$project": bson.M{"fullName": 1, "username": 1, "avatar": 1}},
		},
	}}
	flattenOwner := bson.M{"$addFields": bson.M{"owner": bson.M{"$first": "$owner"}}}

	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": userID}}},
		{{Key: "$addFields", Value: bson.M{"watchOrder": "$watchHistory"}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         collectionVideos,
			"localField":   "watchHistory",
			"foreignField": "_id",
			"as":           "watchHistory",
			"pipeline":     bson.A{ownerLookup, flattenOwner},
		}}},
		{{Key: "$project", Value: bson.M{"watchOrder": 1, "watchHistory": 1}}},
	}
}
