package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sakif/devblog/internal/apperror"
	"github.com/sakif/devblog/internal/model"
	"github.com/sakif/devblog/internal/repository"
)

// newestFirst is the listing order. _id breaks ties between posts created
// in the same millisecond.
var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

// summaryProjection leaves out the fields PostSummary does not carry.
var summaryProjection = bson.D{{Key: "content", Value: 0}, {Key: "updatedAt", Value: 0}}

// postFilter builds the listing filter: an optional category match, and,
// when after is non-empty, the condition selecting posts strictly after the
// cursor in newestFirst order.
func postFilter(category *model.Category, after repository.Cursor) (bson.D, error) {
	filter := bson.D{}
	if category != nil {
		filter = append(filter, bson.E{Key: "category", Value: string(*category)})
	}
	if after.IsZero() {
		return filter, nil
	}

	at, id, err := after.Decode()
	if err != nil {
		return nil, err
	}
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.ValidationFailed("cursor", "malformed page cursor")
	}

	filter = append(filter, bson.E{Key: "$or", Value: bson.A{
		bson.D{{Key: "createdAt", Value: bson.D{{Key: "$lt", Value: at}}}},
		bson.D{{Key: "createdAt", Value: at}, {Key: "_id", Value: bson.D{{Key: "$lt", Value: oid}}}},
	}})
	return filter, nil
}

func summaryFindOptions(limit int) *options.FindOptionsBuilder {
	return options.Find().
		SetSort(newestFirst).
		SetProjection(summaryProjection).
		SetLimit(int64(limit))
}

// parseID converts a public id to an ObjectID. ok is false for strings that
// cannot name a document in this store.
func parseID(id string) (bson.ObjectID, bool) {
	oid, err := bson.ObjectIDFromHex(id)
	return oid, err == nil
}

// touchUpdate is the update pipeline for an edit: it sets fields and moves
// updatedAt to now, or to one millisecond past the stored value when now is
// not later (two edits inside one millisecond). A missing updatedAt is null
// inside $add, and $max ignores nulls.
//
// Field values go through $literal; in a pipeline a string starting with
// "$" would otherwise be read as a field path.
func touchUpdate(now time.Time, fields bson.D) mongo.Pipeline {
	set := make(bson.D, 0, len(fields)+1)
	for _, f := range fields {
		set = append(set, bson.E{Key: f.Key, Value: bson.D{{Key: "$literal", Value: f.Value}}})
	}
	set = append(set, bson.E{Key: "updatedAt", Value: bson.D{{Key: "$max", Value: bson.A{
		now,
		bson.D{{Key: "$add", Value: bson.A{"$updatedAt", 1}}},
	}}}})
	return mongo.Pipeline{{{Key: "$set", Value: set}}}
}
