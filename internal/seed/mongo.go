package seed

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOptions locates the seed collection.
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
}

// LoadMongo reads every document of the seed collection in _id order.
func LoadMongo(ctx context.Context, opts MongoOptions) (seq *Sequence, err error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	defer func() {
		if derr := client.Disconnect(ctx); derr != nil && err == nil {
			err = derr
		}
	}()

	return loadCollection(ctx, client.Database(opts.Database).Collection(opts.Collection))
}

func loadCollection(ctx context.Context, coll *mongo.Collection) (*Sequence, error) {
	cursor, err := coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", coll.Name(), err)
	}

	var records []OrderRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return NewSequence(records), nil
}
