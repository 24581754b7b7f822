package persist

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoSnapshot struct {
	Key       string `bson:"_id"`
	Data      []byte `bson:"data"`
	UpdatedAt int64  `bson:"updated_at"`
}

// MongoSink stores snapshots as documents of the "snapshots" collection.
type MongoSink struct {
	client    *mongo.Client
	snapshots *mongo.Collection
}

func OpenMongo(ctx context.Context, uri string, database string) (*MongoSink, error) {
	// Connect to MongoDB
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	// Ping MongoDB
	var result bson.M
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Decode(&result); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}

	return &MongoSink{
		client:    client,
		snapshots: client.Database(database).Collection("snapshots"),
	}, nil
}

func (m *MongoSink) Save(ctx context.Context, key string, v any) error {
	data, err := encode(v)
	if err != nil {
		return err
	}
	_, err = m.snapshots.ReplaceOne(
		ctx,
		bson.M{"_id": key},
		mongoSnapshot{Key: key, Data: data, UpdatedAt: time.Now().UnixMilli()},
		options.Replace().SetUpsert(true),
	)
	return err
}

func (m *MongoSink) Load(ctx context.Context, key string, v any) (bool, error) {
	var snap mongoSnapshot
	err := m.snapshots.FindOne(ctx, bson.M{"_id": key}).Decode(&snap)
	if err == mongo.ErrNoDocuments {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, decode(snap.Data, v)
}

func (m *MongoSink) Delete(ctx context.Context, key string) error {
	_, err := m.snapshots.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

func (m *MongoSink) Close() error {
	return m.client.Disconnect(context.Background())
}
