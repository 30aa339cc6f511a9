package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Database wraps the Mongo client and the collection handles the app uses.
// It is created once at startup and injected into handlers; there is no
// package-level connection state.
type Database struct {
	Client   *mongo.Client
	Users    *mongo.Collection
	Products *mongo.Collection
	Carts    *mongo.Collection
	Orders   *mongo.Collection
}

// Connect dials Mongo, verifies the connection with a ping and returns the
// collection handles for the storefront's four collections.
func Connect(ctx context.Context, uri, dbName string) (*Database, error) {
	opts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, err
	}

	database := client.Database(dbName)
	return &Database{
		Client:   client,
		Users:    database.Collection("users"),
		Products: database.Collection("products"),
		Carts:    database.Collection("carts"),
		Orders:   database.Collection("orders"),
	}, nil
}

// EnsureIndexes creates the indexes the write paths rely on:
//   - unique email on users,
//   - unique (userId, productId, size) on carts so concurrent adds of the
//     same line collapse into one document,
//   - (userId, createdAt) on orders for the newest-first listing.
func (d *Database) EnsureIndexes(ctx context.Context) error {
	_, err := d.Users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_email"),
		},
		{
			Keys:    bson.D{{Key: "googleId", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("unique_google_id"),
		},
	})
	if err != nil {
		return err
	}

	_, err = d.Carts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "userId", Value: 1},
			{Key: "productId", Value: 1},
			{Key: "size", Value: 1},
		},
		Options: options.Index().SetUnique(true).SetName("unique_cart_line"),
	})
	if err != nil {
		return err
	}

	_, err = d.Orders.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "userId", Value: 1},
			{Key: "createdAt", Value: -1},
		},
		Options: options.Index().SetName("user_orders"),
	})
	return err
}

// Close disconnects the underlying client. Called once during shutdown.
func (d *Database) Close(ctx context.Context) error {
	return d.Client.Disconnect(ctx)
}
