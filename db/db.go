package db

import (
	"context"
	"os"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the slice of *mongo.Collection the handlers use. Tests swap
// in the in-memory implementation from db/dbtest.
type Collection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult
	FindOneAndDelete(ctx context.Context, filter interface{}, opts ...*options.FindOneAndDeleteOptions) *mongo.SingleResult
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

// Store holds the Mongo client and every collection the service uses.
// It is constructed once in main and handed to the handlers.
type Store struct {
	Client *mongo.Client

	Users         Collection
	Pets          Collection
	Products      Collection
	Carts         Collection
	CartItems     Collection
	Orders        Collection
	Adoptions     Collection
	Consultations Collection
}

var (
	connectOnce sync.Once
	store       *Store
	connectErr  error
)

// Connect dials MongoDB and builds the Store. The connection is memoized:
// repeated calls return the same Store for the life of the process.
func Connect(ctx context.Context) (*Store, error) {
	connectOnce.Do(func() {
		uri := os.Getenv("MONGODB_URI")
		if uri == "" {
			uri = "mongodb://localhost:27017"
		}

		client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			connectErr = err
			return
		}
		if err := client.Ping(ctx, nil); err != nil {
			connectErr = err
			return
		}

		dbName := os.Getenv("MONGODB_DB")
		if dbName == "" {
			dbName = "pawmart"
		}
		d := client.Database(dbName)

		store = &Store{
			Client:        client,
			Users:         d.Collection("users"),
			Pets:          d.Collection("pets"),
			Products:      d.Collection("products"),
			Carts:         d.Collection("carts"),
			CartItems:     d.Collection("cartitems"),
			Orders:        d.Collection("orders"),
			Adoptions:     d.Collection("adoptions"),
			Consultations: d.Collection("consultations"),
		}
	})
	return store, connectErr
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}
