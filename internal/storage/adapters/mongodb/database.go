package mongodb

import (
	"context"
	"time"

	"reporting-store/internal/storage/core/ports"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const connectTimeout = 5 * time.Second

// Database keeps every bucket in its own collection of one MongoDB database.
type Database struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ ports.DatabasePort = (*Database)(nil)

func Connect(ctx context.Context, uri, name string) (*Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetConnectTimeout(connectTimeout))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongo")
	}

	d := &Database{client: client, db: client.Database(name)}
	if err := d.Alive(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return d, nil
}

func (d *Database) Collection(name string) ports.CollectionPort {
	return NewCollection(d.db.Collection(name))
}

func (d *Database) Alive(ctx context.Context) error {
	return errors.Wrap(d.client.Ping(ctx, readpref.Primary()), "pinging mongo")
}

func (d *Database) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return d.client.Disconnect(ctx)
}
