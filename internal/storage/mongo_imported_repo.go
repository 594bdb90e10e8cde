package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOptions содержит настройки подключения к MongoDB
type MongoOptions struct {
	URI        string // mongodb://localhost:27017
	Database   string // missions
	Collection string // imported_worlds
}

// MongoImportedRepo хранит импортированные миры в коллекции MongoDB
// с уникальным индексом по имени.
type MongoImportedRepo struct {
	client     *mongo.Client
	collection *mongo.Collection
	ctxTimeout time.Duration
}

// NewMongoImportedRepo подключается к MongoDB и создаёт индексы
func NewMongoImportedRepo(ctx context.Context, opts MongoOptions) (*MongoImportedRepo, error) {
	opts = opts.withDefaults()

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(cctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	repo := &MongoImportedRepo{
		client:     client,
		collection: client.Database(opts.Database).Collection(opts.Collection),
		ctxTimeout: 5 * time.Second,
	}
	if err := repo.ensureIndexes(cctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return repo, nil
}

func (o MongoOptions) withDefaults() MongoOptions {
	if o.URI == "" {
		o.URI = "mongodb://localhost:27017"
	}
	if o.Database == "" {
		o.Database = "missions"
	}
	if o.Collection == "" {
		o.Collection = "imported_worlds"
	}
	return o
}

func mapMongoInsertError(name string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("mongo insert %q: %w", name, err)
	}
	return nil
}

func mapMongoFindError(name string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("mongo find %q: %w", name, err)
	}
	return nil
}

func (m *MongoImportedRepo) ensureIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("name_unique"),
		},
		{
			Keys:    bson.D{{Key: "imported_at", Value: 1}},
			Options: options.Index().SetName("imported_at"),
		},
	})
	if err != nil {
		return fmt.Errorf("mongo indexes: %w", err)
	}
	return nil
}

func (m *MongoImportedRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.ctxTimeout)
}

func (m *MongoImportedRepo) Save(ctx context.Context, w ImportedWorld) error {
	if err := validate(w); err != nil {
		return err
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	_, err := m.collection.InsertOne(ctx, stamp(w))
	return mapMongoInsertError(w.Name, err)
}

func (m *MongoImportedRepo) Get(ctx context.Context, name string) (ImportedWorld, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	var w ImportedWorld
	err := m.collection.FindOne(ctx, bson.M{"name": name}).Decode(&w)
	if err := mapMongoFindError(name, err); err != nil {
		return ImportedWorld{}, err
	}
	return w, nil
}

func (m *MongoImportedRepo) List(ctx context.Context) ([]ImportedWorld, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	findOpts := options.Find().SetSort(bson.D{{Key: "imported_at", Value: 1}, {Key: "name", Value: 1}})
	cur, err := m.collection.Find(ctx, bson.D{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	var out []ImportedWorld
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("mongo decode: %w", err)
	}
	return out, nil
}

func (m *MongoImportedRepo) Delete(ctx context.Context, name string) error {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	res, err := m.collection.DeleteOne(ctx, bson.M{"name": name})
	if err != nil {
		return fmt.Errorf("mongo delete %q: %w", name, err)
	}
	return deletedOrNotFound(res.DeletedCount)
}

func (m *MongoImportedRepo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}
