package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"

	"git.sr.ht/~aondrejcak/wellness-api/models"
)

const (
	adminsCollection      = "admins"
	permissionsCollection = "permissions"

	defaultMongoDatabase = "wellness"
)

type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// OpenMongo connects to uri and verifies the primary is reachable. An empty
// database name falls back to the one named in the URI path.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetMonitor(otelmongo.NewMonitor())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	if database == "" {
		database = DatabaseFromURI(uri)
	}

	return NewMongoStore(client, client.Database(database)), nil
}

func NewMongoStore(client *mongo.Client, db *mongo.Database) *MongoStore {
	return &MongoStore{client: client, db: db}
}

// DatabaseFromURI extracts the default database from a mongodb:// or
// mongodb+srv:// connection string.
func DatabaseFromURI(uri string) string {
	rest := uri
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	i := strings.Index(rest, "/")
	if i < 0 {
		return defaultMongoDatabase
	}
	name := rest[i+1:]
	if j := strings.IndexAny(name, "?#"); j >= 0 {
		name = name[:j]
	}
	if name == "" {
		return defaultMongoDatabase
	}
	return name
}

func (s *MongoStore) FindAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	admin := &models.Admin{}
	err := s.db.Collection(adminsCollection).FindOne(ctx, bson.M{"email": email}).Decode(admin)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("finding admin %s: %w", email, err)
	}
	return admin, nil
}

func (s *MongoStore) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	if admin.ID == "" {
		admin.ID = primitive.NewObjectID().Hex()
	}
	stampAdmin(admin)

	if _, err := s.db.Collection(adminsCollection).InsertOne(ctx, admin); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("inserting admin %s: %w", admin.Email, err)
	}
	return nil
}

func (s *MongoStore) FindPermissionByKey(ctx context.Context, key string) (*models.Permission, error) {
	permission := &models.Permission{}
	err := s.db.Collection(permissionsCollection).FindOne(ctx, bson.M{"key": key}).Decode(permission)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("finding permission %s: %w", key, err)
	}
	return permission, nil
}

func (s *MongoStore) CreatePermission(ctx context.Context, permission *models.Permission) error {
	if permission.ID == "" {
		permission.ID = primitive.NewObjectID().Hex()
	}
	stampPermission(permission)

	if _, err := s.db.Collection(permissionsCollection).InsertOne(ctx, permission); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("inserting permission %s: %w", permission.Key, err)
	}
	return nil
}

func (s *MongoStore) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "key", Value: 1}})

	cursor, err := s.db.Collection(permissionsCollection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing permissions: %w", err)
	}

	permissions := make([]models.Permission, 0)
	if err = cursor.All(ctx, &permissions); err != nil {
		return nil, fmt.Errorf("decoding permissions: %w", err)
	}
	return permissions, nil
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := map[string]string{
		adminsCollection:      "email",
		permissionsCollection: "key",
	}
	for collection, field := range indexes {
		_, err := s.db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			return fmt.Errorf("creating unique index %s.%s: %w", collection, field, err)
		}
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
