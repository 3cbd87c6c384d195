package database

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// AdaptationsCollection stores one record per adapted request.
const AdaptationsCollection = "adaptations"

// Connection holds the MongoDB connection and configuration
type Connection struct {
	Client   *mongo.Client
	Database *mongo.Database
	Config   *DatabaseConfig
}

var (
	instance *Connection
	once     sync.Once
)

// GetConnection returns a singleton MongoDB connection, creating it from
// environment configuration on first use.
func GetConnection() (*Connection, error) {
	var err error
	once.Do(func() {
		config := GetDatabaseConfig()
		instance, err = newConnection(config)
	})
	return instance, err
}

func newConnection(config *DatabaseConfig) (*Connection, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(config.URI)
	if config.AppName != "" {
		clientOptions.SetAppName(config.AppName)
	}

	maskedConfig := config.MaskSensitiveData()
	log.Printf("Connecting to MongoDB database: %s (URI: %s)",
		maskedConfig.DatabaseName, maskedConfig.URI)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	connection := &Connection{
		Client:   client,
		Database: client.Database(config.DatabaseName),
		Config:   config,
	}

	log.Printf("Successfully connected to MongoDB database: %s", config.DatabaseName)

	// Index creation failure degrades query performance but the service
	// still functions, so it does not fail the connection.
	if err := connection.createIndexes(ctx); err != nil {
		log.Printf("Warning: Failed to create database indexes: %v", err)
	}

	return connection, nil
}

// Disconnect closes the MongoDB connection
func (c *Connection) Disconnect() error {
	if c.Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return c.Client.Disconnect(ctx)
}

// IsConnected checks if the MongoDB connection is active
func (c *Connection) IsConnected() bool {
	if c.Client == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return c.Client.Ping(ctx, readpref.Primary()) == nil
}

// GetCollection returns a MongoDB collection
func (c *Connection) GetCollection(name string) *mongo.Collection {
	return c.Database.Collection(name)
}

func (c *Connection) createIndexes(ctx context.Context) error {
	adaptations := c.GetCollection(AdaptationsCollection)

	timestampIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: -1}},
		Options: options.Index().SetName("created_at_desc"),
	}

	backendIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "backend", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("backend_created_at_desc"),
	}

	requestIdIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "request_id", Value: 1}},
		Options: options.Index().SetName("request_id"),
	}

	dialectIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "target_dialect", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("target_dialect_created_at_desc"),
	}

	statusCodeIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "status_code", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("status_code_created_at_desc"),
	}

	indexes := []mongo.IndexModel{timestampIndex, backendIndex, requestIdIndex, dialectIndex, statusCodeIndex}

	_, err := adaptations.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create %s indexes: %w", AdaptationsCollection, err)
	}

	log.Printf("Successfully created database indexes for collection: %s", AdaptationsCollection)
	return nil
}

// HealthCheck performs a health check on the MongoDB connection
func (c *Connection) HealthCheck() error {
	if c.Client == nil {
		return fmt.Errorf("MongoDB client is nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.Client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("MongoDB ping failed: %w", err)
	}

	return nil
}
