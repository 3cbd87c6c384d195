package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/utils"
)

// AdaptationRepository provides database operations for adaptation records
type AdaptationRepository struct {
	collection *mongo.Collection
}

// NewAdaptationRepository returns a repository backed by the singleton connection
func NewAdaptationRepository() (*AdaptationRepository, error) {
	conn, err := GetConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	return &AdaptationRepository{
		collection: conn.GetCollection(AdaptationsCollection),
	}, nil
}

// InsertAdaptation inserts a new adaptation record
func (ar *AdaptationRepository) InsertAdaptation(ctx context.Context, record *AdaptationRecord) error {
	record.CreatedAt = time.Now()

	_, err := ar.collection.InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to insert adaptation record: %w", err)
	}

	return nil
}

// GetAdaptationByRequestID retrieves an adaptation record by request ID
func (ar *AdaptationRepository) GetAdaptationByRequestID(ctx context.Context, requestID string) (*AdaptationRecord, error) {
	var record AdaptationRecord
	err := ar.collection.FindOne(ctx, bson.M{"request_id": requestID}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get adaptation record by request ID: %w", err)
	}

	return &record, nil
}

// GetRecentAdaptations retrieves recent adaptation records with pagination
func (ar *AdaptationRepository) GetRecentAdaptations(ctx context.Context, limit, offset int64) ([]*AdaptationRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := ar.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find adaptation records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*AdaptationRecord
	for cursor.Next(ctx) {
		var record AdaptationRecord
		if err := cursor.Decode(&record); err != nil {
			return nil, fmt.Errorf("failed to decode adaptation record: %w", err)
		}
		records = append(records, &record)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return records, nil
}

// GetAdaptationsByBackend retrieves adaptation records for a specific backend
func (ar *AdaptationRepository) GetAdaptationsByBackend(ctx context.Context, backend string, limit int64) ([]*AdaptationRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := ar.collection.Find(ctx, bson.M{"backend": backend}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find adaptation records by backend: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*AdaptationRecord
	for cursor.Next(ctx) {
		var record AdaptationRecord
		if err := cursor.Decode(&record); err != nil {
			return nil, fmt.Errorf("failed to decode adaptation record: %w", err)
		}
		records = append(records, &record)
	}

	return records, nil
}

// AuditLogger writes adaptation records to MongoDB. Logging stays disabled
// unless MONGODB_URI points at a reachable server, so the adapter runs
// without a database by default.
type AuditLogger struct {
	repo        *AdaptationRepository
	environment string
	version     string
	enabled     bool
}

// NewAuditLogger creates an audit logger, probing the database connection once
func NewAuditLogger() *AuditLogger {
	environment := os.Getenv("ENVIRONMENT")
	if environment == "" {
		environment = "development"
	}

	version := os.Getenv("VERSION")
	if version == "" {
		version = "unknown"
	}

	enabled := false
	var repo *AdaptationRepository

	if os.Getenv("MONGODB_URI") != "" {
		var err error
		repo, err = NewAdaptationRepository()
		if err != nil {
			log.Printf("Warning: MongoDB URI provided but failed to initialize audit repository: %v", err)
		} else {
			log.Printf("Adaptation audit logging enabled: Successfully connected to MongoDB")
			enabled = true
		}
	} else {
		log.Printf("Adaptation audit logging disabled: No MongoDB URI provided")
	}

	return &AuditLogger{
		repo:        repo,
		environment: environment,
		version:     version,
		enabled:     enabled,
	}
}

// Enabled reports whether records are being persisted
func (al *AuditLogger) Enabled() bool {
	return al.enabled && al.repo != nil
}

// stamp fills in the fields every persisted record carries.
func (al *AuditLogger) stamp(record *AdaptationRecord) {
	if record.AdaptationID == "" {
		record.AdaptationID = utils.GenerateAdaptationID()
	}
	record.Environment = al.environment
	record.Version = al.version
}

// Record persists an adaptation record asynchronously so the request path
// never blocks on the database.
func (al *AuditLogger) Record(record AdaptationRecord) {
	if !al.Enabled() {
		return
	}

	al.stamp(&record)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := al.repo.InsertAdaptation(ctx, &record); err != nil {
			log.Printf("Warning: Failed to write adaptation record: %v", err)
		}
	}()
}
