package database

import (
	"fmt"
	"os"
	"strings"
)

// DatabaseConfig holds MongoDB connection configuration
type DatabaseConfig struct {
	// MongoDB connection URI (includes all connection details including auth)
	URI string
	// The current environment (local, development, production, or test)
	Environment string
	// Database name based on environment and service name
	DatabaseName string
	// Application name for MongoDB connection
	AppName string
}

// GetDatabaseConfig retrieves the MongoDB database configuration based on
// environment variables. The database name is auto-generated from the
// service name and environment.
func GetDatabaseConfig() *DatabaseConfig {
	environment := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if environment == "" {
		environment = "development"
	}

	serviceName := os.Getenv("SERVICE_NAME")
	if serviceName == "" {
		serviceName = "chat-dialect-adapter"
	}

	var envPrefix string
	switch environment {
	case "production", "prod":
		envPrefix = "prod"
		environment = "production"
	case "local":
		envPrefix = "loc"
	case "test":
		envPrefix = "test"
	default:
		envPrefix = "dev"
		environment = "development"
	}

	// Auto-generate database name: {env-prefix}-{service-name}
	dbServiceName := strings.ReplaceAll(serviceName, "_", "-")
	databaseName := fmt.Sprintf("%s-%s", envPrefix, dbServiceName)

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	return &DatabaseConfig{
		URI:          uri,
		Environment:  environment,
		DatabaseName: databaseName,
		AppName:      serviceName,
	}
}

// GetConnectionString returns the full MongoDB connection string with database name
func (c *DatabaseConfig) GetConnectionString() string {
	// If URI already carries a database path, return it unchanged
	if strings.Contains(c.URI, "/") && !strings.HasSuffix(c.URI, "/") {
		parts := strings.Split(c.URI, "/")
		if len(parts) > 3 && parts[3] != "" {
			return c.URI
		}
	}

	if strings.HasSuffix(c.URI, "/") {
		return c.URI + c.DatabaseName
	}
	return c.URI + "/" + c.DatabaseName
}

// MaskSensitiveData returns a copy of the config with credentials masked for logging
func (c *DatabaseConfig) MaskSensitiveData() *DatabaseConfig {
	masked := *c
	if strings.Contains(masked.URI, "@") {
		parts := strings.Split(masked.URI, "@")
		if len(parts) >= 2 {
			credsPart := strings.Split(parts[0], "//")
			if len(credsPart) >= 2 {
				masked.URI = credsPart[0] + "//***:***@" + strings.Join(parts[1:], "@")
			}
		}
	}
	return &masked
}
