// Package config provides configuration structures and validation for the
// ledger service binaries. It handles environment-based configuration for
// all major components: the TCP command server, the ledger engine, session
// handling, database connections, the audit stream, and the reporting API.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration. Both binaries use
// the same structure; each reads the sections relevant to it and the
// whole thing is validated at startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	HTTP        HTTPConfig
	Session     SessionConfig
	Engine      EngineConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains TCP command server configuration
type ServerConfig struct {
	ListenAddr      string        // host:port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	IdleTimeout     time.Duration // Maximum time to wait for the next request on a connection
}

// HTTPConfig contains reporting API server configuration
type HTTPConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// SessionConfig contains authenticated-session configuration
type SessionConfig struct {
	TTL time.Duration // Zero disables expiry
}

// EngineConfig contains ledger engine configuration
type EngineConfig struct {
	LockTimeout  time.Duration // Bound on row-lock acquisition per operation
	RetryBackoff time.Duration // Dispatcher backoff before the single retry of a busy/storage failure
}

// KafkaConfig contains audit stream configuration
type KafkaConfig struct {
	Brokers           string
	AuditTopic        string
	NumPartitions     int // Number of partitions for topics
	ReplicationFactor int // Replication factor for topics
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string // Topic for poison audit messages
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string        // Database connection string
	MaxConns        int32         // Maximum number of open connections
	MinConns        int32         // Minimum number of idle connections
	ConnMaxLifetime time.Duration // Maximum lifetime of a connection
	ConnMaxIdleTime time.Duration // Maximum idle time of a connection
	MigrationsPath  string        // Path to migration files
}

// MongoDBConfig contains MongoDB configuration
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// OutboxConfig contains outbox publishing configuration
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int // Attempts before a message is marked FAILED_TO_PUBLISH
}

// WorkerPoolConfig contains archiver worker pool configuration
type WorkerPoolConfig struct {
	Size int
}

// validate checks all configuration values against their minimum
// requirements and logical constraints
func (c *Config) validate() error {
	var validationErrors []string

	if c.Server.ListenAddr == "" {
		validationErrors = append(validationErrors, "SERVER_LISTEN_ADDR is required")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	if c.HTTP.Port <= 0 {
		validationErrors = append(validationErrors, "HTTP_PORT must be greater than 0")
	}
	if c.HTTP.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "HTTP_READ_TIMEOUT must be greater than 0")
	}
	if c.HTTP.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "HTTP_WRITE_TIMEOUT must be greater than 0")
	}
	if c.HTTP.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "HTTP_IDLE_TIMEOUT must be greater than 0")
	}

	if c.Session.TTL < 0 {
		validationErrors = append(validationErrors, "SESSION_TTL must not be negative")
	}

	if c.Engine.LockTimeout <= 0 {
		validationErrors = append(validationErrors, "ENGINE_LOCK_TIMEOUT must be greater than 0")
	}
	if c.Engine.RetryBackoff <= 0 {
		validationErrors = append(validationErrors, "DISPATCH_RETRY_BACKOFF must be greater than 0")
	}

	if len(c.Kafka.Brokers) == 0 {
		validationErrors = append(validationErrors, "KAFKA_BROKERS is required")
	}
	if c.Kafka.AuditTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_AUDIT_TOPIC is required")
	}
	if c.Kafka.ConsumerGroup == "" {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_GROUP is required")
	}
	if c.Kafka.MinBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	}
	if c.Kafka.MaxBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	}
	if c.Kafka.MaxWait <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	}
	if c.Kafka.DLQTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_DLQ_TOPIC is required")
	}

	if c.Postgres.URL == "" {
		validationErrors = append(validationErrors, "POSTGRES_URL is required")
	}
	if c.Postgres.MaxConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if c.Postgres.MinConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must be greater than 0")
	}
	if c.Postgres.ConnMaxLifetime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	}
	if c.Postgres.ConnMaxIdleTime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	if c.MongoDB.URI == "" {
		validationErrors = append(validationErrors, "MONGO_URI is required")
	}
	if c.MongoDB.Database == "" {
		validationErrors = append(validationErrors, "MONGO_DATABASE is required")
	}
	if c.MongoDB.Timeout <= 0 {
		validationErrors = append(validationErrors, "MONGO_TIMEOUT must be greater than 0")
	}
	if c.MongoDB.MaxPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MinPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MIN_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MaxConnIdleTime <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	if c.Outbox.PollingInterval <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_POLLING_INTERVAL must be greater than 0")
	}
	if c.Outbox.BatchSize <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_BATCH_SIZE must be greater than 0")
	}
	if c.Outbox.MaxRetryAttempts <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_MAX_RETRY_ATTEMPTS must be greater than 0")
	}

	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
