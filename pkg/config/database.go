package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DB holds the database connections: MongoDB for all social-graph documents,
// PostgreSQL for the append-only analytics sink, Redis for snapshot caching.
type DB struct {
	Mongo    *mongo.Client
	Postgres *gorm.DB
	Redis    *redis.Client

	logger *zap.Logger
}

// InitDB initializes and returns the database connections
func InitDB(cfg *Config, logger *zap.Logger) (*DB, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, assuming environment variables are set")
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI environment variable not set")
	}

	mongoClient, err := initMongo(cfg.MongoURI, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	var postgresDB *gorm.DB
	if cfg.PostgresConnStr != "" {
		postgresDB, err = initPostgres(cfg.PostgresConnStr, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
	} else {
		logger.Warn("POSTGRES_CONN_STR not set, analytics recording disabled")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn("Redis unreachable, snapshot cache degraded to direct reads", zap.Error(err))
	}

	return &DB{
		Mongo:    mongoClient,
		Postgres: postgresDB,
		Redis:    redisClient,
		logger:   logger,
	}, nil
}

// initMongo initializes the MongoDB connection
func initMongo(uri string, logger *zap.Logger) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping the primary to verify connection
	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	logger.Info("connected to MongoDB")
	return client, nil
}

// initPostgres initializes the PostgreSQL connection using GORM
func initPostgres(connStr string, logger *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}

	logger.Info("connected to PostgreSQL")
	return db, nil
}

// CloseDB closes the database connections
func (db *DB) CloseDB() {
	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			db.logger.Error("error closing MongoDB connection", zap.Error(err))
		}
	}

	if db.Postgres != nil {
		if sqlDB, err := db.Postgres.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				db.logger.Error("error closing PostgreSQL connection", zap.Error(err))
			}
		}
	}

	if db.Redis != nil {
		if err := db.Redis.Close(); err != nil {
			db.logger.Error("error closing Redis connection", zap.Error(err))
		}
	}
}
