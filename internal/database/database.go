package database

import (
	"context"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rise_local_back_end/internal/config"
	"rise_local_back_end/internal/membership"
	"rise_local_back_end/internal/models"
)

// Clients groups every backing store. Only SQL is mandatory; the others
// are nil when not configured and the features that need them degrade.
type Clients struct {
	SQL     *gorm.DB
	Redis   *redis.Client
	Scylla  *gocql.Session
	Elastic *elasticsearch.Client
	MinIO   *minio.Client
}

func Connect(cfg *config.Config) (*Clients, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := OpenSQL(cfg.DB, cfg.IsProduction())
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}

	clients := &Clients{SQL: db}

	if clients.Redis, err = connectRedis(ctx, cfg.Redis); err != nil {
		log.Warn().Err(err).Msg("⚠️ Redis unavailable, cache and rate limits disabled")
	}
	if clients.Scylla, err = ConnectScylla(cfg.Scylla); err != nil {
		log.Warn().Err(err).Msg("⚠️ ScyllaDB unavailable, messaging and audit log disabled")
	}
	if clients.Elastic, err = connectElastic(cfg.Elastic); err != nil {
		log.Warn().Err(err).Msg("⚠️ Elasticsearch unavailable, search falls back to SQL")
	}
	if clients.MinIO, err = connectMinIO(ctx, cfg.MinIO); err != nil {
		log.Warn().Err(err).Msg("⚠️ MinIO unavailable, image upload disabled")
	}

	log.Info().Msg("✅ Databases connected")
	return clients, nil
}

func (c *Clients) Close() {
	if c.Scylla != nil {
		c.Scylla.Close()
		log.Info().Msg("🔌 ScyllaDB session closed")
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if sqlDB, err := c.SQL.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// =============================================
// SQL (gorm)
// =============================================

func OpenSQL(cfg config.DBConfig, quiet bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, errors.Errorf("unknown DB_DRIVER %q", cfg.Driver)
	}

	gormCfg := &gorm.Config{}
	if quiet {
		gormCfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", cfg.Driver)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}
	log.Info().Str("driver", cfg.Driver).Msg("✅ Connected to SQL database")
	return db, nil
}

// Migrate creates the schema and runs the legacy tier backfill.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Vendor{},
		&models.Deal{},
		&models.CouponCode{},
		&models.Redemption{},
		&models.Product{},
		&models.Event{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	_, err = membership.BackfillLegacyTiers(db)
	return err
}

// =============================================
// REDIS
// =============================================

func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("REDIS_HOST not set")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "redis ping")
	}
	log.Info().Str("addr", cfg.Addr).Msg("✅ Connected to Redis")
	return client, nil
}

// =============================================
// ELASTICSEARCH
// =============================================

func connectElastic(cfg config.ElasticConfig) (*elasticsearch.Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("ELASTIC_URL not set")
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, errors.Wrap(err, "elasticsearch client")
	}

	res, err := client.Info()
	if err != nil {
		return nil, errors.Wrap(err, "elasticsearch info")
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, errors.Errorf("elasticsearch info: %s", res.Status())
	}

	log.Info().Str("url", cfg.URL).Msg("✅ Connected to Elasticsearch")
	return client, nil
}

// =============================================
// MINIO
// =============================================

func connectMinIO(ctx context.Context, cfg config.MinIOConfig) (*minio.Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("MINIO_ENDPOINT not set")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "minio client")
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, "minio bucket check")
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrap(err, "minio make bucket")
		}
		log.Info().Str("bucket", cfg.Bucket).Msg("🪣 Bucket created")
	}

	log.Info().Str("endpoint", cfg.Endpoint).Msg("✅ Connected to MinIO")
	return client, nil
}
