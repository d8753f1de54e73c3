package database

import (
	"time"

	"github.com/gocql/gocql"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"rise_local_back_end/internal/config"
)

var scyllaSchema = []string{
	`CREATE TABLE IF NOT EXISTS conversations (
		conversation_id uuid PRIMARY KEY,
		user_id text,
		vendor_id text,
		created_at timestamp,
		last_message_at timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS conversations_by_user (
		user_id text,
		conversation_id uuid,
		vendor_id text,
		created_at timestamp,
		last_message_at timestamp,
		PRIMARY KEY (user_id, conversation_id)
	)`,
	`CREATE TABLE IF NOT EXISTS conversations_by_vendor (
		vendor_id text,
		conversation_id uuid,
		user_id text,
		created_at timestamp,
		last_message_at timestamp,
		PRIMARY KEY (vendor_id, conversation_id)
	)`,
	`CREATE TABLE IF NOT EXISTS messages_by_conversation (
		conversation_id uuid,
		message_id timeuuid,
		sender_id text,
		sender_role text,
		body text,
		sent_at timestamp,
		PRIMARY KEY (conversation_id, message_id)
	) WITH CLUSTERING ORDER BY (message_id DESC)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		log_id uuid PRIMARY KEY,
		user_id text,
		action text,
		resource_type text,
		resource_id text,
		details text,
		ip_address text,
		created_at timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS audit_logs_by_resource (
		resource_type text,
		resource_id text,
		log_id timeuuid,
		user_id text,
		action text,
		details text,
		ip_address text,
		created_at timestamp,
		PRIMARY KEY ((resource_type, resource_id), log_id)
	) WITH CLUSTERING ORDER BY (log_id DESC)`,
}

// ConnectScylla opens a session on the configured keyspace and creates the
// messaging and audit tables if they are missing.
func ConnectScylla(cfg config.ScyllaConfig) (*gocql.Session, error) {
	if len(cfg.Hosts) == 0 {
		return nil, errors.New("SCYLLA_HOSTS not set")
	}

	cluster := newCluster(cfg)
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, errors.Wrapf(err, "scylla session for keyspace %s", cfg.Keyspace)
	}

	for _, stmt := range scyllaSchema {
		if err := session.Query(stmt).Exec(); err != nil {
			session.Close()
			return nil, errors.Wrap(err, "scylla schema")
		}
	}

	log.Info().Str("keyspace", cfg.Keyspace).Msg("✅ Connected to ScyllaDB")
	return session, nil
}

func newCluster(cfg config.ScyllaConfig) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 5 * time.Second
	cluster.NumConns = 20
	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	cluster.ReconnectInterval = time.Second
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}
	if cfg.SSLEnabled {
		cluster.SslOpts = &gocql.SslOptions{
			CaPath:                 cfg.CACertPath,
			EnableHostVerification: cfg.CACertPath != "",
		}
	}
	return cluster
}
