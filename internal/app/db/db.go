package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const queryTimeout = 5 * time.Second

// PgStore implements Store on a PostgreSQL connection pool.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore initializes a new PostgreSQL connection pool, executes database
// migrations, and returns the Store backed by it.
func NewPgStore(dsn string) (*PgStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := runMigrations(sqlDB); err != nil {
		pool.Close()
		return nil, err
	}

	return &PgStore{pool: pool}, nil
}

// runMigrations applies all pending migrations from the embedded file system.
func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// Close releases the connection pool.
func (s *PgStore) Close() {
	s.pool.Close()
}

// GetUserInfo returns the profile row for userName, or ErrNotFound.
func (s *PgStore) GetUserInfo(ctx context.Context, userName string) (UserInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	info := UserInfo{Name: userName}
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(email, ''), COALESCE(description, '')
		   FROM users WHERE user_name = $1`,
		userName,
	).Scan(&info.Email, &info.Description)

	if errors.Is(err, pgx.ErrNoRows) {
		return UserInfo{}, ErrNotFound
	}
	if err != nil {
		return UserInfo{}, fmt.Errorf("get user info %q: %w", userName, err)
	}
	return info, nil
}

// EnsureUser inserts a row for userName if none exists.
func (s *PgStore) EnsureUser(ctx context.Context, userName string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (user_name) VALUES ($1)
		 ON CONFLICT (user_name) DO NOTHING`,
		userName,
	)
	if err != nil {
		return fmt.Errorf("ensure user %q: %w", userName, err)
	}
	return nil
}

// GetRegisteredRooms returns the names of every registered room.
func (s *PgStore) GetRegisteredRooms(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT room_name FROM rooms ORDER BY room_name`)
	if err != nil {
		return nil, fmt.Errorf("get registered rooms: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan room name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get registered rooms: %w", err)
	}
	return names, nil
}

// GetRoomInfo returns the persisted room row, or ErrNotFound.
func (s *PgStore) GetRoomInfo(ctx context.Context, roomName string) (RoomInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	info := RoomInfo{Name: roomName}
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(description, ''), COALESCE(owners, '{}')
		   FROM rooms WHERE room_name = $1`,
		roomName,
	).Scan(&info.Description, &info.Owners)

	if errors.Is(err, pgx.ErrNoRows) {
		return RoomInfo{}, ErrNotFound
	}
	if err != nil {
		return RoomInfo{}, fmt.Errorf("get room info %q: %w", roomName, err)
	}
	return info, nil
}
