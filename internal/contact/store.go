package contact

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/argon2"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore keeps accepted messages with an argon2 hash of the sender's
// address instead of the address itself.
type SQLiteStore struct {
	db   *sql.DB
	salt []byte

	hashMap      map[string][]byte
	hashMapMutex sync.RWMutex
}

func OpenSQLiteStore(dsn string, salt []byte) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("fail to initialize db: %w", err)
	}

	if err = migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	slog.Debug("successfully applied migrations")

	return &SQLiteStore{db: db, salt: salt, hashMap: make(map[string][]byte)}, nil
}

func migrateUp(db *sql.DB) error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("fail to read embedded migrations: %w", err)
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("fail to initialize driver for migrating db: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("fail to initialize migration client: %w", err)
	}

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("fail to apply migrations: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, msg *Message) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO contact_messages(id, name, email, subject, body, client_hash, created_at)
  VALUES(?, ?, ?, ?, ?, ?, ?);`,
		msg.ID, msg.Name, msg.Email, msg.Subject, msg.Body, s.GetHash(msg.ClientAddress), msg.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert contact message: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetHash(id string) []byte {
	s.hashMapMutex.RLock()
	if val, ok := s.hashMap[id]; ok {
		s.hashMapMutex.RUnlock()
		return val
	}
	s.hashMapMutex.RUnlock()

	s.hashMapMutex.Lock()
	defer s.hashMapMutex.Unlock()

	if val, ok := s.hashMap[id]; ok {
		return val
	}

	s.hashMap[id] = argon2.IDKey([]byte(id), s.salt, 1, 64*1024, 4, 32)
	return s.hashMap[id]
}

func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("fail to close db connection: %w", err)
	}
	return nil
}
