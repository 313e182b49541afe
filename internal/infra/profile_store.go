package infra

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Ensure sqlcipher driver is registered.
	_ "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/eliteGoblin/privguard/internal/domain"
)

const profileDBName = "profiles.db"

// EncryptedProfileStore implements domain.ProfileStore using a SQLCipher
// encrypted SQLite database.
type EncryptedProfileStore struct {
	db     *sql.DB
	dbPath string
}

// NewEncryptedProfileStore opens (or creates) the profile database in dataDir.
// The key is used as the SQLCipher passphrase via PRAGMA key.
func NewEncryptedProfileStore(dataDir string, key []byte) (*EncryptedProfileStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, profileDBName)
	keyHex := hex.EncodeToString(key)

	dsn := fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", dbPath, keyHex)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open encrypted database: %w", err)
	}

	// Wrong key surfaces here, not at Open
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to encrypted database: %w", err)
	}

	store := &EncryptedProfileStore{db: db, dbPath: dbPath}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return store, nil
}

func (s *EncryptedProfileStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		name TEXT PRIMARY KEY,
		document TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save stores p under name, replacing any previous profile of that name.
func (s *EncryptedProfileStore) Save(name string, p domain.Profile) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return err
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO profiles (name, document, created_at) VALUES (?, ?, ?)`,
		name, string(doc), createdAt.Unix())
	return err
}

// Load returns the named profile.
func (s *EncryptedProfileStore) Load(name string) (*domain.Profile, error) {
	var doc string
	err := s.db.QueryRow(`SELECT document FROM profiles WHERE name = ?`, name).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, domain.NewOpError("load profile", name, domain.ErrNotFound, "", nil)
	}
	if err != nil {
		return nil, err
	}

	var p domain.Profile
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, domain.NewOpError("load profile", name, domain.ErrMalformedOutput, "", err)
	}
	return &p, nil
}

// List returns saved profiles ordered by name.
func (s *EncryptedProfileStore) List() ([]domain.SavedProfile, error) {
	rows, err := s.db.Query(`SELECT name, created_at FROM profiles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SavedProfile
	for rows.Next() {
		var name string
		var created int64
		if err := rows.Scan(&name, &created); err != nil {
			return nil, err
		}
		out = append(out, domain.SavedProfile{Name: name, CreatedAt: time.Unix(created, 0)})
	}
	return out, rows.Err()
}

// Delete removes the named profile.
func (s *EncryptedProfileStore) Delete(name string) error {
	result, err := s.db.Exec(`DELETE FROM profiles WHERE name = ?`, name)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.NewOpError("delete profile", name, domain.ErrNotFound, "", nil)
	}
	return nil
}

// Path returns the database file path.
func (s *EncryptedProfileStore) Path() string {
	return s.dbPath
}

// Close releases the database connection.
func (s *EncryptedProfileStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ensure EncryptedProfileStore implements domain.ProfileStore.
var _ domain.ProfileStore = (*EncryptedProfileStore)(nil)
