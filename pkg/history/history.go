// Package history archives SPD images in a local SQLite database. Every
// image read from hardware and every backup taken before a write lands
// here, so a bricked module can always be restored from its last known
// good dump.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/mscrnt/spd_studio/pkg/spd"
)

// Sources recorded with each archived image.
const (
	SourceRead   = "read"
	SourceBackup = "backup"
	SourceImport = "import"
)

// Entry is one archived image with its identifying metadata, decoded at
// save time so listings do not need to parse blobs.
type Entry struct {
	ID           int64
	CreatedAt    time.Time
	Source       string
	Label        string
	PartNumber   string
	SerialNumber string
	Image        *spd.Image
}

// Filter narrows List results.
type Filter struct {
	Source     string
	PartNumber string
	Limit      int
}

// DB wraps the archive database connection.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates or opens the archive database.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{
		conn: conn,
		path: path,
	}

	if err := db.Migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Migrate creates or updates the database schema.
func (db *DB) Migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS images (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME NOT NULL,
		source TEXT NOT NULL,
		label TEXT,
		part_number TEXT,
		serial_number TEXT,
		checksum_valid BOOLEAN DEFAULT 0,
		data BLOB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_images_created_at ON images(created_at);
	CREATE INDEX IF NOT EXISTS idx_images_source ON images(source);
	CREATE INDEX IF NOT EXISTS idx_images_part_number ON images(part_number);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Save archives an image. Part number, serial and checksum state are
// decoded from the image itself; a module the decoder cannot identify
// is still archived with blank metadata.
func (db *DB) Save(img *spd.Image, source, label string) (*Entry, error) {
	entry := &Entry{
		CreatedAt: time.Now(),
		Source:    source,
		Label:     label,
		Image:     img.Clone(),
	}

	// Decode is best-effort here; a non-DDR4 image still archives with
	// whatever identity bytes the DDR4 layout yields.
	rec, _ := spd.Decode(img)
	entry.PartNumber = rec.PartNumber
	entry.SerialNumber = rec.Serial()
	checksumValid := rec.ChecksumValid

	result, err := db.conn.Exec(
		`INSERT INTO images (created_at, source, label, part_number, serial_number, checksum_valid, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.CreatedAt, entry.Source, entry.Label, entry.PartNumber,
		entry.SerialNumber, checksumValid, img[:],
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save image: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ID = id
	return entry, nil
}

// Get retrieves an archived image by ID.
func (db *DB) Get(id int64) (*Entry, error) {
	entry := &Entry{}
	var data []byte
	err := db.conn.QueryRow(
		`SELECT id, created_at, source, label, part_number, serial_number, data
		 FROM images WHERE id = ?`,
		id,
	).Scan(
		&entry.ID, &entry.CreatedAt, &entry.Source, &entry.Label,
		&entry.PartNumber, &entry.SerialNumber, &data,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("image %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	img, err := spd.FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("archived image %d is corrupt: %w", id, err)
	}
	entry.Image = img
	return entry, nil
}

// List retrieves archive entries, newest first. Image data is not
// loaded; use Get for the full blob.
func (db *DB) List(filter Filter) ([]*Entry, error) {
	query := `SELECT id, created_at, source, label, part_number, serial_number
	          FROM images WHERE 1=1`
	args := []interface{}{}

	if filter.Source != "" {
		query += " AND source = ?"
		args = append(args, filter.Source)
	}

	if filter.PartNumber != "" {
		query += " AND part_number = ?"
		args = append(args, filter.PartNumber)
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*Entry
	for rows.Next() {
		entry := &Entry{}
		err := rows.Scan(
			&entry.ID, &entry.CreatedAt, &entry.Source, &entry.Label,
			&entry.PartNumber, &entry.SerialNumber,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// Delete removes an archived image.
func (db *DB) Delete(id int64) error {
	result, err := db.conn.Exec(`DELETE FROM images WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("image %d not found", id)
	}
	return nil
}
