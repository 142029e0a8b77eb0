package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tednaaa/resto/internal/history"
)

// Store implements history.Store using SQLite.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

// New creates a new SQLite-based history store.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// NewInMemory creates a new in-memory SQLite store (useful for testing).
func NewInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

func (s *Store) initialize() error {
	schema := `
		CREATE TABLE IF NOT EXISTS history (
			id TEXT PRIMARY KEY,
			timestamp DATETIME NOT NULL,
			request_method TEXT NOT NULL,
			request_url TEXT NOT NULL,
			request_headers TEXT,
			request_body TEXT,
			request_content_type TEXT,
			result TEXT NOT NULL,
			reason TEXT,
			response_status INTEGER NOT NULL,
			response_status_text TEXT,
			response_headers TEXT,
			response_body TEXT,
			response_time INTEGER,
			response_size INTEGER
		);

		CREATE INDEX IF NOT EXISTS idx_history_timestamp ON history(timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_history_method ON history(request_method);
		CREATE INDEX IF NOT EXISTS idx_history_result ON history(result);
	`

	_, err := s.db.Exec(schema)
	return err
}

const selectColumns = `
	SELECT id, timestamp, request_method, request_url, request_headers, request_body,
		request_content_type, result, reason, response_status, response_status_text,
		response_headers, response_body, response_time, response_size
	FROM history`

// Add adds a new history entry and returns its ID.
func (s *Store) Add(ctx context.Context, entry history.Entry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", history.ErrStoreClosed
	}

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	headersJSON, _ := json.Marshal(entry.RequestHeaders)
	respHeadersJSON, _ := json.Marshal(entry.ResponseHeaders)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history (
			id, timestamp, request_method, request_url, request_headers, request_body,
			request_content_type, result, reason, response_status, response_status_text,
			response_headers, response_body, response_time, response_size
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID, entry.Timestamp.UTC(), entry.RequestMethod, entry.RequestURL,
		string(headersJSON), entry.RequestBody, entry.RequestContentType,
		entry.Result, entry.Reason, entry.ResponseStatus, entry.ResponseStatusText,
		string(respHeadersJSON), entry.ResponseBody, entry.ResponseTime, entry.ResponseSize,
	)

	if err != nil {
		return "", fmt.Errorf("failed to insert history entry: %w", err)
	}

	return entry.ID, nil
}

// Get retrieves a single history entry by ID.
func (s *Store) Get(ctx context.Context, id string) (history.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return history.Entry{}, history.ErrStoreClosed
	}

	if id == "" {
		return history.Entry{}, history.ErrInvalidID
	}

	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return history.Entry{}, history.ErrNotFound
	}
	if err != nil {
		return history.Entry{}, fmt.Errorf("failed to get history entry: %w", err)
	}

	return entry, nil
}

// List retrieves history entries matching the query options.
func (s *Store) List(ctx context.Context, opts history.QueryOptions) ([]history.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, history.ErrStoreClosed
	}

	where, args := buildFilter(opts)
	query := selectColumns + where + " ORDER BY timestamp DESC, rowid DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	} else if opts.Offset > 0 {
		query += " LIMIT -1 OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history entries: %w", err)
	}
	defer rows.Close()

	var entries []history.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Count returns the number of entries matching the query options.
func (s *Store) Count(ctx context.Context, opts history.QueryOptions) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, history.ErrStoreClosed
	}

	where, args := buildFilter(opts)
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM history"+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count history entries: %w", err)
	}

	return count, nil
}

// Delete removes a history entry by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return history.ErrStoreClosed
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM history WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return history.ErrNotFound
	}

	return nil
}

// Prune removes entries older than OlderThan, then trims to KeepLast.
func (s *Store) Prune(ctx context.Context, opts history.PruneOptions) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, history.ErrStoreClosed
	}

	var deleted int64

	if opts.OlderThan > 0 {
		cutoff := time.Now().Add(-opts.OlderThan).UTC()
		res, err := s.db.ExecContext(ctx, "DELETE FROM history WHERE timestamp < ?", cutoff)
		if err != nil {
			return deleted, fmt.Errorf("failed to prune history: %w", err)
		}
		n, _ := res.RowsAffected()
		deleted += n
	}

	if opts.KeepLast > 0 {
		res, err := s.db.ExecContext(ctx, `
			DELETE FROM history WHERE id NOT IN (
				SELECT id FROM history ORDER BY timestamp DESC, rowid DESC LIMIT ?
			)
		`, opts.KeepLast)
		if err != nil {
			return deleted, fmt.Errorf("failed to prune history: %w", err)
		}
		n, _ := res.RowsAffected()
		deleted += n
	}

	return deleted, nil
}

// Clear removes all history entries.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return history.ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, "DELETE FROM history")
	if err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	return nil
}

// Close closes the store and releases resources.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

func buildFilter(opts history.QueryOptions) (string, []any) {
	query := " WHERE 1=1"
	var args []any

	if opts.Method != "" {
		query += " AND request_method = ?"
		args = append(args, opts.Method)
	}

	if opts.URLPattern != "" {
		query += " AND request_url LIKE ?"
		args = append(args, opts.URLPattern)
	}

	if opts.Result != "" {
		query += " AND result = ?"
		args = append(args, opts.Result)
	}

	if opts.Search != "" {
		pattern := "%" + opts.Search + "%"
		query += " AND (request_url LIKE ? OR request_body LIKE ? OR response_body LIKE ?)"
		args = append(args, pattern, pattern, pattern)
	}

	return query, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (history.Entry, error) {
	var entry history.Entry
	var headersJSON, respHeadersJSON sql.NullString
	var body, contentType, reason, statusText, respBody sql.NullString

	err := row.Scan(
		&entry.ID, &entry.Timestamp, &entry.RequestMethod, &entry.RequestURL,
		&headersJSON, &body, &contentType, &entry.Result, &reason,
		&entry.ResponseStatus, &statusText, &respHeadersJSON, &respBody,
		&entry.ResponseTime, &entry.ResponseSize,
	)
	if err != nil {
		return entry, err
	}

	entry.RequestBody = body.String
	entry.RequestContentType = contentType.String
	entry.Reason = reason.String
	entry.ResponseStatusText = statusText.String
	entry.ResponseBody = respBody.String

	if headersJSON.Valid {
		json.Unmarshal([]byte(headersJSON.String), &entry.RequestHeaders)
	}
	if respHeadersJSON.Valid {
		json.Unmarshal([]byte(respHeadersJSON.String), &entry.ResponseHeaders)
	}

	return entry, nil
}
