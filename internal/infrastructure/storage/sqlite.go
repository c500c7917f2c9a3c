package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"artcurator/internal/domain"
	"artcurator/internal/ports"
)

const (
	busyTimeoutMS   = 5000
	maxOpenConns    = 1
	maxIdleConns    = 1
	connMaxLifetime = 5 * time.Minute
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS posts (
  id INTEGER PRIMARY KEY,
  status TEXT NOT NULL DEFAULT 'no_rating',
  preview_url TEXT NOT NULL,
  file_url TEXT NOT NULL,
  artist TEXT NOT NULL,
  characters TEXT NOT NULL,
  page_url TEXT NOT NULL,
  source_url TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS searches (
  search_id INTEGER PRIMARY KEY AUTOINCREMENT,
  members TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS attachments (
  post_id INTEGER NOT NULL,
  kind TEXT NOT NULL,
  attachment TEXT NOT NULL,
  PRIMARY KEY (post_id, kind)
);

CREATE TABLE IF NOT EXISTS settings (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_posts_status ON posts(status);
`

const candidateColumns = "id, status, preview_url, file_url, artist, characters, page_url, source_url"

// Store wraps the sqlite database behind the persistence ports.
type Store struct {
	db *sql.DB
}

var (
	_ ports.CandidateStore  = (*Store)(nil)
	_ ports.SessionStore    = (*Store)(nil)
	_ ports.AttachmentCache = (*Store)(nil)
	_ ports.KeyValue        = (*Store)(nil)
)

// Open opens the sqlite database and bootstraps the schema.
func Open(path string) (*Store, error) {
	dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := configureDB(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// UpsertCandidates inserts new candidates. Re-discovery of an id already in
// the table is a no-op, so a stored status is never reset by a new search.
func (s *Store) UpsertCandidates(ctx context.Context, candidates []domain.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}

	builder := sq.Insert("posts").
		Columns("id", "status", "preview_url", "file_url", "artist", "characters", "page_url", "source_url").
		Suffix("ON CONFLICT(id) DO NOTHING")
	for _, c := range candidates {
		status := c.Status
		if status == "" {
			status = domain.StatusUndecided
		}
		builder = builder.Values(c.ID, status, c.PreviewURL, c.FileURL, c.Artist, c.Characters, c.PageURL, c.SourceURL)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert candidates: %w", err)
	}
	return nil
}

// SetStatus updates the review status of the given candidates.
func (s *Store) SetStatus(ctx context.Context, ids []int64, status domain.Status) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sq.Update("posts").
		Set("status", status).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build status update: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

// AllCandidates returns every candidate ever seen, ordered by id.
func (s *Store) AllCandidates(ctx context.Context) ([]domain.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+candidateColumns+` FROM posts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return candidates, nil
}

// Candidate returns one candidate by id; a missing id is (zero, false, nil).
func (s *Store) Candidate(ctx context.Context, id int64) (domain.Candidate, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+candidateColumns+` FROM posts WHERE id = ?`, id)
	c, err := scanCandidate(row)
	if err == sql.ErrNoRows {
		return domain.Candidate{}, false, nil
	}
	if err != nil {
		return domain.Candidate{}, false, err
	}
	return c, true, nil
}

// CandidateExists checks whether a candidate exists by id.
func (s *Store) CandidateExists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE id = ? LIMIT 1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateSession stores the ordered member list and returns the new session id.
func (s *Store) CreateSession(ctx context.Context, ids []int64) (int64, error) {
	query, args, err := sq.Insert("searches").
		Columns("members").
		Values(joinIDs(ids)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build session insert: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("create session: %w", err)
	}
	sessionID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("session id: %w", err)
	}
	return sessionID, nil
}

// SessionMembers returns the member ids in presentation order. An unknown
// session yields an empty list rather than an error.
func (s *Store) SessionMembers(ctx context.Context, sessionID int64) ([]int64, error) {
	var members string
	err := s.db.QueryRowContext(ctx, `SELECT members FROM searches WHERE search_id = ?`, sessionID).Scan(&members)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	return splitIDs(members)
}

// DeleteSession removes a session; deleting an unknown session is a no-op.
func (s *Store) DeleteSession(ctx context.Context, sessionID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM searches WHERE search_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CacheAttachment records an uploaded media handle. An existing entry wins:
// the cache is write-once per (candidate, kind).
func (s *Store) CacheAttachment(ctx context.Context, id int64, kind domain.AttachmentKind, handle string) error {
	query, args, err := sq.Insert("attachments").
		Columns("post_id", "kind", "attachment").
		Values(id, kind, handle).
		Suffix("ON CONFLICT(post_id, kind) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build attachment insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("cache attachment: %w", err)
	}
	return nil
}

// CachedAttachment returns the cached handle for a candidate, if any.
func (s *Store) CachedAttachment(ctx context.Context, id int64, kind domain.AttachmentKind) (string, bool, error) {
	var handle string
	err := s.db.QueryRowContext(ctx,
		`SELECT attachment FROM attachments WHERE post_id = ? AND kind = ?`, id, kind).Scan(&handle)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query attachment: %w", err)
	}
	return handle, true, nil
}

// SetValue stores a settings value, replacing any previous one.
func (s *Store) SetValue(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set value: %w", err)
	}
	return nil
}

// Value returns a settings value; a missing key is ("", false, nil).
func (s *Store) Value(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query value: %w", err)
	}
	return value, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row rowScanner) (domain.Candidate, error) {
	var c domain.Candidate
	err := row.Scan(&c.ID, &c.Status, &c.PreviewURL, &c.FileURL, &c.Artist, &c.Characters, &c.PageURL, &c.SourceURL)
	if err != nil {
		return domain.Candidate{}, err
	}
	return c, nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func splitIDs(members string) ([]int64, error) {
	if members == "" {
		return nil, nil
	}
	parts := strings.Split(members, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed member list %q: %w", members, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func configureDB(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		fmt.Sprintf("PRAGMA busy_timeout = %d;", busyTimeoutMS),
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	return nil
}

func sqliteDSN(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("db path is required")
	}
	u := url.URL{Scheme: "file", Path: path}
	return u.String(), nil
}
