// Package archive owns conversation persistence: a live SQLite store for
// conversations, messages, notes and provider configurations, plus
// full-text search across every archived store file in the storage
// directory.
package archive

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/anatolykoptev/go_research/internal/engine"
)

// schema creates all tables. messages_fts is an external-content FTS5 index
// kept in sync by triggers, so archive search can use token matching instead
// of substring scans.
const schema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS conversations (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	title      TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
);

CREATE TABLE IF NOT EXISTS messages (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id INTEGER NOT NULL,
	role            TEXT NOT NULL,
	content         TEXT NOT NULL,
	sources         TEXT,
	created_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
	FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS notes (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id INTEGER NOT NULL UNIQUE,
	content         TEXT NOT NULL,
	updated_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
	FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS providers (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	name         TEXT NOT NULL,
	kind         TEXT NOT NULL,
	api_url      TEXT,
	api_headers  TEXT,
	result_path  TEXT,
	title_path   TEXT,
	url_path     TEXT,
	content_path TEXT,
	enabled      INTEGER NOT NULL DEFAULT 1
);

CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
	content, content='messages', content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS messages_after_insert AFTER INSERT ON messages BEGIN
	INSERT INTO messages_fts(rowid, content) VALUES (new.id, new.content);
END;
CREATE TRIGGER IF NOT EXISTS messages_after_delete AFTER DELETE ON messages BEGIN
	INSERT INTO messages_fts(messages_fts, rowid, content) VALUES ('delete', old.id, old.content);
END;
CREATE TRIGGER IF NOT EXISTS messages_after_update AFTER UPDATE ON messages BEGIN
	UPDATE messages_fts SET content = new.content WHERE rowid = old.id;
END;
`

// ErrNotFound is returned for lookups of rows that do not exist.
var ErrNotFound = errors.New("archive: not found")

// Store is the live conversation database. A single mutable connection
// guards all writes; archived store files are opened read-only elsewhere
// and never go through Store.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	dir  string // storage directory for snapshots and archives
	file string // current backing file name, "" = in-memory
}

// Message is one stored conversation turn.
type Message struct {
	ID        int64  `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Sources   string `json:"sources,omitempty"`
	CreatedAt string `json:"created_at"`
}

// HistoryEntry is the reduced shape handed to the LLM as prior context.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is a stored conversation, optionally with its messages and note.
type Conversation struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt string    `json:"created_at"`
	Messages  []Message `json:"messages,omitempty"`
	Note      string    `json:"note_content,omitempty"`
}

// Open creates a Store backed by an in-memory database, matching the
// original workflow: research sessions start scratch and are snapshotted
// to named files in dir on demand.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("archive: mkdir %s: %w", dir, err)
	}
	db, err := openDB(":memory:")
	if err != nil {
		return nil, err
	}
	return &Store{db: db, dir: dir}, nil
}

// OpenFile creates a Store backed by a file in dir.
func OpenFile(dir, filename string) (*Store, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("archive: mkdir %s: %w", dir, err)
	}
	filename = normalizeDBName(filename)
	db, err := openDB(filepath.Join(dir, filename))
	if err != nil {
		return nil, err
	}
	return &Store{db: db, dir: dir, file: filename}, nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: init schema: %w", err)
	}
	return db, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Dir returns the storage directory scanned for archive files.
func (s *Store) Dir() string { return s.dir }

func nowStamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}

// --- Conversations ---

// CreateConversation inserts a conversation and returns its id.
func (s *Store) CreateConversation(title string) (int64, error) {
	if title == "" {
		title = "New Conversation"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(`INSERT INTO conversations (title, created_at) VALUES (?, ?)`, title, nowStamp())
	if err != nil {
		return 0, fmt.Errorf("archive: create conversation: %w", err)
	}
	id, _ := res.LastInsertId()
	return id, nil
}

// ListConversations returns all conversations, newest first, without messages.
func (s *Store) ListConversations() ([]Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(`SELECT id, title, created_at FROM conversations ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("archive: list conversations: %w", err)
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.Title, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetConversation returns one conversation with its messages and note.
func (s *Store) GetConversation(id int64) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var c Conversation
	var note sql.NullString
	err := s.db.QueryRow(`
		SELECT c.id, c.title, c.created_at, n.content
		FROM conversations c
		LEFT JOIN notes n ON n.conversation_id = c.id
		WHERE c.id = ?`, id).Scan(&c.ID, &c.Title, &c.CreatedAt, &note)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("archive: get conversation %d: %w", id, err)
	}
	c.Note = note.String

	rows, err := s.db.Query(`
		SELECT id, role, content, COALESCE(sources, ''), created_at
		FROM messages WHERE conversation_id = ? ORDER BY created_at ASC, id ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.Sources, &m.CreatedAt); err != nil {
			return nil, err
		}
		c.Messages = append(c.Messages, m)
	}
	return &c, rows.Err()
}

// DeleteConversation removes a conversation and, via cascade, its messages
// and note.
func (s *Store) DeleteConversation(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(`DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("archive: delete conversation %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Messages ---

// AddMessage appends one turn to a conversation and returns the message id.
// Fails if the conversation does not exist.
func (s *Store) AddMessage(convID int64, role, content, sources string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	if err := s.db.QueryRow(`SELECT 1 FROM conversations WHERE id = ?`, convID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	var src any
	if sources != "" {
		src = sources
	}
	res, err := s.db.Exec(
		`INSERT INTO messages (conversation_id, role, content, sources, created_at) VALUES (?, ?, ?, ?, ?)`,
		convID, role, content, src, nowStamp(),
	)
	if err != nil {
		return 0, fmt.Errorf("archive: add message: %w", err)
	}
	id, _ := res.LastInsertId()
	return id, nil
}

// History returns the conversation's turns oldest-first, reduced to
// role/content pairs. If the stored conversation ends on a user turn that
// trailing entry is dropped: the live query is supplied separately as the
// active prompt and must not be duplicated in history.
//
// The drop is a heuristic — if the user-turn write and this read reorder,
// a legitimate prior user message could be dropped instead. Known
// limitation, kept as-is.
func (s *Store) History(convID int64) ([]HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT role, content FROM messages WHERE conversation_id = ? ORDER BY created_at ASC, id ASC`, convID)
	if err != nil {
		return nil, fmt.Errorf("archive: history: %w", err)
	}
	defer rows.Close()

	var history []HistoryEntry
	for rows.Next() {
		var h HistoryEntry
		if err := rows.Scan(&h.Role, &h.Content); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if n := len(history); n > 0 && history[n-1].Role == "user" {
		history = history[:n-1]
	}
	return history, nil
}

// --- Notes ---

// SaveNote upserts the single note attached to a conversation.
func (s *Store) SaveNote(convID int64, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO notes (conversation_id, content, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(conversation_id) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
		convID, content, nowStamp())
	if err != nil {
		return fmt.Errorf("archive: save note: %w", err)
	}
	return nil
}

// --- Providers ---

// Providers returns provider configurations. With selected ids the result
// is filtered to that subset (regardless of enabled state, matching the
// caller's explicit choice); otherwise only enabled providers are returned.
func (s *Store) Providers(selected []int64) ([]engine.ProviderConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT id, name, kind, COALESCE(api_url,''), COALESCE(api_headers,''),
		COALESCE(result_path,''), COALESCE(title_path,''), COALESCE(url_path,''),
		COALESCE(content_path,''), enabled FROM providers`
	var args []any
	if len(selected) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(selected)), ",")
		query += ` WHERE id IN (` + placeholders + `)`
		for _, id := range selected {
			args = append(args, id)
		}
	} else {
		query += ` WHERE enabled = 1`
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("archive: providers: %w", err)
	}
	defer rows.Close()

	var out []engine.ProviderConfig
	for rows.Next() {
		var pc engine.ProviderConfig
		var kind string
		var enabled int
		if err := rows.Scan(&pc.ID, &pc.Name, &kind, &pc.APIURL, &pc.APIHeaders,
			&pc.ResultPath, &pc.TitlePath, &pc.URLPath, &pc.ContentPath, &enabled); err != nil {
			return nil, err
		}
		pc.Kind = engine.ProviderKind(kind)
		pc.Enabled = enabled != 0
		out = append(out, pc)
	}
	return out, rows.Err()
}

// ListProviders returns every provider row, enabled or not, for management
// surfaces. Retrieval paths use Providers instead.
func (s *Store) ListProviders() ([]engine.ProviderConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT id, name, kind, COALESCE(api_url,''), COALESCE(api_headers,''),
		COALESCE(result_path,''), COALESCE(title_path,''), COALESCE(url_path,''),
		COALESCE(content_path,''), enabled FROM providers ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("archive: list providers: %w", err)
	}
	defer rows.Close()

	var out []engine.ProviderConfig
	for rows.Next() {
		var pc engine.ProviderConfig
		var kind string
		var enabled int
		if err := rows.Scan(&pc.ID, &pc.Name, &kind, &pc.APIURL, &pc.APIHeaders,
			&pc.ResultPath, &pc.TitlePath, &pc.URLPath, &pc.ContentPath, &enabled); err != nil {
			return nil, err
		}
		pc.Kind = engine.ProviderKind(kind)
		pc.Enabled = enabled != 0
		out = append(out, pc)
	}
	return out, rows.Err()
}

// AddProvider validates and stores a provider configuration, returning its id.
// Validation runs the same resolution the dispatcher will use, so a row that
// inserts cleanly is guaranteed to resolve at retrieval time.
func (s *Store) AddProvider(pc engine.ProviderConfig) (int64, error) {
	if pc.Name == "" {
		return 0, errors.New("archive: provider name is required")
	}
	if _, err := engine.ResolveAdapter(pc); err != nil {
		return 0, fmt.Errorf("archive: invalid provider: %w", err)
	}
	if pc.APIHeaders != "" {
		var m map[string]string
		if err := json.Unmarshal([]byte(pc.APIHeaders), &m); err != nil {
			return 0, fmt.Errorf("archive: api_headers must be a JSON object: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	enabled := 0
	if pc.Enabled {
		enabled = 1
	}
	res, err := s.db.Exec(`
		INSERT INTO providers (name, kind, api_url, api_headers, result_path, title_path, url_path, content_path, enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pc.Name, string(pc.Kind), pc.APIURL, pc.APIHeaders,
		pc.ResultPath, pc.TitlePath, pc.URLPath, pc.ContentPath, enabled)
	if err != nil {
		return 0, fmt.Errorf("archive: add provider: %w", err)
	}
	id, _ := res.LastInsertId()
	return id, nil
}

// DeleteProvider removes a provider row.
func (s *Store) DeleteProvider(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(`DELETE FROM providers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("archive: delete provider %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Snapshots / archive files ---

// normalizeDBName forces a .db extension on a snapshot name.
func normalizeDBName(name string) string {
	if !strings.HasSuffix(name, ".db") {
		name += ".db"
	}
	return filepath.Base(name) // no path traversal out of the storage dir
}

// SaveTo snapshots the live database into a named file in the storage
// directory, making it discoverable by cross-archive search.
func (s *Store) SaveTo(filename string) (string, error) {
	filename = normalizeDBName(filename)
	path := filepath.Join(s.dir, filename)

	s.mu.Lock()
	defer s.mu.Unlock()

	// VACUUM INTO refuses to overwrite; replace atomically via a temp file.
	tmp := path + ".tmp"
	_ = os.Remove(tmp)
	if _, err := s.db.Exec(`VACUUM INTO ?`, tmp); err != nil {
		return "", fmt.Errorf("archive: snapshot to %s: %w", filename, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("archive: snapshot rename: %w", err)
	}
	return filename, nil
}

// LoadFrom swaps the live connection to a stored file in the storage
// directory. The previous connection is closed.
func (s *Store) LoadFrom(filename string) error {
	filename = normalizeDBName(filename)
	path := filepath.Join(s.dir, filename)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("archive: load %s: %w", filename, err)
	}

	db, err := openDB(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	old := s.db
	s.db = db
	s.file = filename
	s.mu.Unlock()

	_ = old.Close()
	return nil
}

// ListArchiveFiles returns the *.db files in the storage directory, sorted.
func ListArchiveFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("archive: read dir %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".db") {
			continue
		}
		files = append(files, e.Name())
	}
	return files, nil
}
