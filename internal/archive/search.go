package archive

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/anatolykoptev/go_research/internal/engine"
)

const (
	notesLimit       = 3   // curated notes are high-signal, keep the cap tight
	messagesRawLimit = 100 // raw message hits per file before diversity filtering
	windowRadius     = 3   // messages of surrounding context on each side of a hit
	searchWorkers    = 4
)

// Searcher scans every *.db file in the storage directory for past research
// relevant to a query. It satisfies the dispatcher's adapter contract, so
// local archives participate in retrieval like any other provider.
type Searcher struct {
	dir string
}

// NewSearcher returns a Searcher over the given storage directory.
func NewSearcher(dir string) *Searcher {
	return &Searcher{dir: dir}
}

// Search runs the two-stage lookup (notes, then full-text over messages)
// across all archive files. Unreadable or corrupt files are skipped; the
// timeframe is ignored since archived research has no freshness axis.
func (s *Searcher) Search(ctx context.Context, query string, _ engine.Timeframe) []engine.SearchResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	files, err := ListArchiveFiles(s.dir)
	if err != nil || len(files) == 0 {
		return nil
	}
	sort.Strings(files)
	engine.IncrArchiveScans()

	// Per-file result slots keep the merge order stable regardless of
	// which file finishes first.
	perFile := make([][]engine.SearchResult, len(files))
	sem := make(chan struct{}, searchWorkers)
	var wg sync.WaitGroup
	for i, name := range files {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			perFile[i] = s.searchFile(ctx, name, query)
		}(i, name)
	}
	wg.Wait()

	var out []engine.SearchResult
	for _, rs := range perFile {
		out = append(out, rs...)
	}
	return out
}

// searchFile searches one archive database. Every error path returns what
// was collected so far; a bad file must not fail the scan.
func (s *Searcher) searchFile(ctx context.Context, filename, query string) []engine.SearchResult {
	path := filepath.Join(s.dir, filename)
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		slog.Debug("archive: skipping unreadable file", "file", filename, "error", err)
		return nil
	}
	defer db.Close()

	var out []engine.SearchResult
	out = append(out, searchNotes(ctx, db, filename, query)...)

	hits := matchMessages(ctx, db, query)
	hits = diversityFilter(hits)
	for _, h := range hits {
		if r, ok := buildContextResult(ctx, db, filename, h); ok {
			out = append(out, r)
		}
	}
	return out
}

// messageHit is one matched message before context expansion.
type messageHit struct {
	MessageID      int64
	ConversationID int64
}

// searchNotes matches the query against note content and conversation
// titles with case-sensitive containment. Notes are short curated
// summaries, so they are returned whole.
func searchNotes(ctx context.Context, db *sql.DB, filename, query string) []engine.SearchResult {
	rows, err := db.QueryContext(ctx, `
		SELECT n.conversation_id, n.content, c.title
		FROM notes n JOIN conversations c ON c.id = n.conversation_id
		WHERE instr(n.content, ?) > 0 OR instr(c.title, ?) > 0
		ORDER BY n.updated_at DESC
		LIMIT ?`, query, query, notesLimit)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []engine.SearchResult
	for rows.Next() {
		var convID int64
		var content, title string
		if err := rows.Scan(&convID, &content, &title); err != nil {
			continue
		}
		out = append(out, engine.SearchResult{
			Title:   title,
			URL:     archiveLocator(filename, convID, "note"),
			Content: content,
			Engine:  "archive",
		})
	}
	return out
}

// matchMessages returns raw message hits newest-first. It prefers the FTS5
// index and degrades to substring containment when the file predates the
// index or the query sanitizes to nothing.
func matchMessages(ctx context.Context, db *sql.DB, query string) []messageHit {
	var rows *sql.Rows
	var err error
	if fts := ftsQuery(query); fts != "" && hasFTSIndex(ctx, db) {
		rows, err = db.QueryContext(ctx, `
			SELECT m.id, m.conversation_id
			FROM messages_fts f JOIN messages m ON m.id = f.rowid
			WHERE messages_fts MATCH ?
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT ?`, fts, messagesRawLimit)
	} else {
		rows, err = db.QueryContext(ctx, `
			SELECT id, conversation_id FROM messages
			WHERE instr(content, ?) > 0
			ORDER BY created_at DESC, id DESC
			LIMIT ?`, query, messagesRawLimit)
	}
	if err != nil {
		return nil
	}
	defer rows.Close()

	var hits []messageHit
	for rows.Next() {
		var h messageHit
		if err := rows.Scan(&h.MessageID, &h.ConversationID); err != nil {
			continue
		}
		hits = append(hits, h)
	}
	return hits
}

func hasFTSIndex(ctx context.Context, db *sql.DB) bool {
	var name string
	err := db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'messages_fts'`).Scan(&name)
	return err == nil
}

// ftsQuery sanitizes free text into an FTS5 MATCH expression: operator
// characters are stripped and each remaining token is quoted, giving an
// implicit AND over plain terms.
func ftsQuery(query string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`"*^{}[]():-+~.,;!?'`, r) {
			return ' '
		}
		return r
	}, query)
	fields := strings.Fields(cleaned)
	if len(fields) == 0 {
		return ""
	}
	for i, f := range fields {
		fields[i] = `"` + f + `"`
	}
	return strings.Join(fields, " ")
}

// diversityFilter keeps at most one hit per conversation, preserving the
// incoming (newest-first) order. One long conversation must not crowd out
// everything else.
func diversityFilter(hits []messageHit) []messageHit {
	seen := make(map[int64]bool, len(hits))
	kept := hits[:0]
	for _, h := range hits {
		if seen[h.ConversationID] {
			continue
		}
		seen[h.ConversationID] = true
		kept = append(kept, h)
	}
	return kept
}

// buildContextResult expands a hit into a transcript excerpt of the
// surrounding turns, oldest-first.
func buildContextResult(ctx context.Context, db *sql.DB, filename string, h messageHit) (engine.SearchResult, bool) {
	var title string
	if err := db.QueryRowContext(ctx,
		`SELECT title FROM conversations WHERE id = ?`, h.ConversationID).Scan(&title); err != nil {
		return engine.SearchResult{}, false
	}

	rows, err := db.QueryContext(ctx, `
		SELECT role, content, created_at FROM messages
		WHERE conversation_id = ? AND id BETWEEN ? AND ?
		ORDER BY id ASC`,
		h.ConversationID, h.MessageID-windowRadius, h.MessageID+windowRadius)
	if err != nil {
		return engine.SearchResult{}, false
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var role, content, createdAt string
		if err := rows.Scan(&role, &content, &createdAt); err != nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("[%s @ %s] %s", role, createdAt, content))
	}
	if len(lines) == 0 {
		return engine.SearchResult{}, false
	}
	return engine.SearchResult{
		Title:   title,
		URL:     archiveLocator(filename, h.ConversationID, fmt.Sprintf("msg-%d", h.MessageID)),
		Content: strings.Join(lines, "\n"),
		Engine:  "archive",
	}, true
}

// archiveLocator builds a stable, non-fetchable reference into an archive
// file, shaped like a URL so downstream consumers treat it uniformly.
func archiveLocator(filename string, convID int64, fragment string) string {
	return fmt.Sprintf("archive://%s/conversations/%d#%s", filename, convID, fragment)
}
