package archive

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anatolykoptev/go_research/internal/engine"
)

// buildArchive assembles a store in memory and snapshots it into dir under
// the given name.
func buildArchive(t *testing.T, dir, name string, fill func(*Store)) {
	t.Helper()
	st, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()
	fill(st)
	if _, err := st.SaveTo(name); err != nil {
		t.Fatalf("SaveTo(%s): %v", name, err)
	}
}

func TestSearcherFindsMessageWithContext(t *testing.T) {
	dir := t.TempDir()
	buildArchive(t, dir, "research.db", func(st *Store) {
		id, _ := st.CreateConversation("Go Generics Research")
		for i, content := range []string{
			"turn one", "turn two", "turn three", "turn four",
			"how do generics constraints work", // id 5, the hit
			"turn six", "turn seven", "turn eight", "turn nine",
		} {
			role := "user"
			if i%2 == 1 {
				role = "assistant"
			}
			if _, err := st.AddMessage(id, role, content, ""); err != nil {
				t.Fatalf("AddMessage: %v", err)
			}
		}
	})

	results := NewSearcher(dir).Search(context.Background(), "constraints", engine.TimeframeNone)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1: %+v", len(results), results)
	}
	r := results[0]
	if r.Title != "Go Generics Research" {
		t.Errorf("title = %q", r.Title)
	}
	if r.Engine != "archive" {
		t.Errorf("engine = %q", r.Engine)
	}
	if !strings.HasPrefix(r.URL, "archive://research.db/conversations/") || !strings.HasSuffix(r.URL, "#msg-5") {
		t.Errorf("locator = %q", r.URL)
	}

	// Window is the hit plus three turns each side, oldest first.
	for _, want := range []string{"turn two", "turn four", "constraints", "turn six", "turn eight"} {
		if !strings.Contains(r.Content, want) {
			t.Errorf("context window missing %q:\n%s", want, r.Content)
		}
	}
	for _, absent := range []string{"turn one", "turn nine"} {
		if strings.Contains(r.Content, absent) {
			t.Errorf("context window should exclude %q:\n%s", absent, r.Content)
		}
	}
	if !strings.Contains(r.Content, "[user @ ") {
		t.Errorf("transcript lines missing role/timestamp prefix:\n%s", r.Content)
	}
	first := strings.Index(r.Content, "turn two")
	last := strings.Index(r.Content, "turn eight")
	if first < 0 || last < 0 || first > last {
		t.Error("context window not ordered oldest first")
	}
}

func TestSearcherNotesStage(t *testing.T) {
	dir := t.TempDir()
	buildArchive(t, dir, "notes.db", func(st *Store) {
		for i := 0; i < 4; i++ {
			id, _ := st.CreateConversation("Session")
			st.SaveNote(id, "summary about quicksort pivots")
		}
	})

	results := NewSearcher(dir).Search(context.Background(), "quicksort", engine.TimeframeNone)
	if len(results) != notesLimit {
		t.Fatalf("got %d note results, want cap of %d", len(results), notesLimit)
	}
	for _, r := range results {
		if !strings.HasSuffix(r.URL, "#note") {
			t.Errorf("note locator = %q", r.URL)
		}
		if r.Content != "summary about quicksort pivots" {
			t.Errorf("note content = %q", r.Content)
		}
	}
}

func TestSearcherOnePerConversation(t *testing.T) {
	dir := t.TempDir()
	buildArchive(t, dir, "a.db", func(st *Store) {
		long, _ := st.CreateConversation("Long Thread")
		for i := 0; i < 5; i++ {
			st.AddMessage(long, "user", "all about goroutine scheduling", "")
		}
		other, _ := st.CreateConversation("Other Thread")
		st.AddMessage(other, "assistant", "goroutine stacks grow on demand", "")
	})

	results := NewSearcher(dir).Search(context.Background(), "goroutine", engine.TimeframeNone)
	if len(results) != 2 {
		t.Fatalf("got %d results, want one per conversation: %+v", len(results), results)
	}
}

func TestDiversityFilter(t *testing.T) {
	hits := []messageHit{
		{1, 100}, {2, 100}, {3, 100}, {4, 200}, {5, 300}, {6, 200},
	}
	got := diversityFilter(hits)
	if len(got) != 3 {
		t.Fatalf("got %d hits, want 3: %+v", len(got), got)
	}
	wantConvs := []int64{100, 200, 300}
	for i, h := range got {
		if h.ConversationID != wantConvs[i] {
			t.Errorf("position %d conversation = %d, want %d", i, h.ConversationID, wantConvs[i])
		}
	}
	if got[0].MessageID != 1 {
		t.Errorf("kept hit for conversation 100 = %d, want first seen", got[0].MessageID)
	}
}

func TestFTSQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain terms", `"plain" "terms"`},
		{`quoted "phrase" (grouped)`, `"quoted" "phrase" "grouped"`},
		{"wild* NEAR- ^anchor", `"wild" "NEAR" "anchor"`},
		{`()"*`, ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ftsQuery(tt.in); got != tt.want {
			t.Errorf("ftsQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSearcherSkipsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	buildArchive(t, dir, "good.db", func(st *Store) {
		id, _ := st.CreateConversation("Good")
		st.AddMessage(id, "user", "a question about channels", "")
	})
	if err := os.WriteFile(filepath.Join(dir, "junk.db"), []byte("not a database"), 0o600); err != nil {
		t.Fatal(err)
	}

	results := NewSearcher(dir).Search(context.Background(), "channels", engine.TimeframeNone)
	if len(results) != 1 {
		t.Fatalf("corrupt file should be skipped, got %d results", len(results))
	}
}

func TestSearcherMergeOrderFollowsFileNames(t *testing.T) {
	dir := t.TempDir()
	buildArchive(t, dir, "b-second.db", func(st *Store) {
		id, _ := st.CreateConversation("Second File")
		st.AddMessage(id, "user", "shared topic keyword", "")
	})
	buildArchive(t, dir, "a-first.db", func(st *Store) {
		id, _ := st.CreateConversation("First File")
		st.AddMessage(id, "user", "shared topic keyword", "")
	})

	results := NewSearcher(dir).Search(context.Background(), "keyword", engine.TimeframeNone)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Title != "First File" || results[1].Title != "Second File" {
		t.Errorf("merge order = %q, %q; want lexical file order", results[0].Title, results[1].Title)
	}
}

func TestSearcherEmptyQueryAndEmptyDir(t *testing.T) {
	if got := NewSearcher(t.TempDir()).Search(context.Background(), "  ", engine.TimeframeNone); got != nil {
		t.Errorf("blank query: got %v", got)
	}
	if got := NewSearcher(t.TempDir()).Search(context.Background(), "anything", engine.TimeframeNone); got != nil {
		t.Errorf("empty dir: got %v", got)
	}
}
