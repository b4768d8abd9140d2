package engine

import "testing"

func TestTopSuggestions(t *testing.T) {
	all := []string{
		"go channels", "go generics", "go channels",
		"go modules", "go channels", "go generics",
	}
	got := topSuggestions(all, 10)
	want := []string{"go channels", "go generics", "go modules"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTopSuggestionsCap(t *testing.T) {
	var all []string
	for _, s := range []string{"a", "b", "c", "d"} {
		all = append(all, s)
	}
	if got := topSuggestions(all, 2); len(got) != 2 {
		t.Errorf("got %d suggestions, want 2", len(got))
	}
}

func TestTopSuggestionsTiesKeepFirstSeenOrder(t *testing.T) {
	got := topSuggestions([]string{"beta", "alpha", "beta", "alpha"}, 10)
	if got[0] != "beta" || got[1] != "alpha" {
		t.Errorf("tie order = %v, want first-seen order", got)
	}
}
