package history

import (
	"testing"
	"time"

	"github.com/unkn0wn-root/reqdeck/internal/request"
)

func TestLogPrependMostRecentFirst(t *testing.T) {
	log := NewLog()
	for i := 0; i < 5; i++ {
		log.Prepend(Item{ID: log.NextID(), Method: request.GET, URL: "https://example.com"})
	}
	entries := log.Entries()
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}
	for i, it := range entries {
		want := 5 - i
		if it.seq() != int64(want) {
			t.Fatalf("entry %d: expected id %d, got %q", i, want, it.ID)
		}
	}

	log.Clear()
	if log.Len() != 0 {
		t.Fatalf("expected empty log after clear, got %d", log.Len())
	}
	if id := log.NextID(); id != "6" {
		t.Fatalf("expected ids to keep increasing after clear, got %q", id)
	}
}

func TestLogAllowsDuplicates(t *testing.T) {
	log := NewLog()
	it := Item{ID: "1", URL: "https://example.com"}
	log.Prepend(it)
	log.Prepend(it)
	if log.Len() != 2 {
		t.Fatalf("expected no dedup, got %d entries", log.Len())
	}
}

func TestLogEntriesAreCopies(t *testing.T) {
	log := NewLog()
	log.Prepend(Item{ID: "1", Headers: []request.Pair{{Key: "A", Value: "1"}}})
	entries := log.Entries()
	entries[0].Headers[0].Value = "changed"
	got, ok := log.Get("1")
	if !ok {
		t.Fatalf("expected item 1")
	}
	if got.Headers[0].Value != "1" {
		t.Fatalf("log mutated through snapshot: %+v", got.Headers)
	}
}

func TestLogRestoreSortsAndSeeds(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(2 * time.Minute)

	log := NewLog()
	log.Restore([]Item{
		{ID: "7", ExecutedAt: t1},
		{ID: "12", ExecutedAt: t2},
		{ID: "3", ExecutedAt: t1},
	})
	entries := log.Entries()
	if entries[0].ID != "12" || entries[1].ID != "7" || entries[2].ID != "3" {
		t.Fatalf("unexpected order: %q %q %q", entries[0].ID, entries[1].ID, entries[2].ID)
	}
	if id := log.NextID(); id != "13" {
		t.Fatalf("expected id sequence seeded above restored ids, got %q", id)
	}
}

func TestItemApply(t *testing.T) {
	it := Item{
		Method:      request.POST,
		URL:         "https://api.test/get?x=1",
		OriginalURL: "https://{host}/get?x=1",
		Headers:     []request.Pair{{Key: "Accept", Value: "application/json"}},
		Query:       []request.Pair{{Key: "x", Value: "1"}},
		Body:        `{"a":1}`,
	}
	def := request.Default()
	it.Apply(&def)

	if def.Method != request.POST || def.URL != it.OriginalURL || def.Body != it.Body {
		t.Fatalf("unexpected definition %+v", def)
	}
	if p := def.Headers.At(0); p.Key != "Accept" || p.Value != "application/json" {
		t.Fatalf("unexpected header row %+v", p)
	}
	if p := def.Query.At(0); p.Key != "x" || p.Value != "1" {
		t.Fatalf("unexpected query row %+v", p)
	}
}
