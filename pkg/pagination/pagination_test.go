package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC), ID: uuid.New()}

	out, err := ParseCursor(EncodeCursor(in))
	if err != nil {
		t.Fatalf("ParseCursor failed: %v", err)
	}
	if out == nil {
		t.Fatal("expected cursor, got nil")
	}
	if !out.CreatedAt.Equal(in.CreatedAt) || out.ID != in.ID {
		t.Fatalf("round trip mismatch: %+v vs %+v", out, in)
	}
}

func TestParseCursor_Empty(t *testing.T) {
	c, err := ParseCursor("  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != nil {
		t.Fatal("expected nil cursor for blank value")
	}
}

func TestParseCursor_Garbage(t *testing.T) {
	if _, err := ParseCursor("not-base64!!"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
}

func TestNormalizeLimit(t *testing.T) {
	if got := NormalizeLimit(0); got != DefaultLimit {
		t.Fatalf("expected default limit, got %d", got)
	}
	if got := NormalizeLimit(500); got != MaxLimit {
		t.Fatalf("expected max limit, got %d", got)
	}
	if got := LimitWithBuffer(10); got != 11 {
		t.Fatalf("expected buffered limit 11, got %d", got)
	}
}

type pageRow struct {
	id uuid.UUID
	at time.Time
}

func TestNewPage(t *testing.T) {
	rows := make([]pageRow, 4)
	for i := range rows {
		rows[i] = pageRow{id: uuid.New(), at: time.Now().Add(-time.Duration(i) * time.Minute)}
	}

	page := NewPage(rows, 3, func(r pageRow) Cursor {
		return Cursor{CreatedAt: r.at, ID: r.id}
	})
	if len(page.Items) != 3 {
		t.Fatalf("expected trimmed page of 3, got %d", len(page.Items))
	}
	if page.NextCursor == "" {
		t.Fatal("expected next cursor when more rows exist")
	}

	last := NewPage(rows[:2], 3, func(r pageRow) Cursor {
		return Cursor{CreatedAt: r.at, ID: r.id}
	})
	if last.NextCursor != "" {
		t.Fatal("expected empty next cursor on final page")
	}
}
