package pagination

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestCursorRoundTrip(t *testing.T) {
	want := Cursor{CreatedAt: time.Date(2026, 3, 1, 9, 30, 0, 123, time.UTC), ID: uuid.New()}
	got, err := ParseCursor(EncodeCursor(want))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || got.ID != want.ID {
		t.Fatalf("cursor mismatch: got %+v want %+v", got, want)
	}
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	if c, err := ParseCursor("  "); err != nil || c != nil {
		t.Fatalf("empty cursor should be nil, got %v %v", c, err)
	}
	for _, raw := range []string{"%%%", "bm9waXBl", EncodeCursor(Cursor{})[:4]} {
		if _, err := ParseCursor(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestNormalizeLimit(t *testing.T) {
	cases := map[int]int{0: DefaultLimit, -3: DefaultLimit, 7: 7, MaxLimit + 50: MaxLimit}
	for in, want := range cases {
		if got := NormalizeLimit(in); got != want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestBuildSetsNextCursorOnlyWhenMoreRows(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]Cursor, 3)
	for i := range rows {
		rows[i] = Cursor{CreatedAt: base.Add(-time.Duration(i) * time.Hour), ID: uuid.New()}
	}
	identity := func(c Cursor) Cursor { return c }

	page := Build(rows, 2, identity)
	if len(page.Items) != 2 || page.NextCursor == "" {
		t.Fatalf("expected 2 items and a cursor, got %d %q", len(page.Items), page.NextCursor)
	}
	next, err := ParseCursor(page.NextCursor)
	if err != nil || next.ID != rows[1].ID {
		t.Fatalf("cursor should point at last kept row: %v %v", next, err)
	}

	page = Build(rows[:2], 2, identity)
	if page.NextCursor != "" {
		t.Fatalf("no cursor expected on last page")
	}
	if empty := Build[Cursor](nil, 2, identity); empty.Items == nil {
		t.Fatalf("items should be an empty slice")
	}
}

func TestKeysetScope(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{DryRun: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	type row struct {
		ID        uuid.UUID
		CreatedAt time.Time
	}

	var rows []row
	first := db.Table("rows").Scopes(Keyset(nil, 3)).Find(&rows).Statement.SQL.String()
	if strings.Contains(first, "created_at <") {
		t.Fatalf("first page must not seek: %s", first)
	}

	cursor := &Cursor{CreatedAt: time.Now(), ID: uuid.New()}
	next := db.Table("rows").Where("status = ?", "open").Scopes(Keyset(cursor, 3)).Find(&rows).Statement.SQL.String()
	for _, want := range []string{"((created_at < ?) OR (created_at = ? AND id < ?))", "status = ?", "created_at DESC", "id DESC"} {
		if !strings.Contains(next, want) {
			t.Fatalf("expected %q in %s", want, next)
		}
	}
}
