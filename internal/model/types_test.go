package model

import (
	"encoding/json"
	"testing"
)

func TestItem_UnmarshalLenient(t *testing.T) {
	raw := `[
		{"id": 7, "title": "A", "reading_time": 5, "tags": null},
		{"title": "B", "reading_time": "12 min", "published_date": "2024-06-01"},
		{"id": "x-1", "author": null}
	]`
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if items[0].ID != "7" || !items[0].ReadingTime.Numeric || items[0].ReadingTime.Minutes() != 5 {
		t.Fatalf("numeric fields: %+v", items[0])
	}
	if items[1].ReadingTime.Minutes() != 12 || items[1].ReadingTime.Numeric {
		t.Fatalf("string reading time: %+v", items[1].ReadingTime)
	}
	if items[2].ID != "x-1" || items[2].Author != "" {
		t.Fatalf("string id / null author: %+v", items[2])
	}
}

func TestItem_UnmarshalWrongTypesFallBackToZero(t *testing.T) {
	raw := `[
		{"id": {"a": 1}, "title": 42, "published_date": 1704067200, "reading_time": true},
		{"title": "B", "tags": "js", "category": ["x"], "image": false},
		{"title": "C", "tags": ["go", 3, "web"], "published_date": "2024-01-01"}
	]`
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("len = %d, want 3", len(items))
	}
	a := items[0]
	if a.ID != "" || a.Title != "" || a.PublishedDate != "" || !a.ReadingTime.IsZero() {
		t.Fatalf("wrong-typed fields should be zero: %+v", a)
	}
	if _, ok := a.Published(); ok {
		t.Fatal("numeric published_date should not parse")
	}
	b := items[1]
	if b.Title != "B" || b.Tags != nil || b.Category != "" || b.Image != "" {
		t.Fatalf("record B: %+v", b)
	}
	c := items[2]
	if len(c.Tags) != 2 || c.Tags[0] != "go" || c.Tags[1] != "web" {
		t.Fatalf("tags = %q", c.Tags)
	}
	if _, ok := c.Published(); !ok {
		t.Fatal("valid date in the same collection should still parse")
	}
}

func TestItem_UnmarshalRejectsNonObject(t *testing.T) {
	var items []Item
	if err := json.Unmarshal([]byte(`[{"title": "A"}, 7]`), &items); err == nil {
		t.Fatal("expect error for non-object element")
	}
}

func TestAssignIDs_FromPosition(t *testing.T) {
	in := []Item{{Title: "a"}, {ID: "keep", Title: "b"}, {Title: "c"}}
	out := AssignIDs(in)
	if out[0].ID != "1" || out[1].ID != "keep" || out[2].ID != "3" {
		t.Fatalf("ids = %q %q %q", out[0].ID, out[1].ID, out[2].ID)
	}
	if in[0].ID != "" {
		t.Fatal("input must not be modified")
	}
}

func TestReadingTime_Minutes(t *testing.T) {
	cases := map[string]int{"": 0, "5 min": 5, "about 12 minutes": 12, "n/a": 0, "4.5": 4}
	for v, want := range cases {
		if got := (ReadingTime{Value: v}).Minutes(); got != want {
			t.Errorf("Minutes(%q) = %d, want %d", v, got, want)
		}
	}
}

func TestReadingTime_RoundTrip(t *testing.T) {
	in := []Item{{Title: "n", ReadingTime: ReadingTime{Value: "3", Numeric: true}}, {Title: "s", ReadingTime: ReadingTime{Value: "3 min"}}}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out []Item
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out[0].ReadingTime != in[0].ReadingTime || out[1].ReadingTime != in[1].ReadingTime {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2024-01-01", "2024-01-01T10:00:00Z", "2024-01-01 10:00:00", "Mon, 02 Jan 2006 15:04:05 -0700"} {
		if _, ok := ParseDate(s); !ok {
			t.Errorf("ParseDate(%q) failed", s)
		}
	}
	for _, s := range []string{"", "yesterday", "2024-13-45"} {
		if _, ok := ParseDate(s); ok {
			t.Errorf("ParseDate(%q) should fail", s)
		}
	}
}
