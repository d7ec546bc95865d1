package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeLog(t *testing.T, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shopfront.log")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestRead(t *testing.T) {
	var all []string
	for i := 1; i <= 10; i++ {
		all = append(all, fmt.Sprintf("Line %d", i))
	}
	path := writeLog(t, all)

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{name: "zero", maxLines: 0, expected: nil},
		{name: "partial", maxLines: 5, expected: all[5:]},
		{name: "exact", maxLines: 10, expected: all},
		{name: "more than exists", maxLines: 20, expected: all},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(path, tt.maxLines)
			if err != nil {
				t.Fatalf("Read returned error: %v", err)
			}
			if len(got) == 0 && len(tt.expected) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Fatalf("Read = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read = %v, %v; want nil, nil", got, err)
	}
}

func TestParse_JSONWithFieldMap(t *testing.T) {
	e := Parse(`{"timestamp":"2024-05-01T12:00:00.5Z","severity":"warning","message":"payment failed","uid":"u1","amount":2500}`)
	want := time.Date(2024, 5, 1, 12, 0, 0, 500000000, time.UTC)
	if !e.Time.Equal(want) {
		t.Fatalf("Time = %v, want %v", e.Time, want)
	}
	if e.Level != "warning" || e.Message != "payment failed" {
		t.Fatalf("entry = %#v", e)
	}
	if e.Fields["uid"] != "u1" || e.Fields["amount"] != "2500" {
		t.Fatalf("Fields = %#v", e.Fields)
	}
	if got := e.FieldKeys(); !reflect.DeepEqual(got, []string{"amount", "uid"}) {
		t.Fatalf("FieldKeys = %v", got)
	}
}

func TestParse_DefaultJSONKeys(t *testing.T) {
	e := Parse(`{"time":"2024-05-01T12:00:00Z","level":"INFO","msg":"cart cleared"}`)
	if e.Level != "info" || e.Message != "cart cleared" || e.Fields != nil {
		t.Fatalf("entry = %#v", e)
	}
}

func TestParse_Text(t *testing.T) {
	e := Parse(`time="2024-05-01T12:00:00Z" level=error msg="delete failed: \"boom\"" path=users/u1/cart id=42`)
	if e.Level != "error" || e.Message != `delete failed: "boom"` {
		t.Fatalf("entry = %#v", e)
	}
	if e.Fields["path"] != "users/u1/cart" || e.Fields["id"] != "42" {
		t.Fatalf("Fields = %#v", e.Fields)
	}
	if e.Time.IsZero() {
		t.Fatal("Time not parsed")
	}
}

func TestParse_UnknownFormatKeepsLine(t *testing.T) {
	for _, line := range []string{"panic: runtime error", `{"broken"`, "a=1 b=2"} {
		e := Parse(line)
		if e.Message != line || e.Level != "" {
			t.Fatalf("Parse(%q) = %#v, want raw message", line, e)
		}
	}
}

func TestTail_SkipsBlankLines(t *testing.T) {
	path := writeLog(t, []string{
		`{"severity":"info","message":"one"}`,
		"",
		`{"severity":"info","message":"two"}`,
	})
	entries, err := Tail(path, 10)
	if err != nil {
		t.Fatalf("Tail returned error: %v", err)
	}
	if len(entries) != 2 || entries[1].Message != "two" {
		t.Fatalf("entries = %#v", entries)
	}
}
