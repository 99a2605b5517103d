package migrations

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestDiscover_Embedded(t *testing.T) {
	ms, err := Discover()
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(ms) == 0 {
		t.Fatal("expected at least one embedded migration")
	}
	if ms[0].Version != "001" {
		t.Errorf("expected first version 001, got %s", ms[0].Version)
	}
	if !strings.Contains(ms[0].SQL, "CREATE TABLE IF NOT EXISTS batches") {
		t.Error("expected 001 to create the batches table")
	}
	if len(ms[0].Checksum) != 64 {
		t.Errorf("expected hex sha256 checksum, got %q", ms[0].Checksum)
	}
}

func TestDiscover_SortsAndSkipsNonSQL(t *testing.T) {
	fsys := fstest.MapFS{
		"002_b.sql": {Data: []byte("SELECT 2;")},
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"README.md": {Data: []byte("docs")},
		"010_c.sql": {Data: []byte("SELECT 10;")},
	}
	ms, err := discover(fsys)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	var names []string
	for _, m := range ms {
		names = append(names, m.Filename)
	}
	if got := strings.Join(names, ","); got != "001_a.sql,002_b.sql,010_c.sql" {
		t.Errorf("unexpected order %s", got)
	}
}

func TestDiscover_RejectsBadNames(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{"no underscore", fstest.MapFS{"001.sql": {Data: []byte("x")}}},
		{"duplicate version", fstest.MapFS{
			"001_a.sql": {Data: []byte("x")},
			"001_b.sql": {Data: []byte("y")},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := discover(tt.fsys); err == nil {
				t.Error("expected error")
			}
		})
	}
}
