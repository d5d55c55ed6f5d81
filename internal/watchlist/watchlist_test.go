package watchlist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseSkipsBlankAndComments(t *testing.T) {
	codes, err := Parse(strings.NewReader("600000\n\n  000001  \n# note\r\n300750\r\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"600000", "000001", "300750"}
	if strings.Join(codes, ",") != strings.Join(want, ",") {
		t.Errorf("codes = %v, want %v", codes, want)
	}
}

func TestBuildDedupKeepsOrder(t *testing.T) {
	l := Build([]string{"b", "a", "b", "c", "a"}, []string{"z", "y", "z"})
	var watch, held []string
	for _, s := range l.Watch {
		watch = append(watch, s.Code)
		if s.Held {
			t.Errorf("watch symbol %s marked held", s.Code)
		}
	}
	for _, s := range l.Holdings {
		held = append(held, s.Code)
		if !s.Held {
			t.Errorf("holding %s not marked held", s.Code)
		}
	}
	if strings.Join(watch, ",") != "b,a,c" {
		t.Errorf("watch = %v", watch)
	}
	if strings.Join(held, ",") != "z,y" {
		t.Errorf("holdings = %v", held)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	watch := filepath.Join(dir, "watch.txt")
	held := filepath.Join(dir, "held.txt")
	if err := os.WriteFile(watch, []byte("000001\n000001\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(held, []byte("600000\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	l, err := Load(watch, held)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(l.Watch) != 1 || len(l.Holdings) != 1 {
		t.Errorf("lists = %+v", l)
	}

	if _, err := Load(filepath.Join(dir, "missing.txt"), held); err == nil {
		t.Error("expected error for missing watch list")
	}
	if _, err := Load(watch, filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing holdings")
	}
}
