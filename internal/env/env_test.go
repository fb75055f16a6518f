package env_test

import (
	"strings"
	"testing"

	"github.com/watchbind/watchbind/internal/env"
)

func TestValidateName(t *testing.T) {
	valid := []string{"a", "dir", "DIR", "_x", "a1_b2"}
	for _, name := range valid {
		if err := env.ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{"", "1a", "a-b", "a b", "a.b", "=x"}
	for _, name := range invalid {
		if err := env.ValidateName(name); err == nil {
			t.Errorf("ValidateName(%q) = nil, want error", name)
		}
	}
}

func TestTableSetGetUnset(t *testing.T) {
	tbl := env.NewTable()

	if _, ok := tbl.Get("dir"); ok {
		t.Fatal("expected dir to be unset initially")
	}

	tbl.Set("dir", "/tmp")
	v, ok := tbl.Get("dir")
	if !ok || v != "/tmp" {
		t.Fatalf("Get(dir) = %q, %v; want /tmp, true", v, ok)
	}

	tbl.Set("dir", "/")
	if v, _ := tbl.Get("dir"); v != "/" {
		t.Fatalf("Get(dir) after overwrite = %q, want /", v)
	}

	tbl.Unset("dir")
	if _, ok := tbl.Get("dir"); ok {
		t.Fatal("expected dir to be gone after Unset")
	}
}

func TestSnapshotIsolation(t *testing.T) {
	tbl := env.NewTable()
	tbl.Set("a", "1")

	snap := tbl.Snapshot()
	tbl.Set("a", "2")
	tbl.Set("b", "3")

	if snap["a"] != "1" {
		t.Errorf("snapshot saw later write: a = %q", snap["a"])
	}
	if _, ok := snap["b"]; ok {
		t.Error("snapshot saw variable set after it was taken")
	}
}

func TestEnviron(t *testing.T) {
	tbl := env.NewTable()
	tbl.Set("watchbind_test_var", "value")

	environ := tbl.Environ("line=3", "lines=1\n2")

	var sawTable, sawLine, sawLines bool
	for _, kv := range environ {
		switch {
		case kv == "watchbind_test_var=value":
			sawTable = true
		case kv == "line=3":
			sawLine = true
		case kv == "lines=1\n2":
			sawLines = true
		}
	}
	if !sawTable {
		t.Error("table variable missing from Environ")
	}
	if !sawLine || !sawLines {
		t.Error("extra pairs missing from Environ")
	}

	// Extras come after table entries so they win on duplicate keys.
	environ = tbl.Environ("watchbind_test_var=override")
	last := ""
	for _, kv := range environ {
		if strings.HasPrefix(kv, "watchbind_test_var=") {
			last = kv
		}
	}
	if last != "watchbind_test_var=override" {
		t.Errorf("expected extra pair to win, got %q", last)
	}
}
