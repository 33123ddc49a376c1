package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	a := Key("rates", "USD", "CAD", "2025-03-14")
	b := Key("rates", "USD", "CAD", "2025-03-15")
	if a == b {
		t.Error("different days should produce different keys")
	}
	if a != Key("rates", "USD", "CAD", "2025-03-14") {
		t.Error("keys should be stable")
	}
	if Key("rates", "US", "DCAD") == Key("rates", "USD", "CAD") {
		t.Error("part boundaries should be part of the key")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss")
	}

	value := []byte("1.3725")
	if err := c.Set("k", value, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	value[0] = '9'

	got, ok := c.Get("k")
	if !ok || string(got) != "1.3725" {
		t.Errorf("Get = %q, %v; stored bytes must not alias the caller's slice", got, ok)
	}

	if err := c.Set("short", []byte("x"), time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("short"); ok {
		t.Error("expected expired entry to miss")
	}

	_ = c.Delete("k")
	if c.Len() != 0 {
		t.Errorf("Len = %d after delete", c.Len())
	}
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	key := Key("rates", "EUR", "CAD")
	if err := c.Set(key, []byte(`{"rate":"1.49"}`), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok := c.Get(key)
	if !ok || string(got) != `{"rate":"1.49"}` {
		t.Fatalf("Get = %q, %v", got, ok)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected one file and no temp leftovers, got %d", len(entries))
	}

	now = now.Add(2 * time.Hour)
	if _, ok := c.Get(key); ok {
		t.Error("expected expired entry to miss")
	}
	if _, err := os.Stat(filepath.Join(dir, key+".json")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}

	if err := c.Delete("never-stored"); err != nil {
		t.Errorf("Delete of a missing key: %v", err)
	}
}

func TestDiskCache_CorruptEntry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Error("corrupt entry should miss")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	NewDiskCache(dir, time.Hour).Set("k", []byte("v"), 0)

	c := NewLayeredCache(time.Minute, dir, time.Hour)
	got, ok := c.Get("k")
	if !ok || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, ok)
	}
	if _, ok := c.memory.Get("k"); !ok {
		t.Error("disk hit should be promoted to memory")
	}

	if err := c.Delete("k"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestJSONHelpers(t *testing.T) {
	type rate struct {
		From string `json:"from"`
		Rate string `json:"rate"`
	}
	c := New("", time.Minute)

	if err := SetJSON(c, "r", rate{From: "USD", Rate: "1.37"}, 0); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}
	got, ok := GetJSON[rate](c, "r")
	if !ok || got.From != "USD" || got.Rate != "1.37" {
		t.Errorf("GetJSON = %+v, %v", got, ok)
	}

	_ = c.Set("garbage", []byte("nope"), 0)
	if _, ok := GetJSON[rate](c, "garbage"); ok {
		t.Error("undecodable entry should miss")
	}
}
