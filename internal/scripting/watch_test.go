package scripting

import (
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReportsScriptWrites(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(50*time.Millisecond, dir)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	writeScript(t, dir, "notes.txt", "ignored")
	want := writeScript(t, dir, "coin.lua", "return {}")

	deadline := time.After(2 * time.Second)
	for {
		select {
		case name := <-w.Events:
			if filepath.Ext(name) != ".lua" {
				t.Fatalf("got event for %s, want only script files", name)
			}
			if filepath.Clean(name) == filepath.Clean(want) {
				return
			}
		case err := <-w.Errors:
			t.Fatalf("watch error: %v", err)
		case <-deadline:
			t.Fatal("no event for coin.lua")
		}
	}
}

func TestWatcherCloseClosesChannels(t *testing.T) {
	w, err := NewWatcher(time.Millisecond, t.TempDir())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, ok := <-w.Events; ok {
		t.Error("Events still open after Close")
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
