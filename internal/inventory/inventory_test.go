package inventory

import (
	"path/filepath"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.yaml")

	inv := &Inventory{Folders: []Folder{
		{FolderName: "hq", Sessions: []Session{
			{Name: "SW1", IP: "10.0.0.1", Port: 22, CredsID: 1},
		}},
	}}

	if err := Save(path, inv); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.AllSessions()) != 1 {
		t.Fatalf("AllSessions() len = %d, want 1", len(loaded.AllSessions()))
	}
	if loaded.AllSessions()[0].NormalizedName() != "sw1" {
		t.Fatalf("NormalizedName() = %q, want sw1", loaded.AllSessions()[0].NormalizedName())
	}
}

func TestUpsertReplacesExisting(t *testing.T) {
	inv := &Inventory{}
	inv.Upsert("hq", Session{Name: "SW1", IP: "10.0.0.1"})
	inv.Upsert("hq", Session{Name: "sw1", IP: "10.0.0.2"})

	sessions := inv.AllSessions()
	if len(sessions) != 1 {
		t.Fatalf("len(sessions) = %d, want 1 (case-insensitive upsert)", len(sessions))
	}
	if sessions[0].IP != "10.0.0.2" {
		t.Fatalf("IP = %q, want 10.0.0.2 (latest upsert should win)", sessions[0].IP)
	}
}
