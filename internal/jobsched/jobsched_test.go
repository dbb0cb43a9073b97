package jobsched

import (
	"path/filepath"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.json")
	doc := &Document{}
	doc.Upsert(Definition{Name: "nightly", Schedule: "0 2 * * *", InventoryPath: "/data/sessions.yaml", Enabled: true})
	doc.Upsert(Definition{Name: "hourly-arp", Schedule: "0 * * * *", CaptureTypes: []string{"arp"}, Enabled: true})

	if err := doc.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Jobs) != 2 {
		t.Fatalf("len(Jobs) = %d, want 2", len(loaded.Jobs))
	}
	if loaded.Jobs[0].Name != "nightly" || loaded.Jobs[0].Schedule != "0 2 * * *" {
		t.Errorf("Jobs[0] = %+v", loaded.Jobs[0])
	}
}

func TestUpsertReplacesByName(t *testing.T) {
	doc := &Document{}
	doc.Upsert(Definition{Name: "nightly", Schedule: "0 2 * * *"})
	doc.Upsert(Definition{Name: "nightly", Schedule: "0 3 * * *"})

	if len(doc.Jobs) != 1 {
		t.Fatalf("len(Jobs) = %d, want 1", len(doc.Jobs))
	}
	if doc.Jobs[0].Schedule != "0 3 * * *" {
		t.Errorf("Schedule = %q, want updated value", doc.Jobs[0].Schedule)
	}
}

func TestRemoveDeletesDefinition(t *testing.T) {
	doc := &Document{}
	doc.Upsert(Definition{Name: "nightly"})
	if !doc.Remove("nightly") {
		t.Fatal("expected Remove to report found")
	}
	if len(doc.Jobs) != 0 {
		t.Errorf("expected empty job list after Remove, got %d", len(doc.Jobs))
	}
	if doc.Remove("nightly") {
		t.Error("expected second Remove to report not found")
	}
}

func TestLoadMissingFileReturnsEmptyDocument(t *testing.T) {
	doc, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc.Jobs) != 0 {
		t.Errorf("expected empty document, got %d jobs", len(doc.Jobs))
	}
}
