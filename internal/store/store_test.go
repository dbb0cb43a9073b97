package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/scottpeterman/velocitycmdb/internal/errs"
	"github.com/scottpeterman/velocitycmdb/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	st, err := Open(filepath.Join(dir, "assets.db"), filepath.Join(dir, "arp_cat.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestUpsertAndFetchDevice(t *testing.T) {
	st := openTestStore(t)

	d := models.Device{
		Name:           "sw1",
		NormalizedName: "sw1",
		ManagementIP:   "10.0.0.1",
		VendorID:       "cisco_ios",
		Platform:       "WS-C3850",
	}
	id, err := st.UpsertDevice(d)
	if err != nil {
		t.Fatalf("UpsertDevice: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected non-zero device id")
	}

	got, err := st.DeviceByNormalizedName("sw1")
	if err != nil {
		t.Fatalf("DeviceByNormalizedName: %v", err)
	}
	if got.ManagementIP != "10.0.0.1" || got.Platform != "WS-C3850" {
		t.Errorf("got %+v", got)
	}

	// Upsert again with a changed field; row count should stay at one.
	d.Platform = "WS-C3850-X"
	if _, err := st.UpsertDevice(d); err != nil {
		t.Fatalf("second UpsertDevice: %v", err)
	}
	got, err = st.DeviceByNormalizedName("sw1")
	if err != nil {
		t.Fatalf("DeviceByNormalizedName after update: %v", err)
	}
	if got.Platform != "WS-C3850-X" {
		t.Errorf("Platform = %q, want updated value", got.Platform)
	}
}

func TestDeviceByNormalizedNameNotFound(t *testing.T) {
	st := openTestStore(t)
	if _, err := st.DeviceByNormalizedName("missing"); err != errs.ErrNotFound {
		t.Errorf("err = %v, want errs.ErrNotFound", err)
	}
}

func TestReplaceComponentsReplacesWholeSet(t *testing.T) {
	st := openTestStore(t)
	id, err := st.UpsertDevice(models.Device{Name: "sw1", NormalizedName: "sw1"})
	if err != nil {
		t.Fatalf("UpsertDevice: %v", err)
	}

	first := []models.Component{{Name: "Gi1/0/1", Type: "transceiver", Position: "1"}}
	if err := st.ReplaceComponents(id, first); err != nil {
		t.Fatalf("ReplaceComponents: %v", err)
	}

	second := []models.Component{{Name: "PSU1", Type: "psu", Position: "1"}}
	if err := st.ReplaceComponents(id, second); err != nil {
		t.Fatalf("ReplaceComponents second call: %v", err)
	}
	// No direct read accessor for components beyond store internals; this
	// exercises that a second replace doesn't error over the first set's rows.
}

func TestLatestSnapshotAndChangeHistory(t *testing.T) {
	st := openTestStore(t)
	id, err := st.UpsertDevice(models.Device{Name: "sw1", NormalizedName: "sw1"})
	if err != nil {
		t.Fatalf("UpsertDevice: %v", err)
	}

	now := time.Now()
	snap1 := models.CaptureSnapshot{
		DeviceID: id, CaptureType: "configs", Content: "hostname sw1\n",
		ContentHash: "hash1", FilePath: "configs/sw1.txt", CapturedAt: now,
	}
	snapID, err := st.InsertSnapshot(snap1)
	if err != nil {
		t.Fatalf("InsertSnapshot: %v", err)
	}

	latest, err := st.LatestSnapshot(id, "configs")
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if latest.ID != snapID {
		t.Errorf("LatestSnapshot.ID = %d, want %d", latest.ID, snapID)
	}

	snap2 := snap1
	snap2.ContentHash = "hash2"
	snap2.Content = "hostname sw1\ninterface Gi1/0/1\n"
	snap2.CapturedAt = now.Add(time.Hour)
	snap2ID, err := st.InsertSnapshot(snap2)
	if err != nil {
		t.Fatalf("InsertSnapshot second: %v", err)
	}

	changeID, err := st.InsertChange(models.CaptureChange{
		DeviceID: id, CaptureType: "configs", DetectedAt: now.Add(time.Hour),
		PreviousSnapshotID: &snapID, CurrentSnapshotID: snap2ID,
		LinesAdded: 1, Severity: models.SeverityModerate,
	})
	if err != nil {
		t.Fatalf("InsertChange: %v", err)
	}
	if changeID == 0 {
		t.Errorf("expected non-zero change id")
	}
}

func TestUpsertCaptureCurrentAndSearch(t *testing.T) {
	st := openTestStore(t)
	id, err := st.UpsertDevice(models.Device{Name: "sw1", NormalizedName: "sw1"})
	if err != nil {
		t.Fatalf("UpsertDevice: %v", err)
	}

	if err := st.UpsertCaptureCurrent(models.CaptureCurrent{
		DeviceID: id, CaptureType: "configs", FilePath: "configs/sw1.txt",
		Size: 42, CapturedAt: time.Now(), ContentHash: "abc",
	}); err != nil {
		t.Fatalf("UpsertCaptureCurrent: %v", err)
	}

	// SearchSnapshots queries capture_fts, which is populated from
	// capture_snapshots, not captures_current; verify it runs without error
	// against an empty index rather than asserting specific matches.
	if _, err := st.SearchSnapshots("sw1"); err != nil {
		t.Fatalf("SearchSnapshots: %v", err)
	}
}

func TestInsertArpEntryAppendsHistory(t *testing.T) {
	st := openTestStore(t)
	id, err := st.UpsertDevice(models.Device{Name: "sw1", NormalizedName: "sw1"})
	if err != nil {
		t.Fatalf("UpsertDevice: %v", err)
	}

	entry := models.ArpEntry{
		DeviceID: id, IPAddress: "10.0.0.5", MACAddress: "aabb.ccdd.eeff",
		Interface: "Vlan10", EntryType: "dynamic", CapturedAt: time.Now(),
	}
	if err := st.InsertArpEntry(entry); err != nil {
		t.Fatalf("InsertArpEntry: %v", err)
	}
	// Append-only: inserting the identical sighting again should not error.
	if err := st.InsertArpEntry(entry); err != nil {
		t.Fatalf("InsertArpEntry duplicate: %v", err)
	}
}

func TestPing(t *testing.T) {
	st := openTestStore(t)
	if err := st.Ping(); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
