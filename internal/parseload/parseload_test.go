package parseload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/scottpeterman/velocitycmdb/internal/cmdctx"
	"github.com/scottpeterman/velocitycmdb/internal/config"
	"github.com/scottpeterman/velocitycmdb/internal/errs"
	"github.com/scottpeterman/velocitycmdb/internal/models"
)

type fakeCreds struct{}

func (fakeCreds) Credential(int) (string, string, bool) { return "", "", false }

type fakeStore struct {
	devices    map[string]models.Device
	current    []models.CaptureCurrent
	snapshots  []models.CaptureSnapshot
	changes    []models.CaptureChange
	components map[int64][]models.Component
	arp        []models.ArpEntry
	nextID     int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{devices: map[string]models.Device{}, components: map[int64][]models.Component{}}
}

func (f *fakeStore) DeviceByNormalizedName(name string) (models.Device, error) {
	d, ok := f.devices[name]
	if !ok {
		return models.Device{}, errs.ErrNotFound
	}
	return d, nil
}

func (f *fakeStore) UpsertCaptureCurrent(c models.CaptureCurrent) error {
	f.current = append(f.current, c)
	return nil
}

func (f *fakeStore) ReplaceComponents(deviceID int64, comps []models.Component) error {
	f.components[deviceID] = comps
	return nil
}

func (f *fakeStore) InsertArpEntry(e models.ArpEntry) error {
	f.arp = append(f.arp, e)
	return nil
}

func (f *fakeStore) LatestSnapshot(deviceID int64, captureType string) (models.CaptureSnapshot, error) {
	for _, s := range f.snapshots {
		if s.DeviceID == deviceID && s.CaptureType == captureType {
			return s, nil
		}
	}
	return models.CaptureSnapshot{}, errs.ErrNotFound
}

func (f *fakeStore) InsertSnapshot(snap models.CaptureSnapshot) (int64, error) {
	f.nextID++
	snap.ID = f.nextID
	f.snapshots = append(f.snapshots, snap)
	return snap.ID, nil
}

func (f *fakeStore) InsertChange(c models.CaptureChange) (int64, error) {
	f.nextID++
	c.ID = f.nextID
	f.changes = append(f.changes, c)
	return c.ID, nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Scores.Inventory = 1
	cfg.Scores.ARP = 1
	return cfg
}

func TestRunLoadsInventoryComponents(t *testing.T) {
	root := t.TempDir()
	invDir := filepath.Join(root, "inventory")
	if err := os.MkdirAll(invDir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := `NAME: "Chassis", DESCR: "Cisco switch chassis"
PID: WS-C3560-24, SN: FOC1111A1AA
`
	if err := os.WriteFile(filepath.Join(invDir, "sw1.txt"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cc := cmdctx.New(root, fakeCreds{})
	st := newFakeStore()
	st.devices["sw1"] = models.Device{ID: 1, NormalizedName: "sw1", VendorID: "cisco_ios"}

	result, err := Run(cc, st, root, testConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.FilesFailed != 0 {
		t.Fatalf("FilesFailed = %d, reasons=%v", result.FilesFailed, result.Reasons)
	}
	comps := st.components[1]
	if len(comps) != 1 {
		t.Fatalf("expected 1 component, got %d", len(comps))
	}
	if comps[0].Serial != "FOC1111A1AA" {
		t.Errorf("Serial = %q, want FOC1111A1AA", comps[0].Serial)
	}
	if len(st.snapshots) != 1 {
		t.Errorf("expected baseline inventory snapshot, got %d", len(st.snapshots))
	}
}

func TestRunSkipsMissingDevice(t *testing.T) {
	root := t.TempDir()
	invDir := filepath.Join(root, "inventory")
	os.MkdirAll(invDir, 0o755)
	os.WriteFile(filepath.Join(invDir, "unknown.txt"), []byte("NAME: \"x\""), 0o644)

	cc := cmdctx.New(root, fakeCreds{})
	st := newFakeStore()

	result, err := Run(cc, st, root, testConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.FilesFailed != 1 {
		t.Errorf("FilesFailed = %d, want 1", result.FilesFailed)
	}
}

func TestLoadArpNormalizesAndDedupes(t *testing.T) {
	root := t.TempDir()
	arpDir := filepath.Join(root, "arp")
	os.MkdirAll(arpDir, 0o755)
	content := "Internet  10.0.0.5   -   AABB.CCDD.EEFF  ARPA   Gi1/0/1\n" +
		"Internet  10.0.0.5   -   AABB.CCDD.EEFF  ARPA   Gi1/0/1\n"
	os.WriteFile(filepath.Join(arpDir, "sw1.txt"), []byte(content), 0o644)

	cc := cmdctx.New(root, fakeCreds{})
	st := newFakeStore()
	st.devices["sw1"] = models.Device{ID: 1, NormalizedName: "sw1", VendorID: "cisco_ios"}

	result, err := Run(cc, st, root, testConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.FilesFailed != 0 {
		t.Fatalf("FilesFailed=%d reasons=%v", result.FilesFailed, result.Reasons)
	}
	if len(st.arp) != 1 {
		t.Fatalf("expected duplicate ARP rows within the batch to collapse to 1, got %d", len(st.arp))
	}
	if st.arp[0].MACAddress != "aa:bb:cc:dd:ee:ff" {
		t.Errorf("MACAddress = %q, want normalized colon form", st.arp[0].MACAddress)
	}
	if st.arp[0].ContextID != "" {
		t.Errorf("ContextID = %q, want empty for a capture with no VRF header", st.arp[0].ContextID)
	}
}

func TestLoadArpPopulatesVRFContext(t *testing.T) {
	root := t.TempDir()
	arpDir := filepath.Join(root, "arp")
	os.MkdirAll(arpDir, 0o755)
	content := "ARP table of VRF: mgmt\n" +
		"Internet  10.0.0.5   -   AABB.CCDD.EEFF  ARPA   Gi1/0/1\n"
	os.WriteFile(filepath.Join(arpDir, "sw1.txt"), []byte(content), 0o644)

	cc := cmdctx.New(root, fakeCreds{})
	st := newFakeStore()
	st.devices["sw1"] = models.Device{ID: 1, NormalizedName: "sw1", VendorID: "cisco_ios"}

	result, err := Run(cc, st, root, testConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.FilesFailed != 0 {
		t.Fatalf("FilesFailed=%d reasons=%v", result.FilesFailed, result.Reasons)
	}
	if len(st.arp) != 1 {
		t.Fatalf("expected 1 ARP row, got %d", len(st.arp))
	}
	if st.arp[0].ContextID != "mgmt" {
		t.Errorf("ContextID = %q, want mgmt", st.arp[0].ContextID)
	}
}
