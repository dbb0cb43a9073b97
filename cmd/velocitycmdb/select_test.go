package main

import (
	"errors"
	"testing"

	"github.com/scottpeterman/velocitycmdb/internal/inventory"
)

func testInventory() *inventory.Inventory {
	return &inventory.Inventory{
		Folders: []inventory.Folder{
			{FolderName: "nyc", Sessions: []inventory.Session{
				{Name: "sw1", Vendor: "cisco_ios"},
				{Name: "sw2", Vendor: "arista_eos"},
			}},
			{FolderName: "lax", Sessions: []inventory.Session{
				{Name: "sw3", Vendor: "cisco_ios"},
			}},
		},
	}
}

func TestSelectDevicesAll(t *testing.T) {
	out, err := selectDevices(testInventory(), "all")
	if err != nil {
		t.Fatalf("selectDevices: %v", err)
	}
	if len(out.AllSessions()) != 3 {
		t.Errorf("got %d sessions, want 3", len(out.AllSessions()))
	}
}

func TestSelectDevicesEmptyMeansAll(t *testing.T) {
	out, err := selectDevices(testInventory(), "")
	if err != nil {
		t.Fatalf("selectDevices: %v", err)
	}
	if len(out.AllSessions()) != 3 {
		t.Errorf("got %d sessions, want 3", len(out.AllSessions()))
	}
}

func TestSelectDevicesByHostnameList(t *testing.T) {
	out, err := selectDevices(testInventory(), "sw1,sw3")
	if err != nil {
		t.Fatalf("selectDevices: %v", err)
	}
	got := out.AllSessions()
	if len(got) != 2 {
		t.Fatalf("got %d sessions, want 2", len(got))
	}
}

func TestSelectDevicesByHostnameListNoMatch(t *testing.T) {
	if _, err := selectDevices(testInventory(), "nonexistent"); err == nil {
		t.Errorf("expected error for unmatched hostname list")
	}
}

func TestSelectDevicesByVendorFilter(t *testing.T) {
	out, err := selectDevices(testInventory(), "vendor=cisco_ios")
	if err != nil {
		t.Fatalf("selectDevices: %v", err)
	}
	got := out.AllSessions()
	if len(got) != 2 {
		t.Fatalf("got %d sessions, want 2", len(got))
	}
	for _, s := range got {
		if s.Vendor != "cisco_ios" {
			t.Errorf("session %s has vendor %s, want cisco_ios", s.Name, s.Vendor)
		}
	}
}

func TestSelectDevicesBySiteFilter(t *testing.T) {
	out, err := selectDevices(testInventory(), "site=lax")
	if err != nil {
		t.Fatalf("selectDevices: %v", err)
	}
	got := out.AllSessions()
	if len(got) != 1 || got[0].Name != "sw3" {
		t.Fatalf("got %+v, want just sw3", got)
	}
}

func TestSelectDevicesByCombinedFilter(t *testing.T) {
	out, err := selectDevices(testInventory(), "site=nyc,vendor=arista_eos")
	if err != nil {
		t.Fatalf("selectDevices: %v", err)
	}
	got := out.AllSessions()
	if len(got) != 1 || got[0].Name != "sw2" {
		t.Fatalf("got %+v, want just sw2", got)
	}
}

func TestSelectDevicesByFilterNoMatch(t *testing.T) {
	if _, err := selectDevices(testInventory(), "vendor=juniper_junos"); err == nil {
		t.Errorf("expected error for filter matching nothing")
	}
}

func TestSelectByFilterInvalidTerm(t *testing.T) {
	if _, err := selectByFilter(testInventory(), "notakeyvalue"); err == nil {
		t.Errorf("expected error for malformed filter term")
	}
}

func TestExitCodeForPlainError(t *testing.T) {
	if got := exitCodeFor(errors.New("boom")); got != 2 {
		t.Errorf("exitCodeFor(plain error) = %d, want 2", got)
	}
}

func TestExitCodeForCliError(t *testing.T) {
	if got := exitCodeFor(newExitError(1, "partial failure")); got != 1 {
		t.Errorf("exitCodeFor(cliError) = %d, want 1", got)
	}
}
