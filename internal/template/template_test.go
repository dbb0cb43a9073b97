package template

import "testing"

func TestFilterListOrdering(t *testing.T) {
	got := FilterList("hp_procurve", "show system info")
	want := []string{
		"hp_procurve_show_system_info",
		"hp_procurve_show_system",
		"show_system_info",
		"show_system",
		"show",
	}
	if len(got) != len(want) {
		t.Fatalf("FilterList returned %d candidates, want %d: %v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i] != w {
			t.Fatalf("FilterList()[%d] = %q, want %q (full list %v)", i, got[i], w, got)
		}
	}
}

func TestBestRejectsBelowThreshold(t *testing.T) {
	db := NewBuiltinDB()
	_, err := db.Best([]string{"cisco_ios_show_version"}, "nothing useful here", 20)
	if err == nil {
		t.Fatalf("expected rejection for unrelated output")
	}
}

func TestBestSelectsCiscoIOSVersion(t *testing.T) {
	db := NewBuiltinDB()
	output := "Cisco IOS Software, C3560 Software, Version 15.2(4)E10\n" +
		"Model Number          : WS-C3560X-24T-L\n" +
		"System Serial Number  : FOC1234X5YZ\n"

	filterList := FilterList("cisco_ios", "show version")
	res, err := db.Best(filterList, output, 1)
	if err != nil {
		t.Fatalf("Best() error: %v", err)
	}
	if res.Template != "cisco_ios_show_version" {
		t.Fatalf("selected template %q, want cisco_ios_show_version", res.Template)
	}
	if got := res.SoftwareVersion(); got != "15.2(4)E10" {
		t.Fatalf("SoftwareVersion() = %q, want 15.2(4)E10", got)
	}
	if got := res.Serial(); got != "FOC1234X5YZ" {
		t.Fatalf("Serial() = %q, want FOC1234X5YZ", got)
	}
}

func TestSoftwareVersionExcludesHardwareVersion(t *testing.T) {
	r := Result{Values: map[string][]string{
		"HW_VERSION": {"A0"},
		"VERSION":    {"12.1"},
	}}
	if got := r.SoftwareVersion(); got != "12.1" {
		t.Fatalf("SoftwareVersion() = %q, want 12.1 (HW_VERSION must be excluded)", got)
	}
}

func TestAnyTrackedPartialSuccess(t *testing.T) {
	r := Result{Values: map[string][]string{"SERIAL_NUMBER": {"XYZ"}}}
	if !r.AnyTracked() {
		t.Fatalf("AnyTracked() = false, want true for partial field extraction")
	}
	empty := Result{}
	if empty.AnyTracked() {
		t.Fatalf("AnyTracked() = true for empty result, want false")
	}
}
