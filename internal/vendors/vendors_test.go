package vendors

import "testing"

func TestDetectFromOutput(t *testing.T) {
	cases := []struct {
		output string
		want   ID
	}{
		{"Cisco IOS Software, C3560 Software...", CiscoIOS},
		{"Arista Networks EOS version 4.28.0F", AristaEOS},
		{"Hostname: OS: JUNOS 20.4R3.8", JuniperJunos},
		{"Image stamp:    /code/build/...", Unknown},
		{"image stamp:    /code/build/...", HPProcurve},
		{"total nonsense output", Unknown},
	}
	for _, tc := range cases {
		if got := DetectFromOutput(tc.output); got != tc.want {
			t.Errorf("DetectFromOutput(%q) = %q, want %q", tc.output, got, tc.want)
		}
	}
}

func TestLookupFallsBackToUnknown(t *testing.T) {
	p := Lookup(ID("nonexistent_vendor"))
	if p.ID != Unknown {
		t.Fatalf("Lookup(nonexistent) = %+v, want Unknown profile", p)
	}
}
