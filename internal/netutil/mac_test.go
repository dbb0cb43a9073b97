package netutil

import "testing"

func TestNormalizeMAC(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"cisco dotted", "aabb.ccdd.eeff", "aa:bb:cc:dd:ee:ff", false},
		{"standard colon", "aa:bb:cc:dd:ee:ff", "aa:bb:cc:dd:ee:ff", false},
		{"hp packed", "aabbcc-ddeeff", "aa:bb:cc:dd:ee:ff", false},
		{"uppercase", "AA:BB:CC:DD:EE:FF", "aa:bb:cc:dd:ee:ff", false},
		{"too short", "aa:bb:cc", "", true},
		{"invalid char", "aa:bb:cc:dd:ee:zz", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeMAC(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("NormalizeMAC(%q) = %q, want error", tc.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeMAC(%q) unexpected error: %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("NormalizeMAC(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeMACRoundTrip(t *testing.T) {
	inputs := []string{"aabb.ccdd.eeff", "AA:BB:CC:DD:EE:FF", "aabbcc-ddeeff"}
	for _, in := range inputs {
		first, err := NormalizeMAC(in)
		if err != nil {
			t.Fatalf("NormalizeMAC(%q): %v", in, err)
		}
		second, err := NormalizeMAC(first)
		if err != nil {
			t.Fatalf("NormalizeMAC(%q) (second pass): %v", first, err)
		}
		if first != second {
			t.Fatalf("normalize not idempotent: %q != %q", first, second)
		}
	}
}

func TestNormalizeIPv4(t *testing.T) {
	if _, err := NormalizeIPv4("not-an-ip"); err == nil {
		t.Fatalf("expected error for invalid IP")
	}
	got, err := NormalizeIPv4("10.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "10.0.0.1" {
		t.Fatalf("got %q, want 10.0.0.1", got)
	}
}
