package fingerprint

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/scottpeterman/velocitycmdb/internal/cmdctx"
	"github.com/scottpeterman/velocitycmdb/internal/inventory"
	"github.com/scottpeterman/velocitycmdb/internal/sshclient/sshtest"
	"github.com/scottpeterman/velocitycmdb/internal/template"
)

type fakeCreds struct{}

func (fakeCreds) Credential(int) (string, string, bool) { return "", "", false }

func TestFingerprintOneCiscoIOS(t *testing.T) {
	srv, err := sshtest.New("admin", "admin123", "sw1#", map[string]string{
		"show version": "Cisco IOS Software, C3560 Software, Version 15.2(4)E10\n" +
			"System Serial Number  : FOC1234X5YZ\n",
	})
	if err != nil {
		t.Fatalf("sshtest.New: %v", err)
	}
	go srv.Serve()
	defer srv.Close()

	host, portStr, _ := net.SplitHostPort(srv.Addr)
	port, _ := strconv.Atoi(portStr)

	cc := cmdctx.New(t.TempDir(), fakeCreds{})
	sess := inventory.Session{Name: "sw1", IP: host, Port: port}

	res := fingerprintOne(cc, sess, "admin", "admin123", 3*time.Second, 1)
	if res.Failed {
		t.Fatalf("fingerprintOne failed: %s", res.Reason)
	}
	if got := res.Result.Serial(); got != "FOC1234X5YZ" {
		t.Errorf("Serial() = %q, want FOC1234X5YZ", got)
	}
}

func TestMergeResultsFillsGaps(t *testing.T) {
	a := template.Result{Values: map[string][]string{"SOFTWARE_VERSION": {"1.0"}}}
	b := template.Result{Values: map[string][]string{"SERIAL_NUMBER": {"XYZ"}, "SOFTWARE_VERSION": {"ignored"}}}
	merged := mergeResults(a, b)
	if merged.SoftwareVersion() != "1.0" {
		t.Errorf("SoftwareVersion() = %q, want 1.0 (a should win)", merged.SoftwareVersion())
	}
	if merged.Serial() != "XYZ" {
		t.Errorf("Serial() = %q, want XYZ (filled from b)", merged.Serial())
	}
}
