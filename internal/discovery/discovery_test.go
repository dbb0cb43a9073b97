package discovery

import (
	"testing"

	"github.com/scottpeterman/velocitycmdb/internal/template"
)

func TestParseLLDPExtractsNeighbors(t *testing.T) {
	output := `
System Name: sw2.example.com
Management Addresses: 10.0.0.2
Local Port: Gi1/0/1
Port id: Gi1/0/24
------------------------------------------------
System Name: sw3.example.com
Management Addresses: 10.0.0.3
Local Port: Gi1/0/2
Port id: Gi1/0/48
`
	neighbors := parseLLDP(template.NewBuiltinDB(), output)
	if len(neighbors) != 2 {
		t.Fatalf("parseLLDP returned %d neighbors, want 2", len(neighbors))
	}
	if neighbors[0].Name != "sw2.example.com" || neighbors[0].IP != "10.0.0.2" {
		t.Errorf("neighbors[0] = %+v", neighbors[0])
	}
	if neighbors[1].Name != "sw3.example.com" {
		t.Errorf("neighbors[1] = %+v", neighbors[1])
	}
}

func TestParseCDPExtractsNeighbors(t *testing.T) {
	output := `
Device ID: sw4.example.com
  IP address: 10.0.0.4
Platform: cisco WS-C3560X-24,  Capabilities: Switch IGMP
Interface: GigabitEthernet1/0/3
Port ID (outgoing port): GigabitEthernet1/0/1
-------------------------
`
	neighbors := parseCDP(template.NewBuiltinDB(), output)
	if len(neighbors) != 1 {
		t.Fatalf("parseCDP returned %d neighbors, want 1", len(neighbors))
	}
	n := neighbors[0]
	if n.Source != "cdp" {
		t.Errorf("Source = %q, want cdp", n.Source)
	}
	if n.IP != "10.0.0.4" {
		t.Errorf("IP = %q, want 10.0.0.4", n.IP)
	}
	if n.PlatformHint != "cisco WS-C3560X-24" {
		t.Errorf("PlatformHint = %q, want the Platform field value", n.PlatformHint)
	}
}

func TestParseNeighborBlocksSkipsUnmatchedBlocks(t *testing.T) {
	output := `
Total entries displayed: 0
------------------------------------------------
System Name: sw9
Management Addresses: 10.0.0.9
Local Port: Gi1/0/9
Port id: Gi1/0/1
`
	neighbors := parseLLDP(template.NewBuiltinDB(), output)
	if len(neighbors) != 1 || neighbors[0].Name != "sw9" {
		t.Fatalf("neighbors = %+v, want just sw9", neighbors)
	}
}

func TestExtractHostnameFallsBackToIP(t *testing.T) {
	if got := extractHostname("garbage output with no prompt", "10.0.0.9"); got != "10.0.0.9" {
		t.Errorf("extractHostname fallback = %q, want 10.0.0.9", got)
	}
	if got := extractHostname("line one\nsw1#", "10.0.0.9"); got != "sw1" {
		t.Errorf("extractHostname = %q, want sw1", got)
	}
}
