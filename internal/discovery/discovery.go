// Package discovery implements BFS crawling over CDP/LLDP neighbors
// from a seed device, producing an inventory and a topology document.
package discovery

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scottpeterman/velocitycmdb/internal/cmdctx"
	"github.com/scottpeterman/velocitycmdb/internal/inventory"
	"github.com/scottpeterman/velocitycmdb/internal/sshclient"
	"github.com/scottpeterman/velocitycmdb/internal/template"
)

// Options configures a discovery run.
type Options struct {
	Username      string
	Password      string
	SiteName      string
	MaxDepth      int           // 0 means unlimited
	PerHopTimeout time.Duration // defaults to 15s
}

// Neighbor is one parsed CDP/LLDP neighbor record.
type Neighbor struct {
	Name         string
	IP           string
	LocalIntf    string
	RemoteIntf   string
	Source       string // "lldp" or "cdp"
	PlatformHint string
}

// Result is returned once a crawl completes.
type Result struct {
	JobID         string
	InventoryPath string
	TopologyPath  string
	DeviceCount   int
	FailedPeers   []string
}

const maxConsecutiveFailures = 3

type queueEntry struct {
	name         string
	ip           string
	hops         int
	platformHint string
}

// Run performs a BFS crawl from seedIP, writing the resulting inventory and
// topology under cc.DataDir/discovery/. It is stateless across runs: two
// runs over an unchanged network produce the same device set by
// normalized name.
func Run(ctx context.Context, cc *cmdctx.Context, seedIP string, opts Options) (Result, error) {
	jobID := uuid.NewString()
	log := cc.WithJob(jobID).Log

	perHop := opts.PerHopTimeout
	if perHop == 0 {
		perHop = 15 * time.Second
	}

	visited := make(map[string]bool)
	failCounts := make(map[string]int)
	var failedPeers []string
	var edges []inventory.Edge
	inv := &inventory.Inventory{}

	queue := []queueEntry{{name: seedIP, ip: seedIP, hops: 0}}
	deviceCount := 0

	for len(queue) > 0 {
		select {
		case <-ctx.Done():
			return Result{}, fmt.Errorf("discovery: cancelled: %w", ctx.Err())
		default:
		}

		entry := queue[0]
		queue = queue[1:]

		if visited[strings.ToLower(entry.name)] {
			continue
		}
		if opts.MaxDepth > 0 && entry.hops > opts.MaxDepth {
			continue
		}

		neighbors, hostname, probeErr := probe(cc.Templates, entry.ip, opts.Username, opts.Password, perHop)
		if probeErr != nil {
			failCounts[entry.ip]++
			log.WithError(probeErr).WithField("ip", entry.ip).Warn("discovery probe failed")
			if failCounts[entry.ip] >= maxConsecutiveFailures {
				failedPeers = append(failedPeers, entry.name)
			} else {
				queue = append(queue, entry)
			}
			continue
		}

		normalized := strings.ToLower(hostname)
		visited[normalized] = true
		deviceCount++

		inv.Upsert(folderFor(opts.SiteName), inventory.Session{
			Name:     hostname,
			IP:       entry.ip,
			Port:     22,
			Platform: entry.platformHint,
		})

		for _, n := range neighbors {
			edges = append(edges, inventory.Edge{
				LocalDevice:  hostname,
				LocalIntf:    n.LocalIntf,
				NeighborName: n.Name,
				NeighborIP:   n.IP,
				NeighborIntf: n.RemoteIntf,
				Source:       n.Source,
			})

			if n.IP == "" {
				// Recorded in topology but not enqueued: no management IP
				// to reach it with.
				continue
			}
			if visited[strings.ToLower(n.Name)] {
				continue
			}
			queue = append(queue, queueEntry{name: n.Name, ip: n.IP, hops: entry.hops + 1, platformHint: n.PlatformHint})
		}
	}

	invPath := fmt.Sprintf("%s/discovery/sessions.yaml", cc.DataDir)
	topoPath := fmt.Sprintf("%s/discovery/network.json", cc.DataDir)

	if err := inventory.Save(invPath, inv); err != nil {
		return Result{}, fmt.Errorf("discovery: saving inventory: %w", err)
	}
	if err := inventory.SaveTopology(topoPath, &inventory.Topology{Edges: edges, FailedPeers: failedPeers}); err != nil {
		return Result{}, fmt.Errorf("discovery: saving topology: %w", err)
	}

	return Result{
		JobID:         jobID,
		InventoryPath: invPath,
		TopologyPath:  topoPath,
		DeviceCount:   deviceCount,
		FailedPeers:   failedPeers,
	}, nil
}

func folderFor(site string) string {
	if site == "" {
		return "default"
	}
	return site
}

// probe connects to ip, runs a hostname probe plus LLDP/CDP neighbor
// commands, and returns the parsed neighbor list. LLDP output is preferred
// over CDP when both are present, per the discovery tie-break rule.
func probe(db *template.DB, ip, user, pass string, timeout time.Duration) ([]Neighbor, string, error) {
	client, err := sshclient.Dial(sshclient.Config{Host: ip, Username: user, Password: pass, ConnectTimeout: timeout})
	if err != nil {
		return nil, "", fmt.Errorf("discovery: dial %s: %w", ip, err)
	}
	defer client.Close()

	hostnameOut, err := client.ExecOnce("show version")
	if err != nil {
		return nil, "", fmt.Errorf("discovery: probe %s: %w", ip, err)
	}
	hostname := extractHostname(hostnameOut, ip)

	lldpOut, lldpErr := client.ExecOnce("show lldp neighbors detail")
	if lldpErr == nil && strings.TrimSpace(lldpOut) != "" {
		if neighbors := parseLLDP(db, lldpOut); len(neighbors) > 0 {
			return neighbors, hostname, nil
		}
	}

	cdpOut, cdpErr := client.ExecOnce("show cdp neighbors detail")
	if cdpErr == nil {
		return parseCDP(db, cdpOut), hostname, nil
	}

	return nil, hostname, nil
}

var hostnamePromptRe = regexp.MustCompile(`(?m)^([\w.\-]+)[#>]\s*$`)

func extractHostname(output, fallback string) string {
	if m := hostnamePromptRe.FindStringSubmatch(output); len(m) == 2 {
		return m[1]
	}
	return fallback
}

// Neighbor-table parsing is a template-scored extraction like fingerprint
// and capture parsing: each dash-delimited neighbor block is scored against
// the template database through the standard filter list, so alternative
// output dialects are handled by registering another template, not by
// editing parser code.
var (
	lldpFilterList = template.FilterList("generic", "show lldp neighbors detail")
	cdpFilterList  = template.FilterList("generic", "show cdp neighbors detail")

	blockSeparator = regexp.MustCompile(`(?m)^-{4,}\s*$`)
)

func parseLLDP(db *template.DB, output string) []Neighbor {
	return parseNeighborBlocks(db, lldpFilterList, output, "lldp")
}

func parseCDP(db *template.DB, output string) []Neighbor {
	return parseNeighborBlocks(db, cdpFilterList, output, "cdp")
}

func parseNeighborBlocks(db *template.DB, filterList []string, output, source string) []Neighbor {
	var out []Neighbor
	for _, block := range blockSeparator.Split(output, -1) {
		best, err := db.Best(filterList, block, 1)
		if err != nil {
			continue
		}
		name := best.Value("NEIGHBOR_NAME")
		if name == "" {
			continue
		}
		out = append(out, Neighbor{
			Name:         name,
			IP:           best.Value("MGMT_ADDRESS"),
			LocalIntf:    best.Value("LOCAL_INTERFACE"),
			RemoteIntf:   best.Value("NEIGHBOR_INTERFACE"),
			Source:       source,
			PlatformHint: best.Value("PLATFORM"),
		})
	}
	return out
}
