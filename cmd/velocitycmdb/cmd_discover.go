package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/scottpeterman/velocitycmdb/internal/audit"
	"github.com/scottpeterman/velocitycmdb/internal/discovery"
	"github.com/scottpeterman/velocitycmdb/internal/inventory"
	"github.com/scottpeterman/velocitycmdb/internal/models"
)

var discoverOpts struct {
	seed     string
	username string
	password string
	site     string
	maxDepth int
	timeout  time.Duration
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Crawl CDP/LLDP neighbors from a seed device and write an inventory + topology",
	RunE: func(cmd *cobra.Command, args []string) error {
		if discoverOpts.seed == "" {
			return newExitError(2, "discover: --seed is required")
		}
		if discoverOpts.username == "" {
			return newExitError(2, "discover: --username is required")
		}

		result, err := discovery.Run(context.Background(), app.cc, discoverOpts.seed, discovery.Options{
			Username:      discoverOpts.username,
			Password:      discoverOpts.password,
			SiteName:      discoverOpts.site,
			MaxDepth:      discoverOpts.maxDepth,
			PerHopTimeout: discoverOpts.timeout,
		})
		if err != nil {
			if strings.Contains(err.Error(), "unable to authenticate") {
				return newExitError(2, "discover: authentication to seed %s failed: %v", discoverOpts.seed, err)
			}
			return newExitError(1, "discover: seed %s unreachable: %v", discoverOpts.seed, err)
		}

		inv, err := inventory.Load(result.InventoryPath)
		if err != nil {
			return newExitError(2, "discover: reloading inventory: %v", err)
		}
		for _, s := range inv.AllSessions() {
			if _, err := app.st.UpsertDiscoveredDevice(models.Device{
				Name:           s.Name,
				NormalizedName: s.NormalizedName(),
				ManagementIP:   s.IP,
				SiteID:         discoverOpts.site,
				SourceSystem:   "discovery",
			}); err != nil {
				return newExitError(2, "discover: recording device %s: %v", s.Name, err)
			}
		}

		ev := audit.NewEvent(audit.EventTypeDiscovery, "").
			WithJob(result.JobID).
			WithMessage(fmt.Sprintf("discovered %d device(s), %d failed peer(s)", result.DeviceCount, len(result.FailedPeers))).
			WithSuccess()
		if err := audit.Log(ev); err != nil {
			app.cc.Log.WithError(err).Warn("discover: audit log write failed")
		}

		fmt.Printf("discovered %d device(s)\n", result.DeviceCount)
		fmt.Printf("  inventory: %s\n", result.InventoryPath)
		fmt.Printf("  topology:  %s\n", result.TopologyPath)
		if len(result.FailedPeers) > 0 {
			fmt.Printf("  %d peer(s) failed SSH and were skipped: %v\n", len(result.FailedPeers), result.FailedPeers)
		}
		return nil
	},
}

func init() {
	discoverCmd.Flags().StringVar(&discoverOpts.seed, "seed", "", "Seed device IP address")
	discoverCmd.Flags().StringVar(&discoverOpts.username, "username", "", "SSH username")
	discoverCmd.Flags().StringVar(&discoverOpts.password, "password", "", "SSH password")
	discoverCmd.Flags().StringVar(&discoverOpts.site, "site", "", "Site name for the discovered devices' folder grouping")
	discoverCmd.Flags().IntVar(&discoverOpts.maxDepth, "max-depth", 0, "Maximum BFS hop count (0 = unlimited)")
	discoverCmd.Flags().DurationVar(&discoverOpts.timeout, "timeout", 15*time.Second, "Per-hop SSH timeout")
}
