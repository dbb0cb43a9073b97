package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scottpeterman/velocitycmdb/internal/clitable"
	"github.com/scottpeterman/velocitycmdb/internal/collection"
	"github.com/scottpeterman/velocitycmdb/internal/inventory"
	"github.com/scottpeterman/velocitycmdb/internal/jobsched"
	"github.com/scottpeterman/velocitycmdb/internal/progress"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Manage named recurring collection jobs",
}

var jobCreateOpts struct {
	schedule      string
	inventoryPath string
	types         string
	autoLoadDB    bool
	enabled       bool
}

var jobCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Define a named recurring collection job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, path, err := loadSchedule()
		if err != nil {
			return newExitError(2, "job create: %v", err)
		}

		var types []string
		if jobCreateOpts.types != "" {
			for _, t := range strings.Split(jobCreateOpts.types, ",") {
				types = append(types, strings.TrimSpace(t))
			}
		}

		doc.Upsert(jobsched.Definition{
			Name:          args[0],
			Schedule:      jobCreateOpts.schedule,
			InventoryPath: jobCreateOpts.inventoryPath,
			CaptureTypes:  types,
			AutoLoadDB:    jobCreateOpts.autoLoadDB,
			Enabled:       jobCreateOpts.enabled,
		})
		if err := doc.Save(path); err != nil {
			return newExitError(2, "job create: %v", err)
		}
		fmt.Printf("job %q created\n", args[0])
		return nil
	},
}

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "List defined jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, _, err := loadSchedule()
		if err != nil {
			return newExitError(2, "job list: %v", err)
		}
		t := clitable.NewTable("NAME", "SCHEDULE", "ENABLED", "TYPES", "INVENTORY")
		for _, d := range doc.Jobs {
			enabled := "no"
			if d.Enabled {
				enabled = "yes"
			}
			t.Row(d.Name, d.Schedule, enabled, strings.Join(d.CaptureTypes, ","), d.InventoryPath)
		}
		t.Flush()
		return nil
	},
}

var jobShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Show one job's definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, _, err := loadSchedule()
		if err != nil {
			return newExitError(2, "job show: %v", err)
		}
		for _, d := range doc.Jobs {
			if d.Name == args[0] {
				fmt.Printf("name:          %s\n", d.Name)
				fmt.Printf("schedule:      %s\n", d.Schedule)
				fmt.Printf("enabled:       %v\n", d.Enabled)
				fmt.Printf("inventory:     %s\n", d.InventoryPath)
				fmt.Printf("capture_types: %s\n", strings.Join(d.CaptureTypes, ","))
				fmt.Printf("auto_load_db:  %v\n", d.AutoLoadDB)
				return nil
			}
		}
		return newExitError(1, "job show: no job named %q", args[0])
	},
}

var jobRunCmd = &cobra.Command{
	Use:   "run NAME",
	Short: "Run a defined job immediately, out of schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, _, err := loadSchedule()
		if err != nil {
			return newExitError(2, "job run: %v", err)
		}
		var def *jobsched.Definition
		for i := range doc.Jobs {
			if doc.Jobs[i].Name == args[0] {
				def = &doc.Jobs[i]
				break
			}
		}
		if def == nil {
			return newExitError(1, "job run: no job named %q", args[0])
		}

		inv, err := inventory.Load(def.InventoryPath)
		if err != nil {
			return newExitError(2, "job run: %v", err)
		}

		jobID, events, err := app.reg.Start(context.Background(), app.cc, app.st, captureRoot(app.dataDir), inv, app.cfg, collection.Options{
			CaptureTypes: def.CaptureTypes,
			AutoLoadDB:   def.AutoLoadDB,
		})
		if err != nil {
			return newExitError(2, "job run: %v", err)
		}
		fmt.Printf("job %s started from definition %q\n", jobID, def.Name)
		for ev := range events {
			printCollectEvent(ev)
			if ev.Type == progress.TypeError {
				return newExitError(1, "job run: %s", ev.Err)
			}
		}
		return nil
	},
}

var jobEnableCmd = &cobra.Command{
	Use:   "enable NAME",
	Short: "Enable a job's schedule",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setEnabled(args[0], true) },
}

var jobDisableCmd = &cobra.Command{
	Use:   "disable NAME",
	Short: "Disable a job's schedule without deleting its definition",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setEnabled(args[0], false) },
}

var jobDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a job definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, path, err := loadSchedule()
		if err != nil {
			return newExitError(2, "job delete: %v", err)
		}
		if !doc.Remove(args[0]) {
			return newExitError(1, "job delete: no job named %q", args[0])
		}
		if err := doc.Save(path); err != nil {
			return newExitError(2, "job delete: %v", err)
		}
		fmt.Printf("job %q deleted\n", args[0])
		return nil
	},
}

func setEnabled(name string, enabled bool) error {
	doc, path, err := loadSchedule()
	if err != nil {
		return newExitError(2, "job: %v", err)
	}
	for i := range doc.Jobs {
		if doc.Jobs[i].Name == name {
			doc.Jobs[i].Enabled = enabled
			if err := doc.Save(path); err != nil {
				return newExitError(2, "job: %v", err)
			}
			fmt.Printf("job %q enabled=%v\n", name, enabled)
			return nil
		}
	}
	return newExitError(1, "job: no job named %q", name)
}

func loadSchedule() (*jobsched.Document, string, error) {
	path := jobsched.DefaultPath(app.dataDir)
	doc, err := jobsched.Load(path)
	return doc, path, err
}

func init() {
	jobCreateCmd.Flags().StringVar(&jobCreateOpts.schedule, "schedule", "", "5-field cron schedule expression")
	jobCreateCmd.Flags().StringVar(&jobCreateOpts.inventoryPath, "inventory", "", "Path to the inventory file this job collects against")
	jobCreateCmd.Flags().StringVar(&jobCreateOpts.types, "types", "", "Comma-separated capture types (default: every catalog entry)")
	jobCreateCmd.Flags().BoolVar(&jobCreateOpts.autoLoadDB, "auto-load-db", true, "Run parse-and-load and change detection after each fire")
	jobCreateCmd.Flags().BoolVar(&jobCreateOpts.enabled, "enabled", true, "Enable the job immediately")

	jobCmd.AddCommand(jobCreateCmd, jobListCmd, jobShowCmd, jobRunCmd, jobEnableCmd, jobDisableCmd, jobDeleteCmd)
}
