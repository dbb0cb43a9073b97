package collection

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scottpeterman/velocitycmdb/internal/cmdctx"
	"github.com/scottpeterman/velocitycmdb/internal/config"
	"github.com/scottpeterman/velocitycmdb/internal/errs"
	"github.com/scottpeterman/velocitycmdb/internal/inventory"
	"github.com/scottpeterman/velocitycmdb/internal/models"
	"github.com/scottpeterman/velocitycmdb/internal/progress"
	"github.com/scottpeterman/velocitycmdb/internal/sshclient/sshtest"
)

type fakeCreds struct{}

func (fakeCreds) Credential(int) (string, string, bool) { return "", "", false }

func startServer(t *testing.T, responses map[string]string) (host string, port int) {
	t.Helper()
	srv, err := sshtest.New("admin", "admin123", "sw1#", responses)
	if err != nil {
		t.Fatalf("sshtest.New: %v", err)
	}
	go srv.Serve()
	t.Cleanup(func() { srv.Close() })

	h, p, _ := net.SplitHostPort(srv.Addr)
	port, _ = strconv.Atoi(p)
	return h, port
}

func TestCollectOneWritesCaptureFile(t *testing.T) {
	host, port := startServer(t, map[string]string{
		"show running-config": "hostname sw1\ninterface Gi1/0/1\n",
	})

	root := t.TempDir()
	cc := cmdctx.New(root, fakeCreds{})
	sess := inventory.Session{Name: "sw1", IP: host, Port: port, Vendor: "cisco_ios"}

	res := collectOne(context.Background(), cc, sess, root, Options{
		PerDeviceTO:  5 * time.Second,
		CaptureTypes: []string{"configs"},
		Username:     "admin", Password: "admin123",
	})
	if !res.ok {
		t.Fatalf("collectOne failed: %s", res.message)
	}

	data, err := os.ReadFile(filepath.Join(root, "configs", "sw1.txt"))
	if err != nil {
		t.Fatalf("reading capture file: %v", err)
	}
	if len(data) == 0 {
		t.Errorf("expected non-empty captured config")
	}
}

type fakeStore struct {
	devices map[string]models.Device
}

func (f *fakeStore) DeviceByNormalizedName(name string) (models.Device, error) {
	d, ok := f.devices[name]
	if !ok {
		return models.Device{}, errs.ErrNotFound
	}
	return d, nil
}
func (f *fakeStore) UpsertCaptureCurrent(models.CaptureCurrent) error    { return nil }
func (f *fakeStore) ReplaceComponents(int64, []models.Component) error   { return nil }
func (f *fakeStore) InsertArpEntry(models.ArpEntry) error                { return nil }
func (f *fakeStore) LatestSnapshot(int64, string) (models.CaptureSnapshot, error) {
	return models.CaptureSnapshot{}, errs.ErrNotFound
}
func (f *fakeStore) InsertSnapshot(models.CaptureSnapshot) (int64, error) { return 1, nil }
func (f *fakeStore) InsertChange(models.CaptureChange) (int64, error)     { return 1, nil }

func TestRegistryStartEmitsJobLifecycleEvents(t *testing.T) {
	host, port := startServer(t, map[string]string{
		"show running-config": "hostname sw1\n",
	})

	root := t.TempDir()
	cc := cmdctx.New(root, fakeCreds{})
	inv := &inventory.Inventory{}
	inv.Upsert("default", inventory.Session{Name: "sw1", IP: host, Port: port, Vendor: "cisco_ios"})

	st := &fakeStore{devices: map[string]models.Device{"sw1": {ID: 1, NormalizedName: "sw1"}}}
	reg := NewRegistry()

	_, events, err := reg.Start(context.Background(), cc, st, root, inv, config.Default(), Options{
		PerDeviceTO: 5 * time.Second, CaptureTypes: []string{"configs"},
		AutoLoadDB: true, Username: "admin", Password: "admin123",
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	var types []progress.Type
	deadline := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				goto done
			}
			types = append(types, ev.Type)
		case <-deadline:
			t.Fatal("timed out waiting for job to complete")
		}
	}
done:
	if len(types) == 0 {
		t.Fatal("expected at least one progress event")
	}
	if types[0] != progress.TypeJobStart {
		t.Errorf("first event = %v, want job_start", types[0])
	}
	if last := types[len(types)-1]; last != progress.TypeSummary {
		t.Errorf("last event = %v, want summary", last)
	}
}

func TestCancelUnknownJobReturnsError(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Cancel("nonexistent"); err == nil {
		t.Error("expected error cancelling unknown job")
	}
}

func TestCollectOneShortCircuitsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	root := t.TempDir()
	cc := cmdctx.New(root, fakeCreds{})
	sess := inventory.Session{Name: "sw1", IP: "192.0.2.1", Vendor: "cisco_ios"}

	res := collectOne(ctx, cc, sess, root, Options{CaptureTypes: []string{"configs"}})
	require.False(t, res.ok)
	require.Equal(t, "cancelled", res.message)
}

func TestCancelledJobStillCompletesEveryDevice(t *testing.T) {
	root := t.TempDir()
	cc := cmdctx.New(root, fakeCreds{})
	inv := &inventory.Inventory{}
	for i := 0; i < 5; i++ {
		inv.Upsert("default", inventory.Session{Name: fmt.Sprintf("sw%d", i), IP: "192.0.2.1", Vendor: "cisco_ios"})
	}

	st := &fakeStore{devices: map[string]models.Device{}}
	reg := NewRegistry()

	jobID, events, err := reg.Start(context.Background(), cc, st, root, inv, config.Default(), Options{
		MaxWorkers: 2, PerDeviceTO: 2 * time.Second,
		CaptureTypes: []string{"configs"}, Username: "admin", Password: "admin123",
	})
	require.NoError(t, err)
	require.NoError(t, reg.Cancel(jobID))

	completes, summaries := 0, 0
	deadline := time.After(30 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				require.Equal(t, 5, completes, "every started device must receive device_complete")
				require.Equal(t, 1, summaries, "exactly one summary event")
				return
			}
			switch ev.Type {
			case progress.TypeDeviceComplete:
				completes++
				require.NotNil(t, ev.Success)
				require.False(t, *ev.Success)
			case progress.TypeSummary:
				summaries++
				require.Equal(t, 5, ev.DevicesFailed)
			}
		case <-deadline:
			t.Fatal("timed out waiting for cancelled job to drain")
		}
	}
}
