package sshclient

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/scottpeterman/velocitycmdb/internal/sshclient/sshtest"
)

func startTestServer(t *testing.T, responses map[string]string) *sshtest.Server {
	t.Helper()
	srv, err := sshtest.New("admin", "admin123", "switch1#", responses)
	if err != nil {
		t.Fatalf("sshtest.New: %v", err)
	}
	go srv.Serve()
	t.Cleanup(func() { srv.Close() })
	return srv
}

func TestDialAndExecOnce(t *testing.T) {
	srv := startTestServer(t, map[string]string{
		"show version": "Cisco IOS Software, Version 15.2(4)E10",
	})
	host, portStr, _ := net.SplitHostPort(srv.Addr)
	port, _ := strconv.Atoi(portStr)

	c, err := Dial(Config{Host: host, Port: port, Username: "admin", Password: "admin123", ConnectTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	sess, err := c.OpenSession()
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	defer sess.Close()

	out, err := sess.RunSequence(context.Background(), []string{"show version"}, regexp.MustCompile(`switch1#`), 2, 3*time.Second)
	if err != nil {
		t.Fatalf("RunSequence: %v", err)
	}
	if !strings.Contains(out, "15.2(4)E10") {
		t.Fatalf("output missing expected text: %q", out)
	}
}

func TestRunSequenceAbortsOnCancel(t *testing.T) {
	srv := startTestServer(t, nil)
	host, portStr, _ := net.SplitHostPort(srv.Addr)
	port, _ := strconv.Atoi(portStr)

	c, err := Dial(Config{Host: host, Port: port, Username: "admin", Password: "admin123", ConnectTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	sess, err := c.OpenSession()
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	defer sess.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	// promptCount 3 can never be satisfied here: the scripted server emits
	// one prompt per input line and only one command is queued, so without
	// cancellation this would block until the 30s timeout.
	start := time.Now()
	_, err = sess.RunSequence(ctx, []string{"show version"}, regexp.MustCompile(`switch1#`), 3, 30*time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("cancellation took %v, want prompt abort at the next read", time.Since(start))
	}
}

func TestDialAuthFailure(t *testing.T) {
	srv := startTestServer(t, nil)
	host, portStr, _ := net.SplitHostPort(srv.Addr)
	port, _ := strconv.Atoi(portStr)

	_, err := Dial(Config{Host: host, Port: port, Username: "admin", Password: "wrong", ConnectTimeout: 2 * time.Second})
	if err == nil {
		t.Fatalf("expected auth failure")
	}
}
