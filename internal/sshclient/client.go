// Package sshclient provides the shared SSH dial and prompt-counted
// command-sequence primitives shared by discovery, fingerprint, and
// collection; paging is disabled by sending the vendor's paging command as
// part of a sequence. ExecOnce covers one-shot probes;
// RunSequence drives an interactive shell session, reading until the
// device prompt has been observed the expected number of times.
package sshclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"time"

	"golang.org/x/crypto/ssh"
)

// Config carries everything needed to dial and authenticate to a device.
type Config struct {
	Host           string
	Port           int
	Username       string
	Password       string
	ConnectTimeout time.Duration
}

// Client wraps an authenticated SSH connection to one device.
type Client struct {
	conn *ssh.Client
}

// Dial opens an SSH connection per cfg. Host key verification is
// intentionally skipped: this system talks to operator-supplied network
// gear on a trusted management network.
func Dial(cfg Config) (*Client, error) {
	port := cfg.Port
	if port == 0 {
		port = 22
	}
	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	sshCfg := &ssh.ClientConfig{
		User:            cfg.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(cfg.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, port)
	conn, err := ssh.Dial("tcp", addr, sshCfg)
	if err != nil {
		return nil, fmt.Errorf("sshclient: dial %s@%s: %w", cfg.Username, addr, err)
	}
	return &Client{conn: conn}, nil
}

// Close tears down the underlying SSH connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// ExecOnce runs a single command in its own session and returns combined
// output. Used for simple probes (fingerprint's initial "show version")
// where no interactive prompt tracking is needed.
func (c *Client) ExecOnce(cmd string) (string, error) {
	session, err := c.conn.NewSession()
	if err != nil {
		return "", fmt.Errorf("sshclient: new session: %w", err)
	}
	defer session.Close()

	out, err := session.CombinedOutput(cmd)
	if err != nil {
		return string(out), fmt.Errorf("sshclient: exec %q: %w", cmd, err)
	}
	return string(out), nil
}

// Session is an interactive shell session used to run a command sequence
// with prompt counting, the way collection jobs expect.
type Session struct {
	sess   *ssh.Session
	stdin  io.WriteCloser
	stdout io.Reader
}

// OpenSession requests a PTY and starts an interactive shell, the form
// needed to send multiple commands ("enable", "terminal length 0", "show
// running-config") over one connection and observe the prompt between each.
func (c *Client) OpenSession() (*Session, error) {
	sess, err := c.conn.NewSession()
	if err != nil {
		return nil, fmt.Errorf("sshclient: new session: %w", err)
	}

	if err := sess.RequestPty("xterm", 200, 2000, ssh.TerminalModes{}); err != nil {
		sess.Close()
		return nil, fmt.Errorf("sshclient: request pty: %w", err)
	}

	stdin, err := sess.StdinPipe()
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("sshclient: stdin pipe: %w", err)
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("sshclient: stdout pipe: %w", err)
	}

	if err := sess.Shell(); err != nil {
		sess.Close()
		return nil, fmt.Errorf("sshclient: start shell: %w", err)
	}

	return &Session{sess: sess, stdin: stdin, stdout: stdout}, nil
}

// Close ends the interactive session.
func (s *Session) Close() error {
	return s.sess.Close()
}

// RunSequence sends each command in order, separated by a newline, and
// reads output until promptPattern has matched promptCount times, timeout
// elapses, or ctx is cancelled — the prompt-counting mechanism that avoids
// timing-based completion heuristics. Cancellation is observed between
// reads, so an in-flight command batch aborts at the next I/O boundary
// rather than running to completion. It returns every byte read so far,
// including command echo and prompts, as the raw capture.
func (s *Session) RunSequence(ctx context.Context, commands []string, promptPattern *regexp.Regexp, promptCount int, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)

	type readResult struct {
		buf []byte
		n   int
		err error
	}
	reads := make(chan readResult, 1)
	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := s.stdout.Read(buf)
			out := make([]byte, n)
			copy(out, buf[:n])
			reads <- readResult{buf: out, n: n, err: err}
			if err != nil {
				return
			}
		}
	}()

	var output bytes.Buffer
	seen := 0
	cmdIdx := 0

	// The login prompt counts as the first of promptCount occurrences;
	// sending the first queued command happens only once we've observed it.
	for seen < promptCount {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return output.String(), fmt.Errorf("sshclient: timeout waiting for prompt (seen %d of %d)", seen, promptCount)
		}

		select {
		case <-ctx.Done():
			return output.String(), ctx.Err()
		case r := <-reads:
			if r.n > 0 {
				output.Write(r.buf)
				seen += len(promptPattern.FindAll(r.buf, -1))
				if seen < promptCount && promptPattern.Match(r.buf) && cmdIdx < len(commands) {
					fmt.Fprintf(s.stdin, "%s\n", commands[cmdIdx])
					cmdIdx++
				}
			}
			if r.err != nil && r.err != io.EOF {
				return output.String(), fmt.Errorf("sshclient: read: %w", r.err)
			}
			if r.err == io.EOF {
				return output.String(), nil
			}
		case <-time.After(remaining):
			return output.String(), fmt.Errorf("sshclient: timeout waiting for prompt (seen %d of %d)", seen, promptCount)
		}
	}

	return output.String(), nil
}
