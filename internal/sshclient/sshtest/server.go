// Package sshtest runs an in-process SSH server backed by a scripted
// command→output table, so collection/fingerprint/discovery tests exercise
// a real golang.org/x/crypto/ssh client/server handshake rather than a
// mocked transport.
package sshtest

import (
	"bufio"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net"
	"strings"
	"sync"

	"golang.org/x/crypto/ssh"
)

// Server is a minimal SSH server that accepts one username/password pair
// and answers shell input line-by-line from a canned response table,
// echoing a fixed prompt after each response.
type Server struct {
	Addr     string
	Username string
	Password string
	Prompt   string

	// Responses maps a command (trimmed) to the output text written before
	// the next prompt. A command with no entry gets just the prompt.
	Responses map[string]string

	listener net.Listener
	signer   ssh.Signer
	wg       sync.WaitGroup
	closed   chan struct{}
}

// New starts listening on 127.0.0.1:0 and returns a Server ready to Serve.
func New(username, password, prompt string, responses map[string]string) (*Server, error) {
	signer, err := newHostKey()
	if err != nil {
		return nil, fmt.Errorf("sshtest: generating host key: %w", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("sshtest: listen: %w", err)
	}

	s := &Server{
		Addr:      ln.Addr().String(),
		Username:  username,
		Password:  password,
		Prompt:    prompt,
		Responses: responses,
		listener:  ln,
		signer:    signer,
		closed:    make(chan struct{}),
	}
	return s, nil
}

// Serve accepts connections until Close is called. Run it in a goroutine.
func (s *Server) Serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closed:
				return
			default:
				continue
			}
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// Close stops the server and waits for in-flight connections to finish.
func (s *Server) Close() error {
	close(s.closed)
	err := s.listener.Close()
	s.wg.Wait()
	return err
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	config := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == s.Username && string(pass) == s.Password {
				return nil, nil
			}
			return nil, fmt.Errorf("sshtest: invalid credentials")
		},
	}
	config.AddHostKey(s.signer)

	sConn, chans, reqs, err := ssh.NewServerConn(conn, config)
	if err != nil {
		return
	}
	defer sConn.Close()
	go ssh.DiscardRequests(reqs)

	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			newChan.Reject(ssh.UnknownChannelType, "unsupported channel type")
			continue
		}
		channel, requests, err := newChan.Accept()
		if err != nil {
			continue
		}
		go s.handleSession(channel, requests)
	}
}

func (s *Server) handleSession(channel ssh.Channel, requests <-chan *ssh.Request) {
	defer channel.Close()

	// A client either requests an interactive shell (prompt-counted command
	// sequences) or a one-shot exec (ExecOnce probes); both paths answer
	// from the same response table.
	mode := make(chan *ssh.Request, 1)
	go func() {
		for req := range requests {
			switch req.Type {
			case "pty-req":
				if req.WantReply {
					req.Reply(true, nil)
				}
			case "shell", "exec":
				if req.WantReply {
					req.Reply(true, nil)
				}
				mode <- req
			default:
				if req.WantReply {
					req.Reply(false, nil)
				}
			}
		}
	}()

	req := <-mode
	if req.Type == "exec" {
		cmd := parseExecCommand(req.Payload)
		if out, ok := s.Responses[cmd]; ok {
			fmt.Fprint(channel, out)
		}
		channel.SendRequest("exit-status", false, []byte{0, 0, 0, 0})
		return
	}

	fmt.Fprintf(channel, "%s\n", s.Prompt)

	scanner := bufio.NewScanner(channel)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		if out, ok := s.Responses[cmd]; ok {
			fmt.Fprint(channel, out)
			if !strings.HasSuffix(out, "\n") {
				fmt.Fprint(channel, "\n")
			}
		}
		fmt.Fprintf(channel, "%s\n", s.Prompt)
	}
}

// parseExecCommand extracts the command string from an exec request payload
// (a uint32 length followed by that many bytes).
func parseExecCommand(payload []byte) string {
	if len(payload) < 4 {
		return ""
	}
	n := binary.BigEndian.Uint32(payload)
	if int(n)+4 > len(payload) {
		return ""
	}
	return strings.TrimSpace(string(payload[4 : 4+n]))
}

func newHostKey() (ssh.Signer, error) {
	// A deterministic-size random key is sufficient for an ephemeral test
	// server; there is no key persistence or host verification involved.
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	return ssh.NewSignerFromKey(ed25519KeyFromSeed(raw))
}
