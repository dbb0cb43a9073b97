// Package cmdctx carries the data-dir paths, template database, credential
// source, and logger that every subsystem needs, as one explicit value
// passed down the call stack. This replaces the global-singleton pattern
// (package-level mutable logger, module-level template engine) with a
// struct a caller constructs once in main and threads through — no
// process-wide mutable state beyond the logging package's shared sink.
package cmdctx

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/scottpeterman/velocitycmdb/internal/logging"
	"github.com/scottpeterman/velocitycmdb/internal/template"
)

// Context bundles the dependencies shared across the discovery,
// fingerprint, collection, change-archive, and parse-and-load layers. It
// is not a
// context.Context itself (it carries no cancellation); a context.Context
// for cancellation is passed alongside it as a normal function parameter.
type Context struct {
	// DataDir is the base directory for databases, captures, and diffs.
	DataDir string

	// Templates is the shared template database used by fingerprinting and
	// capture parsing.
	Templates *template.DB

	// Credentials resolves username/password pairs by index (CRED_N_*).
	Credentials CredentialSource

	// Log is this run's logger entry, pre-populated with any ambient
	// fields (job_id, component) relevant to the current call chain.
	Log *logrus.Entry
}

// CredentialSource resolves injected credentials by index, per the
// environment-variable injection scheme (CRED_N_USER / CRED_N_PASS).
type CredentialSource interface {
	Credential(index int) (username, password string, ok bool)
}

// New builds a root Context for dataDir with a fresh builtin template
// database and the process logger.
func New(dataDir string, creds CredentialSource) *Context {
	return &Context{
		DataDir:     dataDir,
		Templates:   template.NewBuiltinDB(),
		Credentials: creds,
		Log:         logging.Logger.WithField("component", "velocitycmdb"),
	}
}

// WithOperation returns a derived Context whose Log is scoped to operation.
// The receiver is left unmodified.
func (c *Context) WithOperation(operation string) *Context {
	cp := *c
	cp.Log = c.Log.WithField("operation", operation)
	return &cp
}

// WithJob returns a derived Context whose Log is scoped to jobID.
func (c *Context) WithJob(jobID string) *Context {
	cp := *c
	cp.Log = c.Log.WithField("job_id", jobID)
	return &cp
}

// ctxKey is unexported so no other package can collide with it when storing
// a *Context inside a context.Context (used only at the boundary where a
// stdlib API, such as an HTTP handler, requires context.Context).
type ctxKey struct{}

// Into stores c inside a standard context.Context for APIs that require one.
func Into(parent context.Context, c *Context) context.Context {
	return context.WithValue(parent, ctxKey{}, c)
}

// From retrieves a *Context previously stored with Into.
func From(ctx context.Context) (*Context, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Context)
	return c, ok
}
