package param

import (
	"errors"

	"github.com/m-lab/paramtree/wire"
)

// ErrAlreadyStarted is returned by Register once the registry has started;
// "adding a parameter after the server has started is forbidden" (§3).
var ErrAlreadyStarted = errors.New("param: registry already started")

type pidSetter interface {
	setPID(wire.PID)
}

// Registry is the server's dense PID table plus the container tree it
// indexes (§3). PIDs are assigned in registration order starting at 0;
// callers that need the four reserved PIDs must register them first.
type Registry struct {
	root    *Container
	byPID   []Parameter
	started bool
}

// NewRegistry constructs an empty, unstarted registry with a fresh root
// container.
func NewRegistry() *Registry {
	return &Registry{root: NewRoot()}
}

// Root returns the container tree's root.
func (r *Registry) Root() *Container { return r.root }

// Started reports whether Start has been called; the PID table and schema
// are frozen from that point on.
func (r *Registry) Started() bool { return r.started }

// Start freezes the registry: no further calls to Register will succeed.
func (r *Registry) Start() { r.started = true }

// Register assigns p the next PID, appends it to the dense table, and adds
// it as a child of container. It returns ErrAlreadyStarted if the registry
// has already transitioned to started.
func (r *Registry) Register(container *Container, p Parameter) (wire.PID, error) {
	if r.started {
		return 0, ErrAlreadyStarted
	}
	pid := wire.PID(len(r.byPID))
	if s, ok := p.(pidSetter); ok {
		s.setPID(pid)
	}
	r.byPID = append(r.byPID, p)
	container.Add(p)
	return pid, nil
}

// Lookup returns the parameter at pid, or ok=false if pid is unassigned --
// the server dispatch loop turns that into ERR_PID (§4.4a).
func (r *Registry) Lookup(pid wire.PID) (Parameter, bool) {
	if int(pid) >= len(r.byPID) {
		return nil, false
	}
	return r.byPID[pid], true
}

// Count returns the number of registered parameters (the PID table's
// length).
func (r *Registry) Count() int { return len(r.byPID) }
