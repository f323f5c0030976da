package arena

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// Constructor builds a fresh variant instance for one session.
type Constructor func() Variant

// Registry owns the session type constructors and the live sessions.
// Like the sessions themselves it runs on the single controlling
// goroutine and carries no locks.
type Registry struct {
	deps  Deps
	types map[string]Constructor
	live  []*Session
}

// NewRegistry creates an empty registry over the application context.
func NewRegistry(deps Deps) *Registry {
	return &Registry{
		deps:  deps,
		types: make(map[string]Constructor),
	}
}

// RegisterType installs a session type at startup. Registering the
// same type twice is a programming error.
func (r *Registry) RegisterType(typ string, ctor Constructor) {
	if _, ok := r.types[typ]; ok {
		panic(fmt.Sprintf("session type %s is already registered", typ))
	}

	r.types[typ] = ctor
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.types))
	for typ := range r.types {
		out = append(out, typ)
	}
	sort.Strings(out)

	return out
}

// LoadOrCreate constructs the named session, reading its settings
// record or creating it with defaults. The name must not be loaded
// yet and the type must be registered.
func (r *Registry) LoadOrCreate(name, typ string) (*Session, error) {
	if existing := r.FindByName(name); existing != nil {
		return nil, fmt.Errorf("session %s is already loaded", name)
	}

	ctor, ok := r.types[typ]
	if !ok {
		return nil, fmt.Errorf("unknown session type %s", typ)
	}

	s, err := New(name, ctor(), r.deps)
	if err != nil {
		return nil, err
	}

	r.live = append(r.live, s)
	r.deps.Log.Info("session loaded",
		zap.String("session", name),
		zap.String("type", typ))

	return s, nil
}

// LoadAll loads every session found under the settings directory,
// detecting each record's type. Records with unknown types are
// skipped with a logged error.
func (r *Registry) LoadAll() error {
	names, err := r.deps.Store.List("arenas")
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	for _, record := range names {
		name := strings.TrimPrefix(record, "arenas/")

		typ, err := DetectType(r.deps.Store, name)
		if err != nil {
			r.deps.Log.Error("skipping unreadable session record",
				zap.String("session", name),
				zap.Error(err))
			continue
		}

		if _, err := r.LoadOrCreate(name, typ); err != nil {
			r.deps.Log.Error("skipping session",
				zap.String("session", name),
				zap.Error(err))
		}
	}

	return nil
}

// Remove force-stops the session if running, deletes its settings
// record and drops it from the live list. The session must not be
// used afterwards.
func (r *Registry) Remove(s *Session) error {
	if s.Phase() != PhaseStopped {
		s.Stop(StopPlugin)
	}

	if err := r.deps.Store.Delete(settingsRecord(s.Name())); err != nil {
		return fmt.Errorf("delete settings for %s: %w", s.Name(), err)
	}

	for i, live := range r.live {
		if live == s {
			r.live = append(r.live[:i], r.live[i+1:]...)
			break
		}
	}

	r.deps.Log.Info("session removed", zap.String("session", s.Name()))

	return nil
}

// Sessions returns a copy of the live session list.
func (r *Registry) Sessions() []*Session {
	return append([]*Session(nil), r.live...)
}

// FindByName looks a session up case-insensitively.
func (r *Registry) FindByName(name string) *Session {
	for _, s := range r.live {
		if strings.EqualFold(s.Name(), name) {
			return s
		}
	}

	return nil
}

// FindAt returns the first session whose bounds contain the point.
// Regions are expected not to overlap; the engine does not enforce
// that.
func (r *Registry) FindAt(point mgl64.Vec3) *Session {
	for _, s := range r.live {
		if region := s.Settings().Region; region.IsWhole() && region.Contains(point) {
			return s
		}
	}

	return nil
}

// FindByHandle returns the session the handle's identity is in, nil
// when none.
func (r *Registry) FindByHandle(h Handle) *Session {
	p, ok := r.deps.Players.Find(h.ID())
	if !ok || !p.HasSession() {
		return nil
	}

	return p.Session()
}

// Tick delivers the periodic signal to every live session.
func (r *Registry) Tick() {
	for _, s := range r.Sessions() {
		s.Tick()
	}
}

// StopAll stops every non-stopped session, for reloads and shutdown.
func (r *Registry) StopAll(reason *StopReason) {
	for _, s := range r.Sessions() {
		if s.Phase() != PhaseStopped && !s.Stopping() {
			s.Stop(reason)
		}
	}
}

// HandleMove checks a moved participant against their session's
// bounds and evicts escapees. Editors may roam.
func (r *Registry) HandleMove(h Handle, to mgl64.Vec3) {
	p, ok := r.deps.Players.Find(h.ID())
	if !ok || !p.HasSession() || p.Mode() == ModeEditing {
		return
	}

	s := p.Session()
	region := s.Settings().Region
	if !region.IsWhole() || region.Contains(to) {
		return
	}

	s.Leave(p, LeaveEscape)
}

// HandleDisconnect evicts a disconnecting identity from its session
// and drops the cache. The spectator conversion is suppressed since
// the identity is leaving the host entirely.
func (r *Registry) HandleDisconnect(h Handle) {
	if p, ok := r.deps.Players.Find(h.ID()); ok {
		if p.HasSession() {
			p.SetLeavingHost(true)
			p.Session().Leave(p, LeaveDisconnect)
			p.SetLeavingHost(false)
		}

		r.deps.Players.Drop(h.ID())
	}
}
