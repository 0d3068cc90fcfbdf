package models

import "time"

// StampState names the three states a capture instant can be in.
type StampState int

const (
	StampUnresolved StampState = iota
	StampCached
	StampManual
)

func (s StampState) String() string {
	switch s {
	case StampCached:
		return "cached"
	case StampManual:
		return "manual"
	default:
		return "unresolved"
	}
}

// Stamp is a record's capture instant. It is explicitly three-state:
// unresolved, cached (derived from metadata or file times), or
// manually overridden. The cached value survives a manual override, so
// clearing the override falls back without re-deriving anything.
type Stamp struct {
	manual time.Time
	cached time.Time
}

// RestoreStamp rebuilds a stamp from persisted values. A zero time
// means the corresponding state is absent.
func RestoreStamp(manual, cached time.Time) Stamp {
	return Stamp{manual: manual, cached: cached}
}

// State reports which of the three states the stamp is in.
func (s Stamp) State() StampState {
	switch {
	case !s.manual.IsZero():
		return StampManual
	case !s.cached.IsZero():
		return StampCached
	default:
		return StampUnresolved
	}
}

// Effective returns the instant ordering should use: the manual
// override when present, otherwise the cached value. ok is false when
// the stamp is unresolved.
func (s Stamp) Effective() (t time.Time, ok bool) {
	switch {
	case !s.manual.IsZero():
		return s.manual, true
	case !s.cached.IsZero():
		return s.cached, true
	default:
		return time.Time{}, false
	}
}

// Manual returns the override instant, zero when none is set.
func (s Stamp) Manual() time.Time { return s.manual }

// Cached returns the cached automatic instant, zero when none is set.
func (s Stamp) Cached() time.Time { return s.cached }

func (s *Stamp) SetManual(t time.Time) { s.manual = t }
func (s *Stamp) ClearManual()          { s.manual = time.Time{} }
func (s *Stamp) SetCached(t time.Time) { s.cached = t }
