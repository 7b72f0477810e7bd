// Package diagnostics carries the FTL's observational event stream: the
// diagnostic lines describing the path a translation took, written to the
// configured log file, plus an optional durable trace sink for offline
// analysis. None of it is consulted by the translator — it is strictly an
// observer, built on the same Hookable/Hook shape used elsewhere for
// instrumentation.
package diagnostics

// Pos names a point in the translate/clean/remap/shuffle state machine at
// which a hook may be invoked.
type Pos struct{ Name string }

// Positions the FTL invokes hooks at.
var (
	PosFirstTimeWrite = &Pos{Name: "FirstTimeWrite"}
	PosLogAppend      = &Pos{Name: "LogAppend"}
	PosCleanStart     = &Pos{Name: "CleanStart"}
	PosCleanDone      = &Pos{Name: "CleanDone"}
	PosRemapData      = &Pos{Name: "RemapData"}
	PosRemapLog       = &Pos{Name: "RemapLog"}
	PosShuffle        = &Pos{Name: "Shuffle"}
	PosReadHit        = &Pos{Name: "ReadHit"}
	PosFailure        = &Pos{Name: "Failure"}
)

// Event is what gets passed to a hook at each Pos.
type Event struct {
	Pos            *Pos
	LogicalAddress uint64
	Detail         string
	Cause          error
}

// Hook is something that can be invoked with a diagnostics Event.
type Hook interface {
	Func(ev Event)
}

// Hookable is anything that accepts hooks and can invoke them.
type Hookable interface {
	AcceptHook(h Hook)
	InvokeHook(ev Event)
}

// Base provides the common bookkeeping for a Hookable: a list of registered
// hooks and a way to fan an Event out to all of them.
type Base struct {
	hooks []Hook
}

// AcceptHook registers a hook.
func (b *Base) AcceptHook(h Hook) {
	b.hooks = append(b.hooks, h)
}

// NumHooks reports how many hooks are registered.
func (b *Base) NumHooks() int {
	return len(b.hooks)
}

// InvokeHook fans ev out to every registered hook.
func (b *Base) InvokeHook(ev Event) {
	for _, h := range b.hooks {
		h.Func(ev)
	}
}
