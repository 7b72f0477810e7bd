package diagnostics

import (
	"log"
	"os"
)

// LogHook is the default diagnostics Hook: it formats each Event through a
// *log.Logger bound to a file, mirroring the teacher's sim.LogHookBase (a
// thin wrapper around a standard-library logger, not a third-party
// structured-logging stack).
type LogHook struct {
	*log.Logger
	file *os.File
}

// NewLogHook opens (creating/truncating) path and returns a LogHook that
// writes to it. Callers should Close it on shutdown.
func NewLogHook(path string) (*LogHook, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}

	return &LogHook{
		Logger: log.New(f, "", log.LstdFlags|log.Lmicroseconds),
		file:   f,
	}, nil
}

// Func implements Hook.
func (h *LogHook) Func(ev Event) {
	if ev.Cause != nil {
		h.Printf("[%s] lba=%d %s: %v", ev.Pos.Name, ev.LogicalAddress, ev.Detail, ev.Cause)
		return
	}
	h.Printf("[%s] lba=%d %s", ev.Pos.Name, ev.LogicalAddress, ev.Detail)
}

// Close flushes and closes the backing file.
func (h *LogHook) Close() error {
	return h.file.Close()
}
