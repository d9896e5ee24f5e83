package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Wait fact types emitted by the debugger-side exporter.
const (
	// WaitMutex is a thread parked in a mutex lock call. The holder is
	// identified by its kernel LWP id, taken from the mutex owner field.
	WaitMutex = "mutex"
	// WaitLock is a thread queued on a higher-level lock manager resource.
	// The holder is identified by its in-process thread id.
	WaitLock = "lock"
)

// Snapshot is one point-in-time capture of the lock and mutex state of a
// paused process, as exported by the debugger-side tooling.
type Snapshot struct {
	Process string   `json:"process"`
	Threads []Thread `json:"threads"`
}

// Thread describes one live thread of the inspected process.
type Thread struct {
	ThreadID uint64 `json:"thread_id"`
	LWPID    int    `json:"lwpid"`
	Name     string `json:"name"`
	Waits    []Wait `json:"waits,omitempty"`
}

// Wait is one observed wait relationship: the owning thread is blocked on
// the resource at Address, which is held by the identified holder.
type Wait struct {
	Type           string `json:"type"`
	Address        uint64 `json:"address"`
	Kind           string `json:"kind,omitempty"`
	Mode           string `json:"mode,omitempty"`
	HolderLWPID    int    `json:"holder_lwpid,omitempty"`
	HolderThreadID uint64 `json:"holder_thread_id,omitempty"`
}

// EnumerateThreads returns the threads captured in the snapshot.
func (s *Snapshot) EnumerateThreads() ([]Thread, error) {
	return s.Threads, nil
}

// InspectThread returns the wait facts recorded for t.
func (s *Snapshot) InspectThread(t Thread) ([]Wait, error) {
	return t.Waits, nil
}

// Parse reads a snapshot from the given file, or from stdin when path is
// empty or "-".
func Parse(path string) (*Snapshot, error) {
	var data []byte
	var err error

	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot file: %w", err)
		}
	}

	return ParseFromData(data)
}

// ParseFromData unmarshals a snapshot from a byte slice.
// This is exported for testing purposes.
func ParseFromData(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot JSON: %w", err)
	}
	return &snap, nil
}
