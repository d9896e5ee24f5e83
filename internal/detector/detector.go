package detector

import (
	"fmt"
	"strings"

	"lockgraphx/internal/graph"
	"lockgraphx/internal/snapshot"
)

const (
	mutexKind       = "Mutex"
	defaultLockKind = "MongoDB lock"
	unknownName     = "[unknown]"
)

// Source is the introspection collaborator: something that can enumerate
// the live threads of the inspected process and report what each one is
// blocked on. A per-thread inspection failure must not abort the whole
// pass; the detector logs it and continues with the remaining threads.
type Source interface {
	EnumerateThreads() ([]snapshot.Thread, error)
	InspectThread(t snapshot.Thread) ([]snapshot.Wait, error)
}

// StructuralError reports a wait fact whose endpoints cannot be resolved to
// any node at all. It aborts the current detection pass; the caller is free
// to retry with a fresh snapshot.
type StructuralError struct {
	Thread snapshot.Thread
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural violation inspecting %s (LWP %d): %s",
		e.Thread.Name, e.Thread.LWPID, e.Reason)
}

// Report is the outcome of one detection pass.
type Report struct {
	Graph *graph.Graph
	// Cycle holds the nodes of the detected deadlock cycle in wait order,
	// or nil if the graph is acyclic.
	Cycle []*graph.Entry
	// Summary is the one-line cycle verdict. Empty when Empty is true.
	Summary string
	// Diagnostics are non-fatal conditions observed during the pass:
	// skipped threads, holders substituted by placeholders.
	Diagnostics []string
	// Empty reports that no wait relationship survived pruning, so there
	// is nothing to render.
	Empty bool
}

// CycleKeys returns the keys of the cycle nodes, for render highlighting.
func (r *Report) CycleKeys() map[string]bool {
	keys := make(map[string]bool, len(r.Cycle))
	for _, entry := range r.Cycle {
		keys[entry.Node.Key()] = true
	}
	return keys
}

// Build runs one graph construction pass over src: every observed wait fact
// becomes a waiter -> lock edge and a lock -> holder edge in a fresh graph.
// The returned diagnostics describe threads that were skipped and holders
// that had to be synthesized. A StructuralError aborts the pass.
func Build(src Source) (*graph.Graph, []string, error) {
	threads, err := src.EnumerateThreads()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to enumerate threads: %w", err)
	}

	byLWP := make(map[int]snapshot.Thread, len(threads))
	byID := make(map[uint64]snapshot.Thread, len(threads))
	for _, t := range threads {
		byLWP[t.LWPID] = t
		byID[t.ThreadID] = t
	}

	g := graph.New()
	var diags []string

	for _, t := range threads {
		waits, err := src.InspectThread(t)
		if err != nil {
			diags = append(diags, fmt.Sprintf(
				"Ignoring introspection error '%v' for %s (LWP %d)", err, t.Name, t.LWPID))
			continue
		}

		waiter := threadNode(t)
		for _, w := range waits {
			lock, holder, diag, err := resolveWait(t, w, byLWP, byID)
			if err != nil {
				return nil, diags, err
			}
			if diag != "" {
				diags = append(diags, diag)
			}
			g.AddEdge(waiter, lock)
			g.AddEdge(lock, holder)
		}
	}

	return g, diags, nil
}

// resolveWait turns one wait fact into its lock node and holder node. A
// holder that is absent from the thread enumeration is substituted by a
// placeholder built from the best available raw identifier, so partial
// information never fails the pass.
func resolveWait(t snapshot.Thread, w snapshot.Wait, byLWP map[int]snapshot.Thread, byID map[uint64]snapshot.Thread) (*graph.LockNode, *graph.ThreadNode, string, error) {
	if w.Address == 0 {
		return nil, nil, "", &StructuralError{Thread: t, Reason: "wait fact has no resource address"}
	}

	switch w.Type {
	case snapshot.WaitMutex:
		lock := &graph.LockNode{Address: w.Address, Kind: mutexKind}
		if holder, ok := byLWP[w.HolderLWPID]; ok {
			return lock, threadNode(holder), "", nil
		}
		diag := fmt.Sprintf(
			"Warning: Mutex at 0x%012x held by thread with LWP %d not found in snapshot. Using LWP to track thread.",
			w.Address, w.HolderLWPID)
		placeholder := &graph.ThreadNode{
			ThreadID: uint64(w.HolderLWPID),
			LWPID:    w.HolderLWPID,
			Name:     unknownName,
		}
		return lock, placeholder, diag, nil

	case snapshot.WaitLock:
		kind := w.Kind
		if kind == "" {
			kind = defaultLockKind
		}
		lock := &graph.LockNode{Address: w.Address, Kind: kind}
		if holder, ok := byID[w.HolderThreadID]; ok {
			return lock, threadNode(holder), "", nil
		}
		diag := fmt.Sprintf(
			"Warning: %s at 0x%012x held by thread 0x%012x not found in snapshot. Using raw thread id to track thread.",
			kind, w.Address, w.HolderThreadID)
		placeholder := &graph.ThreadNode{
			ThreadID: w.HolderThreadID,
			Name:     unknownName,
		}
		return lock, placeholder, diag, nil

	default:
		return nil, nil, "", &StructuralError{
			Thread: t,
			Reason: fmt.Sprintf("unknown wait fact type %q", w.Type),
		}
	}
}

// Detect performs exactly one detection pass over src: build the waits-for
// graph, prune the uncontended nodes, and look for a deadlock cycle. It
// never retries; a caller wanting a fresher verdict must invoke it again
// with a new snapshot.
func Detect(src Source) (*Report, error) {
	g, diags, err := Build(src)
	if err != nil {
		return nil, err
	}

	g.PruneIsolated()

	rep := &Report{Graph: g, Diagnostics: diags}
	if g.IsEmpty() {
		rep.Empty = true
		return rep, nil
	}

	if cycle := g.DetectCycle(); cycle != nil {
		labels := make([]string, len(cycle))
		for i, entry := range cycle {
			labels[i] = entry.Node.String()
		}
		rep.Cycle = cycle
		rep.Summary = fmt.Sprintf("Cycle detected in the graph nodes [%s]", strings.Join(labels, ", "))
	} else {
		rep.Summary = "No cycle detected in the graph"
	}

	return rep, nil
}

// Facts lists the observed wait relationships as human-readable lines
// without building a graph, for quick inspection of a snapshot.
func Facts(src Source) ([]string, []string, error) {
	threads, err := src.EnumerateThreads()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to enumerate threads: %w", err)
	}

	byLWP := make(map[int]snapshot.Thread, len(threads))
	byID := make(map[uint64]snapshot.Thread, len(threads))
	for _, t := range threads {
		byLWP[t.LWPID] = t
		byID[t.ThreadID] = t
	}

	var lines, diags []string
	for _, t := range threads {
		waits, err := src.InspectThread(t)
		if err != nil {
			diags = append(diags, fmt.Sprintf(
				"Ignoring introspection error '%v' for %s (LWP %d)", err, t.Name, t.LWPID))
			continue
		}

		waiter := threadNode(t)
		for _, w := range waits {
			lock, holder, diag, err := resolveWait(t, w, byLWP, byID)
			if err != nil {
				return nil, diags, err
			}
			if diag != "" {
				diags = append(diags, diag)
			}
			switch w.Type {
			case snapshot.WaitMutex:
				lines = append(lines, fmt.Sprintf(
					"Mutex at 0x%012x held by %s waited on by %s", w.Address, holder, waiter))
			case snapshot.WaitLock:
				lines = append(lines, fmt.Sprintf(
					"%s at 0x%012x (%s) held by %s waited on by %s",
					lock.Kind, w.Address, w.Mode, holder, waiter))
			}
		}
	}

	return lines, diags, nil
}

func threadNode(t snapshot.Thread) *graph.ThreadNode {
	return &graph.ThreadNode{ThreadID: t.ThreadID, LWPID: t.LWPID, Name: t.Name}
}
