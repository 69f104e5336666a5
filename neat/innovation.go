package neat

import "sync"

// InnovationRegistry hands out historical markers for connections. Two genes
// joining the same ordered pair of nodes anywhere in a run share one
// innovation number. The registry lives for one run and never shrinks.
//
// All access goes through a single mutex so that concurrent mutation calls
// creating the same connection observe the same number.
type InnovationRegistry struct {
	mu          sync.Mutex
	innovations map[ConnectionKey]int
	next        int
}

// NewInnovationRegistry creates an empty registry. The first connection
// registered receives innovation number 0.
func NewInnovationRegistry() *InnovationRegistry {
	return &InnovationRegistry{innovations: make(map[ConnectionKey]int)}
}

// LookupOrCreate returns the innovation number of the source->target
// connection, registering it with the next free number if it is new.
func (r *InnovationRegistry) LookupOrCreate(source, target int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ConnectionKey{InNodeID: source, OutNodeID: target}
	if innov, ok := r.innovations[key]; ok {
		return innov
	}
	innov := r.next
	r.innovations[key] = innov
	r.next++
	return innov
}

// Len returns the number of registered connections.
func (r *InnovationRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.innovations)
}

// RegistrySnapshot is the serializable state of an InnovationRegistry.
type RegistrySnapshot struct {
	Innovations map[ConnectionKey]int
	Next        int
}

// Snapshot copies the registry state for checkpointing.
func (r *InnovationRegistry) Snapshot() RegistrySnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	innovations := make(map[ConnectionKey]int, len(r.innovations))
	for k, v := range r.innovations {
		innovations[k] = v
	}
	return RegistrySnapshot{Innovations: innovations, Next: r.next}
}

// RestoreInnovationRegistry rebuilds a registry from a snapshot.
func RestoreInnovationRegistry(s RegistrySnapshot) *InnovationRegistry {
	r := NewInnovationRegistry()
	for k, v := range s.Innovations {
		r.innovations[k] = v
		if v >= r.next {
			r.next = v + 1
		}
	}
	if s.Next > r.next {
		r.next = s.Next
	}
	return r
}
