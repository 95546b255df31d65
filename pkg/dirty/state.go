package dirty

// NodeID identifies a node in the tree the pipeline cleans.
type NodeID int32

// State is the per-node bookkeeping of the pipeline. The zero value is a
// clean node. Nodes own their State; the pipeline reaches it through Graph.
type State struct {
	dirty Set

	// Propagation recorded by Dirty and applied by flush.
	toParent         Set
	toParentCallback Set
	toChildren       Set

	// callbacks[s] lists children whose stage s changed and whose parent
	// callback for s has not run yet.
	callbacks [numStages][]NodeID

	// descendants is set when some node below this one needs cleaning.
	descendants bool
	deferred    int
	cleaning    bool
}

// Dirty returns the stages waiting to be cleaned.
func (s *State) Dirty() Set { return s.dirty }

// Deferred reports whether a batch is open on the node.
func (s *State) Deferred() bool { return s.deferred > 0 }

// Cleaning reports whether the node is being cleaned.
func (s *State) Cleaning() bool { return s.cleaning }

func (s *State) hasCallbacks() bool {
	for _, cb := range s.callbacks {
		if len(cb) > 0 {
			return true
		}
	}
	return false
}

// pending reports whether cleaning the node has anything to do.
func (s *State) pending() bool {
	return s.dirty != 0 || s.descendants || s.toChildren != 0 || s.hasCallbacks()
}

// Reset clears the state, for nodes that are being recycled.
func (s *State) Reset() { *s = State{} }
