// Package trace reads, writes, generates and replays allocation traces.
//
// A trace file has four header lines followed by one operation per line:
//
//	<suggested heap size>
//	<number of ids>
//	<number of operations>
//	<weight>
//	a <id> <size>     allocate size bytes and bind them to id
//	r <id> <size>     resize the block bound to id
//	f <id>            release the block bound to id
//
// Replay drives an allocator through a trace, filling every payload with an
// id-derived pattern and verifying alignment, bounds, non-overlap and content
// preservation as it goes.
package trace

import "fmt"

// OpKind identifies a trace operation.
type OpKind byte

const (
	OpAlloc   OpKind = 'a'
	OpRealloc OpKind = 'r'
	OpFree    OpKind = 'f'
)

func (k OpKind) String() string {
	switch k {
	case OpAlloc:
		return "alloc"
	case OpRealloc:
		return "realloc"
	case OpFree:
		return "free"
	default:
		return fmt.Sprintf("OpKind(%q)", byte(k))
	}
}

// Op is one trace line.
type Op struct {
	Kind OpKind
	ID   int
	Size int // Unused for OpFree
}

// Trace is a parsed allocation trace.
type Trace struct {
	HeapHint int // Suggested heap size; informational
	NumIDs   int
	Weight   int
	Ops      []Op
}

// Validate checks that ids are in range and that every free and realloc
// refers to an id that is currently bound. A realloc to size zero unbinds
// its id.
func (t *Trace) Validate() error {
	bound := make([]bool, t.NumIDs)
	for i, op := range t.Ops {
		if op.ID < 0 || op.ID >= t.NumIDs {
			return fmt.Errorf("%w: op %d: id %d out of range [0,%d)", ErrSyntax, i, op.ID, t.NumIDs)
		}
		if op.Size < 0 {
			return fmt.Errorf("%w: op %d: negative size %d", ErrSyntax, i, op.Size)
		}
		switch op.Kind {
		case OpAlloc:
			if bound[op.ID] {
				return fmt.Errorf("%w: op %d: id %d allocated twice", ErrSyntax, i, op.ID)
			}
			bound[op.ID] = true
		case OpRealloc:
			if !bound[op.ID] {
				return fmt.Errorf("%w: op %d: realloc of unbound id %d", ErrSyntax, i, op.ID)
			}
			if op.Size == 0 {
				bound[op.ID] = false
			}
		case OpFree:
			if !bound[op.ID] {
				return fmt.Errorf("%w: op %d: free of unbound id %d", ErrSyntax, i, op.ID)
			}
			bound[op.ID] = false
		default:
			return fmt.Errorf("%w: op %d: unknown kind %q", ErrSyntax, i, byte(op.Kind))
		}
	}
	return nil
}
