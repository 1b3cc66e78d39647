package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Parse reads a trace from r. The number of operations must match the
// header, and the trace must pass Validate.
func Parse(r io.Reader) (*Trace, error) {
	sc := bufio.NewScanner(r)
	line := 0
	next := func() (string, bool) {
		for sc.Scan() {
			line++
			if s := strings.TrimSpace(sc.Text()); s != "" {
				return s, true
			}
		}
		return "", false
	}

	var header [4]int
	for i := range header {
		s, ok := next()
		if !ok {
			return nil, fmt.Errorf("%w: missing header line %d", ErrSyntax, i+1)
		}
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("%w: line %d: bad header value %q", ErrSyntax, line, s)
		}
		header[i] = v
	}

	t := &Trace{HeapHint: header[0], NumIDs: header[1], Weight: header[3]}
	numOps := header[2]
	t.Ops = make([]Op, 0, min(numOps, 1<<20))

	for {
		s, ok := next()
		if !ok {
			break
		}
		op, err := parseOp(s)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrSyntax, line, err)
		}
		t.Ops = append(t.Ops, op)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(t.Ops) != numOps {
		return nil, fmt.Errorf("%w: header declares %d ops, found %d", ErrSyntax, numOps, len(t.Ops))
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// ParseFile reads a trace from the named file.
func ParseFile(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func parseOp(s string) (Op, error) {
	fields := strings.Fields(s)
	var op Op
	switch fields[0] {
	case "a":
		op.Kind = OpAlloc
	case "r":
		op.Kind = OpRealloc
	case "f":
		op.Kind = OpFree
	default:
		return op, fmt.Errorf("unknown op %q", fields[0])
	}

	want := 3
	if op.Kind == OpFree {
		want = 2
	}
	if len(fields) != want {
		return op, fmt.Errorf("%s takes %d fields, got %d", op.Kind, want, len(fields))
	}

	id, err := strconv.Atoi(fields[1])
	if err != nil {
		return op, fmt.Errorf("bad id %q", fields[1])
	}
	op.ID = id
	if op.Kind != OpFree {
		size, err := strconv.Atoi(fields[2])
		if err != nil || size < 0 {
			return op, fmt.Errorf("bad size %q", fields[2])
		}
		op.Size = size
	}
	return op, nil
}

// Write encodes t in trace file format.
func Write(w io.Writer, t *Trace) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n%d\n%d\n%d\n", t.HeapHint, t.NumIDs, len(t.Ops), t.Weight)
	for _, op := range t.Ops {
		if op.Kind == OpFree {
			fmt.Fprintf(bw, "f %d\n", op.ID)
			continue
		}
		fmt.Fprintf(bw, "%c %d %d\n", byte(op.Kind), op.ID, op.Size)
	}
	return bw.Flush()
}
