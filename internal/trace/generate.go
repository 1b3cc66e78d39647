package trace

import "math/rand"

// GenOptions controls random trace generation.
type GenOptions struct {
	Ops     int // Operations before the trailing frees (default 1000)
	MaxSize int // Sizes are drawn from [1, MaxSize] (default 4096)
	MaxLive int // Upper bound on simultaneously bound ids (default 256)
	Weight  int
}

func (o GenOptions) withDefaults() GenOptions {
	if o.Ops <= 0 {
		o.Ops = 1000
	}
	if o.MaxSize <= 0 {
		o.MaxSize = 4096
	}
	if o.MaxLive <= 0 {
		o.MaxLive = 256
	}
	return o
}

// Generate builds a random, valid trace. Every id is allocated once and
// released by the end of the trace. HeapHint records the peak live payload.
func Generate(rng *rand.Rand, opts GenOptions) *Trace {
	o := opts.withDefaults()
	t := &Trace{Weight: o.Weight}

	live := make([]int, 0, o.MaxLive) // bound ids
	sizes := make(map[int]int)
	cur, peak := 0, 0

	randSize := func() int { return 1 + rng.Intn(o.MaxSize) }
	unbind := func(i int) {
		live[i] = live[len(live)-1]
		live = live[:len(live)-1]
	}

	for range o.Ops {
		p := rng.Intn(100)
		switch {
		case len(live) == 0 || (p < 50 && len(live) < o.MaxLive):
			id := t.NumIDs
			t.NumIDs++
			size := randSize()
			t.Ops = append(t.Ops, Op{Kind: OpAlloc, ID: id, Size: size})
			live = append(live, id)
			sizes[id] = size
			cur += size

		case p < 70:
			id := live[rng.Intn(len(live))]
			size := randSize()
			t.Ops = append(t.Ops, Op{Kind: OpRealloc, ID: id, Size: size})
			cur += size - sizes[id]
			sizes[id] = size

		default:
			i := rng.Intn(len(live))
			id := live[i]
			t.Ops = append(t.Ops, Op{Kind: OpFree, ID: id})
			unbind(i)
			cur -= sizes[id]
			delete(sizes, id)
		}
		peak = max(peak, cur)
	}

	for _, id := range live {
		t.Ops = append(t.Ops, Op{Kind: OpFree, ID: id})
	}
	t.HeapHint = peak
	return t
}
