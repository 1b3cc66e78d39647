package alloc

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

type liveBlock struct {
	size int
	seed byte
}

// Test_Fuzz_RandomAllocFreeRealloc_GuardInvariants performs random
// alloc/free/realloc with sizes in [1, 4096] and validates every invariant
// after each step.
func Test_Fuzz_RandomAllocFreeRealloc_GuardInvariants(t *testing.T) {
	for _, seed := range []int64{1, 42, 1337} {
		fa, a := newTestAllocator(t, 0, nil)
		rng := rand.New(rand.NewSource(seed)) // Fixed seed for reproducibility

		live := make(map[Ref]liveBlock)
		var refs []Ref

		pick := func() (int, Ref) {
			i := rng.Intn(len(refs))
			return i, refs[i]
		}
		drop := func(i int) {
			refs[i] = refs[len(refs)-1]
			refs = refs[:len(refs)-1]
		}

		for step := range 2000 {
			op := rng.Intn(10)
			switch {
			case op < 5 || len(refs) == 0: // Allocate
				size := 1 + rng.Intn(4096)
				ref := mustAlloc(t, fa, size)
				_, dup := live[ref]
				require.False(t, dup, "step %d: ref 0x%X handed out twice", step, ref)
				s := byte(step)
				fill(t, fa, ref, size, s)
				live[ref] = liveBlock{size: size, seed: s}
				refs = append(refs, ref)

			case op < 8: // Free
				i, ref := pick()
				b := live[ref]
				requirePattern(t, fa, ref, b.size, b.seed)
				require.NoError(t, fa.Free(ref), "step %d", step)
				delete(live, ref)
				drop(i)

			default: // Realloc
				i, ref := pick()
				b := live[ref]
				size := 1 + rng.Intn(4096)
				nref, err := fa.Realloc(ref, size)
				require.NoError(t, err, "step %d", step)
				requirePattern(t, fa, nref, min(b.size, size), b.seed)
				delete(live, ref)
				drop(i)
				// Refill so later checks cover the whole new payload.
				fill(t, fa, nref, size, b.seed)
				live[nref] = liveBlock{size: size, seed: b.seed}
				refs = append(refs, nref)
			}

			requireConsistent(t, fa)
			s := fa.Stats()
			require.LessOrEqual(t, s.InUse, int64(a.Size()), "step %d", step)
		}

		for ref, b := range live {
			requirePattern(t, fa, ref, b.size, b.seed)
			require.NoError(t, fa.Free(ref))
		}
		requireConsistent(t, fa)

		// Everything released: the arena is one free block again.
		blocks, err := fa.Blocks()
		require.NoError(t, err)
		require.Len(t, blocks, 1, "seed %d", seed)
		require.False(t, blocks[0].Used)
	}
}

// Test_Fuzz_CheckMode runs a shorter random workload with verification mode
// on, so every public call is checked internally.
func Test_Fuzz_CheckMode(t *testing.T) {
	fa, _ := newTestAllocator(t, 0, &Options{Check: true})
	rng := rand.New(rand.NewSource(7))

	var refs []Ref
	for range 500 {
		if len(refs) > 0 && rng.Intn(2) == 0 {
			i := rng.Intn(len(refs))
			require.NoError(t, fa.Free(refs[i]))
			refs[i] = refs[len(refs)-1]
			refs = refs[:len(refs)-1]
			continue
		}
		refs = append(refs, mustAlloc(t, fa, 1+rng.Intn(2048)))
	}
}
