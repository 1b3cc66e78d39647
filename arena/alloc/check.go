package alloc

import (
	"errors"
	"fmt"

	"github.com/joshuapare/heapkit/arena/verify"
	"github.com/joshuapare/heapkit/internal/layout"
)

// Check rules reported in CheckError.Rule.
const (
	RuleSentinel = "sentinel" // end block does not reach the top of the arena
	RuleBounds   = "bounds"   // list member outside the arena or malformed
	RuleTag      = "tag"      // list member marked used
	RuleRange    = "range"    // list member outside its tier's payload range
	RuleLinks    = "links"    // pred/succ asymmetry, head with a predecessor, or a cycle
	RuleWalk     = "walk"     // arena walk found a structural violation
)

// CheckError reports an internal consistency violation.
type CheckError struct {
	Tier    string // Tier name, or "" for arena-wide rules
	Rule    string
	Offset  int
	Message string
}

func (e *CheckError) Error() string {
	if e.Tier != "" {
		return fmt.Sprintf("alloc: check failed [%s/%s] at 0x%X: %s", e.Tier, e.Rule, e.Offset, e.Message)
	}
	return fmt.Sprintf("alloc: check failed [%s] at 0x%X: %s", e.Rule, e.Offset, e.Message)
}

// Check validates the end block sentinel and, for each tier, that every
// member is free, in range, and linked symmetrically from a head with no
// predecessor. It never mutates the arena and returns a *CheckError.
func (a *Allocator) Check() error {
	data := a.g.Bytes()

	if len(data) == 0 {
		if a.end != layout.None {
			return &CheckError{Rule: RuleSentinel, Offset: a.end, Message: "end block set on an empty arena"}
		}
	} else {
		if a.end < 0 || a.end+layout.UsedHeaderSize > len(data) {
			return &CheckError{Rule: RuleSentinel, Offset: a.end, Message: "end block outside arena"}
		}
		if got, want := a.end+layout.Size(data, a.end), a.g.Hi()+1; got != want {
			return &CheckError{
				Rule:    RuleSentinel,
				Offset:  a.end,
				Message: fmt.Sprintf("end block reaches %d, arena ends at %d", got, want),
			}
		}
	}

	// A list longer than the arena could hold must contain a cycle.
	limit := len(data) / layout.MinBlockSize
	for t := range a.heads {
		tier := layout.Tier(t)
		prev := layout.None
		n := 0
		for cur := a.heads[t]; cur != layout.None; cur = layout.Succ(data, cur) {
			if n++; n > limit {
				return &CheckError{Tier: tier.String(), Rule: RuleLinks, Offset: cur, Message: "cycle in free list"}
			}
			h, err := layout.Read(data, cur)
			if err != nil {
				return &CheckError{Tier: tier.String(), Rule: RuleBounds, Offset: cur, Message: fmt.Sprintf("bad member: %v", err)}
			}
			if h.Used {
				return &CheckError{Tier: tier.String(), Rule: RuleTag, Offset: cur, Message: "member is marked used"}
			}
			if !tier.Contains(h.Size) {
				return &CheckError{
					Tier:    tier.String(),
					Rule:    RuleRange,
					Offset:  cur,
					Message: fmt.Sprintf("size %d belongs to the %s tier", h.Size, layout.TierOfFree(h.Size)),
				}
			}
			if h.Pred != prev {
				msg := fmt.Sprintf("pred is %d, expected %d", h.Pred, prev)
				if prev == layout.None {
					msg = fmt.Sprintf("head has predecessor %d", h.Pred)
				}
				return &CheckError{Tier: tier.String(), Rule: RuleLinks, Offset: cur, Message: msg}
			}
			prev = cur
		}
	}
	return nil
}

// verifyIfEnabled runs Check and a full arena walk in verification mode.
// Any violation is fatal.
func (a *Allocator) verifyIfEnabled(op string) {
	if !a.check {
		return
	}
	err := a.Check()
	if err == nil {
		data := a.g.Bytes()
		if werr := verify.AllInvariants(data, a.end); werr != nil {
			err = walkError(werr)
		} else if werr := verify.FreeListCoverage(data, a.heads); werr != nil {
			err = walkError(werr)
		}
	}
	if err != nil {
		a.log.Error("consistency check failed", "op", op, "err", err)
		panic(err)
	}
}

func walkError(err error) *CheckError {
	ce := &CheckError{Rule: RuleWalk, Offset: -1, Message: err.Error()}
	var ve *verify.ValidationError
	if errors.As(err, &ve) {
		ce.Offset = ve.Offset
	}
	return ce
}
