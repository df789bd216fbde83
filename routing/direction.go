package routing

import (
	"github.com/adrianbrink/routing/identity"
	"github.com/adrianbrink/routing/internal/logger"
	"github.com/adrianbrink/routing/xorname"
)

// DirectionPolicy resolves the Open Question of §9 ("direction check
// softening"): the engine always computes whether it is strictly
// closer to a destination than the hop it received a message from
// (I4), but whether a failing check actually drops the message is
// configurable. The original stub only logs; Enforce is offered for
// deployments that have fixed the underlying routing-table gap the
// original's authors flagged.
type DirectionPolicy int

const (
	// DirectionLog computes the predicate and logs violations but still
	// forwards the message. This is the default, matching the
	// original's stubbed behaviour (§9).
	DirectionLog DirectionPolicy = iota
	// DirectionEnforce drops messages that fail the direction check.
	DirectionEnforce
)

// checkDirection implements I4: when dst is not in our close group,
// forwarding towards it from hopName is only valid if self is
// strictly closer to dst.Name than hopName is.
func (e *Engine) checkDirection(dst identity.Authority, hopName xorname.Name) bool {
	target := dst.TargetName()
	closer := xorname.CloserTo(e.self, hopName, target)
	if !closer {
		e.log.Warn("direction check failed",
			logger.String("target", target.String()),
			logger.String("hop", hopName.String()),
			logger.String("policy", e.directionPolicy.String()),
		)
	}

	switch e.directionPolicy {
	case DirectionEnforce:
		return closer
	default:
		return true
	}
}

func (p DirectionPolicy) String() string {
	if p == DirectionEnforce {
		return "enforce"
	}
	return "log"
}
