package translate

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/voxbridge/lt-engine/internal/database"
)

// CallDirectory looks up call-control state for a call id.
// Implemented by *database.DB.
type CallDirectory interface {
	GetCallLeg(ctx context.Context, callID string) (*database.CallLeg, error)
}

// BridgeRouter resolves which call record owns the transcript for a segment.
// A bridge_customer leg is a satellite of its bridge partner: every segment
// submitted against it is re-attributed to the partner so one logical
// conversation collapses onto a single transcript. The router never touches
// the target call control id; injected audio still goes to whichever physical
// leg was asked for.
type BridgeRouter struct {
	calls CallDirectory
	log   zerolog.Logger
}

func NewBridgeRouter(calls CallDirectory, log zerolog.Logger) *BridgeRouter {
	return &BridgeRouter{calls: calls, log: log}
}

// ResolveCallID returns the transcript-owning call id for the given call.
// For direct and webrtc calls the call's own id is authoritative. A lookup
// failure falls back to the submitted id rather than dropping the segment.
func (r *BridgeRouter) ResolveCallID(ctx context.Context, callID string) string {
	leg, err := r.calls.GetCallLeg(ctx, callID)
	if err != nil {
		if errors.Is(err, database.ErrCallNotFound) {
			r.log.Debug().Str("call_id", callID).Msg("call not in directory, using submitted id")
		} else {
			r.log.Warn().Err(err).Str("call_id", callID).Msg("call lookup failed, using submitted id")
		}
		return callID
	}

	if leg.FlowType == database.FlowBridgeCustomer && leg.BridgePartnerID != nil && *leg.BridgePartnerID != "" {
		r.log.Debug().
			Str("call_id", callID).
			Str("bridge_call_id", *leg.BridgePartnerID).
			Msg("re-attributing segment to bridge leg")
		return *leg.BridgePartnerID
	}

	return callID
}
