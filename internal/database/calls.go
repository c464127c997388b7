package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// Call flow types as reported by the telephony control plane.
const (
	FlowDirect         = "direct"
	FlowBridge         = "bridge"
	FlowBridgeCustomer = "bridge_customer"
	FlowWebRTC         = "webrtc"
)

// ErrCallNotFound is returned when a call id has no row.
var ErrCallNotFound = errors.New("call not found")

// CallLeg is the call-control view of a call consumed by the translation
// pipeline. A bridge_customer leg points at its bridge partner via
// BridgePartnerID.
type CallLeg struct {
	ID              string
	OrganizationID  string
	FlowType        string
	CallControlID   string
	BridgePartnerID *string
	Status          string
}

// GetCallLeg returns the call-control fields for one call.
func (db *DB) GetCallLeg(ctx context.Context, callID string) (*CallLeg, error) {
	var c CallLeg
	err := db.Pool.QueryRow(ctx, `
		SELECT id, organization_id, flow_type, call_control_id, bridge_partner_id, status
		FROM calls
		WHERE id = $1
	`, callID).Scan(
		&c.ID, &c.OrganizationID, &c.FlowType, &c.CallControlID, &c.BridgePartnerID, &c.Status,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCallNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpsertCallLeg records or refreshes a call leg from the control plane feed.
func (db *DB) UpsertCallLeg(ctx context.Context, c *CallLeg) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO calls (id, organization_id, flow_type, call_control_id, bridge_partner_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			flow_type = EXCLUDED.flow_type,
			call_control_id = EXCLUDED.call_control_id,
			bridge_partner_id = EXCLUDED.bridge_partner_id,
			status = EXCLUDED.status
	`, c.ID, c.OrganizationID, c.FlowType, c.CallControlID, c.BridgePartnerID, c.Status)
	return err
}

// SetCallStatus updates the status of a call leg.
func (db *DB) SetCallStatus(ctx context.Context, callID, status string) error {
	_, err := db.Pool.Exec(ctx, `UPDATE calls SET status = $2 WHERE id = $1`, callID, status)
	return err
}
