package ingest

// callStartMessage announces a call leg entering translation. For bridged
// calls each leg announces itself with its partner's call id so transcript
// attribution can follow the bridge.
type callStartMessage struct {
	CallID          string `json:"call_id"`
	OrganizationID  string `json:"organization_id"`
	FlowType        string `json:"flow_type"`
	CallControlID   string `json:"call_control_id,omitempty"`
	BridgePartnerID string `json:"bridge_partner_id,omitempty"`
}

// callEndMessage announces a call leg hanging up.
type callEndMessage struct {
	CallID        string `json:"call_id"`
	CallControlID string `json:"call_control_id,omitempty"`
}
