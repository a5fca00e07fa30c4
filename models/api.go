// ABOUTME: Request and response payloads of the lead engagement REST contract
// ABOUTME: Shared by the client and the reference server so both sides agree on field names
package models

import (
	"encoding/json"

	"github.com/harperreed/engage/coerce"
	"github.com/harperreed/engage/followup"
)

type CreateLeadRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type AutoFollowupRequest struct {
	Enabled bool            `json:"enabled"`
	Config  followup.Config `json:"config"`
}

type AutoFollowupResponse = AutoFollowupRequest

type RemindersRequest struct {
	Enabled bool     `json:"enabled"`
	Times   []string `json:"times"`
}

type DefaultsRequest struct {
	Config     followup.Config `json:"config"`
	ApplyToAll bool            `json:"apply_to_all"`
}

type DefaultsResponse struct {
	Config  followup.Config `json:"config"`
	Updated int             `json:"updated,omitempty"`
}

type AIRequest struct {
	Enabled bool  `json:"enabled"`
	Paused  *bool `json:"paused,omitempty"`
}

type ResumeResponse struct {
	Lead           Lead `json:"lead"`
	PendingInbound bool `json:"pending_inbound"`
}

type InboundRequest struct {
	Body string `json:"body"`
}

// UnmarshalJSON accepts offsets as an array or as the comma-joined column, and bit-style booleans.
func (r *ReminderSettings) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Enabled = coerce.ToBool(raw["enabled"])
	r.Offsets = decodeOffsetsField(raw["offsets"])
	return nil
}
