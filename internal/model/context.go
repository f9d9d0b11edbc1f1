// Package model defines the derived context snapshot, ambient info values,
// and the versioned aggregate records the scope hierarchy emits.
package model

// Context is an immutable snapshot of the active identifiers, computed
// top-down from the scope tree on every request. Scopes read it through
// their parent; they never mutate it.
type Context struct {
	ApplicationID string `json:"application_id"`
	SessionID     string `json:"session_id"`
	ViewID        string `json:"view_id,omitempty"`
	ViewName      string `json:"view_name,omitempty"`
	ViewURL       string `json:"view_url,omitempty"`
	ActionID      string `json:"action_id,omitempty"`
}

// UserInfo is the ambient user identity, read at emission time only.
type UserInfo struct {
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Email string         `json:"email,omitempty"`
	Extra map[string]any `json:"extra,omitempty"`
}

// NetworkInfo is the ambient network state, read at emission time only.
type NetworkInfo struct {
	Connectivity string `json:"connectivity,omitempty"`
	CarrierName  string `json:"carrier_name,omitempty"`
	CellularTech string `json:"cellular_technology,omitempty"`
}
