// File: internal/api/types.go
package api

import (
	"github.com/xkilldash9x/stylelens/api/schemas"
)

// Response is the envelope of every JSON reply.
type Response struct {
	Status string      `json:"status"` // "success" or "error"
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// SnapshotsRequest carries captured elements in selection order.
type SnapshotsRequest struct {
	Elements []schemas.ElementSnapshot `json:"elements"`
}

// ValidateRequest validates elements against a profile. Expected takes precedence over
// Profile; with neither, the active profile is used.
type ValidateRequest struct {
	Elements []schemas.ElementSnapshot `json:"elements"`
	Profile  string                    `json:"profile,omitempty"`
	Expected *schemas.ExpectedProfile  `json:"expected,omitempty"`
}

// ValidateResponse is the per-element outcome of a validation.
type ValidateResponse struct {
	Profile     string                      `json:"profile"`
	Validations []schemas.ElementValidation `json:"validations"`
}

// SectionsRequest picks the analyses of an inspection. Omitted means all of them.
type SectionsRequest struct {
	Validate  bool `json:"validate"`
	Alignment bool `json:"alignment"`
	Spacing   bool `json:"spacing"`
}

// InspectRequest runs several analyses in one call.
type InspectRequest struct {
	ValidateRequest
	Source   string           `json:"source,omitempty"`
	Sections *SectionsRequest `json:"sections,omitempty"`
}

// SelectProfileRequest activates a profile by name.
type SelectProfileRequest struct {
	Name string `json:"name"`
}

// ProfilesResponse lists the available profiles in declaration order and the active one.
type ProfilesResponse struct {
	Profiles []string `json:"profiles"`
	Active   string   `json:"active,omitempty"`
}
