// Package trust implements the six-pillar trust scorer and a thin
// orchestrator facade composing DID resolution, credential issuance and
// verification, status list revocation, and the audit log into
// end-to-end flows (spec §4.9, §4.10).
package trust

import "time"

// currentSchemaVersion is the only Declaration schema version the
// scorer accepts (SPEC_FULL.md §6 item 3).
const currentSchemaVersion = 1

// Articles is the six-article trust attestation a Declaration carries
// (spec §3 Trust Declaration).
type Articles struct {
	InspectionMandate      bool `json:"inspection_mandate"`
	ConsentArchitecture    bool `json:"consent_architecture"`
	EthicalOverride        bool `json:"ethical_override"`
	ContinuousValidation   bool `json:"continuous_validation"`
	RightToDisconnect      bool `json:"right_to_disconnect"`
	MoralRecognition       bool `json:"moral_recognition"`
}

// Declaration is a structured claim an agent makes about which trust
// articles it upholds (spec §3 Trust Declaration).
type Declaration struct {
	AgentID       string    `json:"agent_id"`
	AgentName     string    `json:"agent_name"`
	Articles      Articles  `json:"articles"`
	SchemaVersion int       `json:"schema_version,omitempty"`
	DeclaredAt    time.Time `json:"declared_at,omitempty"`
}

// effectiveSchemaVersion treats the zero value as version 1, so
// declarations built in code (rather than decoded from JSON written by
// an older client) don't need to set the field explicitly.
func (d Declaration) effectiveSchemaVersion() int {
	if d.SchemaVersion == 0 {
		return 1
	}
	return d.SchemaVersion
}
