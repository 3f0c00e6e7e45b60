package domain

import "strings"

// ValidatorSnapshot is a point-in-time read of the chain validator and
// committee state. It is recomputed wholesale on each fetch and never mutated
// in place, so it is safe to cache and share read-only.
type ValidatorSnapshot struct {
	PendingBlockNumber uint64            `json:"pendingBlockNumber"`
	ProvenBlockNumber  uint64            `json:"provenBlockNumber"`
	CurrentEpoch       uint64            `json:"currentEpoch"`
	CurrentSlot        uint64            `json:"currentSlot"`
	ProposerAddress    string            `json:"proposerAddress"`
	ValidatorAddresses []string          `json:"validatorAddresses"`
	CommitteeAddresses []string          `json:"committeeAddresses"`
	Stats              map[string]*Stats `json:"stats,omitempty"`
}

// Stats holds per-validator attestation and proposal counters as reported by
// the node over a 24h window.
type Stats struct {
	AttestationsSucceeded uint64  `json:"attestationsSucceeded"`
	AttestationsMissed    uint64  `json:"attestationsMissed"`
	BlocksProposed        uint64  `json:"blocksProposed"`
	BlocksMissed          uint64  `json:"blocksMissed"`
	MissRate              float64 `json:"missRate"`
}

// IsValidator reports whether addr belongs to the validator set. Chain
// addresses are not case-sensitive for this purpose, so both sides are
// lowercased before comparison.
func (s *ValidatorSnapshot) IsValidator(addr string) bool {
	return containsAddress(s.ValidatorAddresses, addr)
}

// IsCommitteeMember reports whether addr belongs to the current committee
func (s *ValidatorSnapshot) IsCommitteeMember(addr string) bool {
	return containsAddress(s.CommitteeAddresses, addr)
}

func containsAddress(set []string, addr string) bool {
	needle := strings.ToLower(addr)
	for _, a := range set {
		if strings.ToLower(a) == needle {
			return true
		}
	}
	return false
}
