package event

import (
	"encoding/json"

	"github.com/stakewatch/passport-node/pkg/pubsub"
)

const (
	// VerificationFinalizedEvent is published when a session reaches a terminal state
	VerificationFinalizedEvent = "verificationFinalized"
	// SnapshotRefreshedEvent is published when the monitor stores a fresh validator snapshot
	SnapshotRefreshedEvent = "snapshotRefreshed"
)

// VerificationFinalized defines the verificationFinalized data
type VerificationFinalized struct {
	SessionID    string `json:"sessionID"`
	SubjectID    string `json:"subjectID"`
	Status       string `json:"status"`
	RoleAssigned bool   `json:"roleAssigned"`
}

// Marshal marshals the event into a pubsub.Message
func (ev *VerificationFinalized) Marshal() (msg pubsub.Message, err error) {
	return json.Marshal(ev)
}

// Unmarshal creates an event from that message
func (ev *VerificationFinalized) Unmarshal(msg pubsub.Message) error {
	return json.Unmarshal(msg, &ev)
}

// SnapshotRefreshed defines the snapshotRefreshed data
type SnapshotRefreshed struct {
	PendingBlockNumber uint64 `json:"pendingBlockNumber"`
	ProvenBlockNumber  uint64 `json:"provenBlockNumber"`
	CurrentEpoch       uint64 `json:"currentEpoch"`
	Validators         int    `json:"validators"`
}

// Marshal marshals the event into a pubsub.Message
func (ev *SnapshotRefreshed) Marshal() (msg pubsub.Message, err error) {
	return json.Marshal(ev)
}

// Unmarshal creates an event from that message
func (ev *SnapshotRefreshed) Unmarshal(msg pubsub.Message) error {
	return json.Unmarshal(msg, &ev)
}
