package types

import "time"

const (
	EventClaimCreated         = "claim.created"
	EventClaimUpdated         = "claim.updated"
	EventClaimDeleted         = "claim.deleted"
	EventClaimReceiptAttached = "claim.receipt_attached"
)

// ClaimEvent is published to the event bus after a claim changes.
type ClaimEvent struct {
	Type          string    `json:"type"`
	ClaimID       int       `json:"claim_id"`
	ActorID       int       `json:"actor_id"`
	ActorUsername string    `json:"actor_username"`
	OccurredAt    time.Time `json:"occurred_at"`
}
