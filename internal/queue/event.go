// Package queue defines the audit event payload exchanged over the
// message broker, the publisher that emits it and the background
// consumer that writes the audit trail.
package queue

// AuditQueueName is the durable queue all scheduling audit events flow
// through.
const AuditQueueName = "enrollment.audit"

// AuditEvent records one scheduling mutation for the audit trail.  The
// payload carries enough context for downstream consumers to log or
// notify without querying the primary database.  Extra holds the
// per-action identifiers (enrollment ids, week, quarters, offering).
type AuditEvent struct {
	Action     string                 `json:"action"`
	ActorID    uint64                 `json:"actor_id,omitempty"`
	OccurredAt string                 `json:"occurred_at"`
	Extra      map[string]interface{} `json:"extra,omitempty"`
}
