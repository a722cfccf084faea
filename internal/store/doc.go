// Package store provides SQLite persistence for handoff-gateway.
//
// # Durable Entities
//
// Only two entities are durable:
//
//   - users: the local authorization directory, keyed by email. The
//     gateway reads it during the handoff; administrative tooling writes
//     it out-of-band.
//
//   - seen_nonces: one row per assertion nonce ever presented, keyed by
//     the nonce itself. Rows are created exactly once and never updated;
//     a retention sweep garbage-collects old rows.
//
// Sessions are deliberately not stored: session tokens are stateless and
// self-validating.
//
// # Replay Atomicity
//
// RecordNonce is a bare INSERT whose outcome is decided by the primary
// key constraint. This is the one operation in the gateway that must be
// atomic under concurrent callers: of two simultaneous presentations of
// the same nonce, exactly one insert lands. A read-then-write
// implementation would reintroduce the race this exists to prevent.
package store
