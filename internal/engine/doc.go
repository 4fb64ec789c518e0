// Package engine implements the multi-factor authentication decision
// pipeline and the continuous loop that drives it.
//
// One authentication attempt flows through four stages:
//
//  1. Both sensor capabilities are polled concurrently, bounded by the
//     attempt window.
//  2. The Reconciler combines the two verdicts into a single Decision:
//     access requires both factors to agree on the same active identity.
//  3. The LockoutPolicy suppresses identities (and the anonymous
//     "unknown" bucket) that have accumulated too many consecutive
//     failures.
//  4. A granted decision unlocks the door; every completed attempt is
//     written to the audit trail regardless of outcome.
//
// The Engine's Run loop isolates iteration faults: a panic or error in
// one attempt never takes the loop down. Cancellation is graceful;
// the in-flight attempt completes and is logged before Run returns.
package engine
