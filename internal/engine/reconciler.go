package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wardgate/wardgate-core/internal/identity"
	"github.com/wardgate/wardgate-core/internal/sensor"
)

// IdentityReader provides the identity lookup the reconciler needs for
// the active-flag check. The identity Store satisfies this.
type IdentityReader interface {
	Get(ctx context.Context, id string) (*identity.Identity, error)
}

// Reconciler combines two sensor verdicts into one Decision.
//
// Reconciliation has no side effects: it reads identity records but
// never mutates state, touches hardware, or writes logs. The same pair
// of verdicts always yields the same decision.
type Reconciler struct {
	identities IdentityReader
}

// NewReconciler creates a reconciler backed by the given identity reader.
func NewReconciler(identities IdentityReader) *Reconciler {
	return &Reconciler{identities: identities}
}

// Reconcile derives a Decision from a face verdict and a fingerprint
// verdict.
//
// The decision ladder, in order:
//
//  1. Either poll failed -> FAILED. A half-observed attempt is never
//     interpreted as a denial of a specific person.
//  2. Either factor matched nobody -> DENIED(no_match).
//  3. Factors matched different identities -> DENIED(identity_mismatch).
//     No identity is attributed; agreeing with either sensor would
//     reward a presentation attack.
//  4. The agreed identity is disabled -> DENIED(account_disabled).
//  5. Otherwise -> GRANTED with the mean factor confidence.
func (r *Reconciler) Reconcile(ctx context.Context, face, fp sensor.Verdict) Decision {
	now := time.Now().UTC()

	if face.Failed() || fp.Failed() {
		return Decision{
			Outcome:   OutcomeFailed,
			Err:       joinVerdictErrors(face, fp),
			DecidedAt: now,
		}
	}

	if !face.Matched() || !fp.Matched() {
		return Decision{
			Outcome:            OutcomeDenied,
			Reason:             ReasonNoMatch,
			FaceMatched:        face.Matched(),
			FingerprintMatched: fp.Matched(),
			DecidedAt:          now,
		}
	}

	if face.IdentityID != fp.IdentityID {
		return Decision{
			Outcome:            OutcomeDenied,
			Reason:             ReasonIdentityMismatch,
			FaceMatched:        true,
			FingerprintMatched: true,
			DecidedAt:          now,
		}
	}

	ident, err := r.identities.Get(ctx, face.IdentityID)
	if err != nil {
		// Both sensors matched an identity the store no longer knows.
		// Enrollment and sensor flash have drifted apart.
		return Decision{
			Outcome:            OutcomeFailed,
			Err:                fmt.Errorf("resolving matched identity %s: %w", face.IdentityID, err),
			FaceMatched:        true,
			FingerprintMatched: true,
			DecidedAt:          now,
		}
	}

	if !ident.Active {
		return Decision{
			Outcome:            OutcomeDenied,
			Reason:             ReasonAccountDisabled,
			IdentityID:         ident.ID,
			IdentityName:       ident.Name,
			FaceMatched:        true,
			FingerprintMatched: true,
			DecidedAt:          now,
		}
	}

	return Decision{
		Outcome:            OutcomeGranted,
		IdentityID:         ident.ID,
		IdentityName:       ident.Name,
		FaceMatched:        true,
		FingerprintMatched: true,
		Confidence:         (face.Confidence + fp.Confidence) / 2,
		DecidedAt:          now,
	}
}

// joinVerdictErrors combines failure errors from both verdicts.
func joinVerdictErrors(face, fp sensor.Verdict) error {
	var errs []error
	if face.Err != nil {
		errs = append(errs, fmt.Errorf("face: %w", face.Err))
	}
	if fp.Err != nil {
		errs = append(errs, fmt.Errorf("fingerprint: %w", fp.Err))
	}
	return errors.Join(errs...)
}
