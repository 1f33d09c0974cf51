package verifier

import (
	"context"
	"fmt"

	"github.com/capiscio/badgecheck/pkg/state"
	"github.com/capiscio/badgecheck/pkg/tasks"
)

// handle routes a task to its handler by params type.
func (r *run) handle(ctx context.Context, st state.State, task tasks.Task) Outcome {
	switch p := task.Params.(type) {
	case tasks.DetectInputType:
		return r.detectInputType(ctx, st)
	case tasks.ProcessBakedResource:
		return r.processBakedResource(st, p)
	case tasks.FetchHTTPNode:
		return r.fetchHTTPNode(ctx, st, p)
	case tasks.IntakeJSON:
		return r.intakeJSON(p)
	case tasks.Upgrade05Node:
		return r.upgrade05(p)
	case tasks.Upgrade10Node:
		return r.upgrade10(p)
	case tasks.JSONLDCompactData:
		return r.compact(ctx, st, p)
	case tasks.Upgrade11Node:
		return r.upgrade11(st, p)
	case tasks.ValidateExtensionNode:
		return r.validateExtension(ctx, st, p)
	case tasks.DetectAndValidateNodeClass:
		return r.detectAndValidateClass(st, p)
	case tasks.ValidateExpectedNodeClass:
		return r.validateExpectedClass(st, p)
	case tasks.ValidateProperty:
		return r.validateProperty(st, p)
	case tasks.CriteriaPropertyDependencies:
		return r.criteriaDependencies(st, p)
	case tasks.ImageValidation:
		return r.validateImage(ctx, st, p)
	case tasks.AssertionTimestampChecks:
		return r.timestampChecks(st, p)
	case tasks.AssertionVerificationDependencies:
		return r.verificationDependencies(st, p)
	case tasks.HostedIDInVerificationScope:
		return r.hostedScope(st, p)
	case tasks.VerifyRecipientIdentifier:
		return r.verifyRecipient(st, p)
	case tasks.VerifyJWS:
		return r.verifyJWS(st, p)
	case tasks.VerifyKeyOwnership:
		return r.verifyKeyOwnership(st, p)
	case tasks.VerifySignedAssertionNotRevoked:
		return r.verifyNotRevoked(st, p)
	case tasks.VerifyGoneRevocation:
		return r.verifyGone(st, p)
	default:
		return Failed{Err: NewError(ErrCodeUnexpected, fmt.Sprintf("no handler for task %s", task.Name))}
	}
}
