package verifier

import (
	"fmt"

	"github.com/capiscio/badgecheck/pkg/revocation"
	"github.com/capiscio/badgecheck/pkg/signing"
	"github.com/capiscio/badgecheck/pkg/state"
	"github.com/capiscio/badgecheck/pkg/tasks"
	"github.com/capiscio/badgecheck/pkg/validate"
)

func (r *run) verifyJWS(st state.State, p tasks.VerifyJWS) Outcome {
	if p.KeyID == "" {
		return failf("Signed assertion %s does not name a verification key", p.NodeID)
	}
	key, err := st.Graph.NodeByID(p.KeyID)
	if err != nil {
		return blockedOn(p.KeyID, err)
	}
	pem, ok := key.String("publicKeyPem")
	if !ok || pem == "" {
		return failf("Key %s has no publicKeyPem", p.KeyID)
	}

	// Ownership is checked whatever the signature outcome.
	ownership := addTask(tasks.VerifyKeyOwnership{NodeID: p.NodeID, KeyID: p.KeyID})
	if _, err := signing.Verify(p.Token, pem); err != nil {
		return fail(fmt.Sprintf("Signature for %s could not be verified with key %s: %v", p.NodeID, p.KeyID, err), ownership)
	}
	return succeed(fmt.Sprintf("Signature for %s verified with key %s", p.NodeID, p.KeyID), ownership)
}

func (r *run) verifyKeyOwnership(st state.State, p tasks.VerifyKeyOwnership) Outcome {
	issuer, out := lookup(st.Graph, p.NodeID, "badge", "issuer")
	if out != nil {
		return out
	}
	key, err := st.Graph.NodeByID(p.KeyID)
	if err != nil {
		return blockedOn(p.KeyID, err)
	}

	var actions []state.Action
	if list, ok := issuer.String("revocationList"); ok && list != "" {
		var opts []tasks.Option
		if !st.Graph.Has(list) {
			if !st.Tasks.Exists(tasks.NodeKey(list)) {
				actions = append(actions, addTask(tasks.FetchHTTPNode{
					URL:           list,
					ExpectedClass: string(validate.RevocationList),
					Depth:         1,
				}, keyed(list)...))
			}
			opts = append(opts, tasks.WithPrerequisites(tasks.NodeKey(list)))
		}
		actions = append(actions, addTask(tasks.VerifySignedAssertionNotRevoked{
			NodeID:           p.NodeID,
			RevocationListID: list,
		}, opts...))
	}

	declared := false
	for _, k := range issuer.Strings("publicKey") {
		if k == p.KeyID {
			declared = true
			break
		}
	}
	if !declared {
		return fail(fmt.Sprintf("Signing key %s is not declared by issuer %s", p.KeyID, issuer.ID()), actions...)
	}
	if owner, ok := key.String("owner"); ok && owner != issuer.ID() {
		return fail(fmt.Sprintf("Signing key %s is owned by %s, not issuer %s", p.KeyID, owner, issuer.ID()), actions...)
	}
	return succeed(fmt.Sprintf("Signing key %s belongs to issuer %s", p.KeyID, issuer.ID()), actions...)
}

func (r *run) verifyNotRevoked(st state.State, p tasks.VerifySignedAssertionNotRevoked) Outcome {
	list, err := st.Graph.NodeByID(p.RevocationListID)
	if err != nil {
		return blockedOn(p.RevocationListID, err)
	}

	var entries []revocation.Entry
	for _, prop := range []string{"revokedAssertions", "revoked"} {
		if v, ok := list.Get(prop); ok {
			entries = append(entries, revocation.ParseEntries(v)...)
		}
	}
	entries = revocation.FillReasons(entries, st.Graph)

	entry, revoked := revocation.Find(entries, p.NodeID)
	if !revoked {
		return succeedf("Assertion %s is not in revocation list %s", p.NodeID, p.RevocationListID)
	}
	reason := entry.Reason
	if reason == "" {
		reason = "no reason given"
	}
	return failf("Assertion %s has been revoked: %s", p.NodeID, reason)
}

func (r *run) verifyGone(st state.State, p tasks.VerifyGoneRevocation) Outcome {
	node, err := st.Graph.NodeByID(p.NodeID)
	if err != nil {
		return failf("Assertion %s is gone (HTTP 410) and is treated as revoked", p.NodeID)
	}
	if revoked, _ := node["revoked"].(bool); revoked {
		reason, _ := node.String("revocationReason")
		if reason == "" {
			reason = "no reason given"
		}
		return failf("Assertion %s is gone (HTTP 410) and has been revoked: %s", p.NodeID, reason)
	}
	return warn(fmt.Sprintf("Assertion %s returned HTTP 410 Gone but is not marked revoked", p.NodeID))
}
