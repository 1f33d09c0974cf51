package verifier

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/capiscio/badgecheck/pkg/graph"
	"github.com/capiscio/badgecheck/pkg/state"
	"github.com/capiscio/badgecheck/pkg/tasks"
	"github.com/capiscio/badgecheck/pkg/validate"
)

func (r *run) timestampChecks(st state.State, p tasks.AssertionTimestampChecks) Outcome {
	node, out := lookup(st.Graph, p.NodeID)
	if out != nil {
		return out
	}

	issuedRaw, _ := node.String("issuedOn")
	issued, err := time.Parse(time.RFC3339Nano, issuedRaw)
	if err != nil {
		// Property validation reports a missing or malformed issuedOn.
		return succeedf("Timestamp checks skipped for %s: issuedOn is not a valid date", p.NodeID)
	}
	if issued.After(r.now) {
		return failf("Assertion %s has an issue date in the future: %s", p.NodeID, issuedRaw)
	}

	if expiresRaw, ok := node.String("expires"); ok {
		expires, err := time.Parse(time.RFC3339Nano, expiresRaw)
		if err != nil {
			return succeedf("Expiration check skipped for %s: expires is not a valid date", p.NodeID)
		}
		if expires.Before(issued) {
			return failf("Assertion %s expires (%s) before it was issued (%s)", p.NodeID, expiresRaw, issuedRaw)
		}
		if expires.Before(r.now) {
			return failf("Assertion %s expired on %s", p.NodeID, expiresRaw)
		}
	}
	return succeedf("Assertion %s issue and expiration dates are valid", p.NodeID)
}

// verificationKind returns "hosted", "signed" or empty for a verification
// node.
func verificationKind(v graph.Node) string {
	for _, t := range v.Types() {
		switch strings.ToLower(t) {
		case "hosted", "hostedbadge":
			return "hosted"
		case "signed", "signedbadge":
			return "signed"
		}
	}
	return ""
}

func (r *run) verificationDependencies(st state.State, p tasks.AssertionVerificationDependencies) Outcome {
	assertion, out := lookup(st.Graph, p.NodeID)
	if out != nil {
		return out
	}
	verification, out := lookup(st.Graph, p.NodeID, "verification")
	if out != nil {
		return out
	}

	var actions []state.Action
	kind := verificationKind(verification)
	switch kind {
	case "hosted":
		actions = append(actions, addTask(tasks.HostedIDInVerificationScope{NodeID: p.NodeID}))
	case "signed":
		if st.Input.Type != state.InputJWS {
			return failf("Signed assertion %s must be provided as a JWS", p.NodeID)
		}
	default:
		return failf("Assertion %s has unknown verification type %v", p.NodeID, verification.Types())
	}

	if revoked, _ := assertion["revoked"].(bool); revoked {
		reason, _ := assertion.String("revocationReason")
		if reason == "" {
			reason = "no reason given"
		}
		return fail(fmt.Sprintf("Assertion %s has been revoked: %s", p.NodeID, reason), actions...)
	}
	return succeed(fmt.Sprintf("Assertion %s uses %s verification", p.NodeID, kind), actions...)
}

func (r *run) hostedScope(st state.State, p tasks.HostedIDInVerificationScope) Outcome {
	if !validate.IsURL(p.NodeID) {
		return failf("Hosted assertion id %s must be an HTTP(S) URL", p.NodeID)
	}
	assertionURL, err := url.Parse(p.NodeID)
	if err != nil {
		return failf("Hosted assertion id %s is not a valid URL: %v", p.NodeID, err)
	}
	issuer, out := lookup(st.Graph, p.NodeID, "badge", "issuer")
	if out != nil {
		return out
	}

	if ref, ok := issuer.String("verification"); ok {
		policy, err := st.Graph.NodeByID(ref)
		if err != nil {
			return blockedOn(ref, err)
		}
		startsWith := policy.Strings("startsWith")
		origins := policy.Strings("allowedOrigins")
		if len(startsWith) > 0 || len(origins) > 0 {
			return checkPolicy(p.NodeID, assertionURL, startsWith, origins)
		}
	}

	issuerURL, ok := issuer.String("url")
	if !ok {
		issuerURL = issuer.ID()
	}
	issuerParsed, err := url.Parse(issuerURL)
	if err != nil || issuerParsed.Hostname() == "" {
		return warn(fmt.Sprintf("Could not determine the domain of issuer %s to check hosted assertion %s", issuer.ID(), p.NodeID))
	}
	if !strings.EqualFold(issuerParsed.Hostname(), assertionURL.Hostname()) {
		return warn(fmt.Sprintf("Assertion %s is hosted on %s, which does not match issuer domain %s",
			p.NodeID, assertionURL.Hostname(), issuerParsed.Hostname()))
	}
	return succeedf("Assertion %s is hosted on the issuer domain %s", p.NodeID, issuerParsed.Hostname())
}

func checkPolicy(id string, u *url.URL, startsWith, origins []string) Outcome {
	if len(startsWith) > 0 {
		matched := false
		for _, prefix := range startsWith {
			if strings.HasPrefix(id, prefix) {
				matched = true
				break
			}
		}
		if !matched {
			return failf("Assertion %s does not start with any allowed prefix %v", id, startsWith)
		}
	}
	if len(origins) > 0 {
		matched := false
		for _, origin := range origins {
			if strings.EqualFold(origin, u.Host) || strings.EqualFold(origin, u.Hostname()) {
				matched = true
				break
			}
		}
		if !matched {
			return failf("Assertion %s is hosted on %s, outside the allowed origins %v", id, u.Host, origins)
		}
	}
	return succeedf("Assertion %s is within the issuer verification policy", id)
}

func (r *run) verifyRecipient(st state.State, p tasks.VerifyRecipientIdentifier) Outcome {
	recipient, out := lookup(st.Graph, p.NodeID, "recipient")
	if out != nil {
		return out
	}

	typ, _ := recipient.String("type")
	if typ == "" {
		typ = "email"
	}
	identity, _ := recipient.String("identity")
	hashed, _ := recipient["hashed"].(bool)
	salt, _ := recipient.String("salt")

	profile := st.Report.RecipientProfile
	if len(profile) == 0 {
		return succeedf("No recipient profile provided; recipient of %s was not checked", p.NodeID)
	}
	candidates := profile[typ]
	if len(candidates) == 0 {
		return failf("Assertion %s is issued to a %s identifier but none was provided", p.NodeID, typ)
	}

	matched, ok, err := validate.MatchRecipient(validate.Recipient{
		Type:     typ,
		Identity: identity,
		Hashed:   hashed,
		Salt:     salt,
	}, candidates)
	if err != nil {
		return failf("Could not check recipient of %s: %v", p.NodeID, err)
	}
	if !ok {
		return failf("Recipient of %s does not match any provided %s identifier", p.NodeID, typ)
	}
	return succeed(fmt.Sprintf("Recipient of %s matched %s %s", p.NodeID, typ, matched),
		state.SetRecipientProfile{Profile: map[string][]string{typ: {matched}}})
}
