package upgrade

import (
	"fmt"
	"strings"

	"github.com/capiscio/badgecheck/pkg/validate"
)

// From05 rewrites a 0.5 assertion into the 1.1 shape so it can be compacted
// against the 1.x context. nodeID is the URL the assertion was fetched from.
func From05(doc map[string]any, nodeID string) (map[string]any, error) {
	recipient, ok := doc["recipient"].(string)
	if !ok {
		return nil, fmt.Errorf("0.5 assertion recipient must be a string")
	}
	out := shallowCopy(doc)
	out["@context"] = ContextV1
	out["type"] = "Assertion"
	if nodeID != "" {
		out["id"] = nodeID
	}

	if issued, ok := out["issued_on"]; ok {
		out["issuedOn"] = issued
		delete(out, "issued_on")
	}

	identity := map[string]any{
		"type":     "email",
		"identity": recipient,
		"hashed":   !validate.IsEmail(recipient),
	}
	if salt, ok := out["salt"]; ok {
		identity["salt"] = salt
		delete(out, "salt")
	}
	out["recipient"] = identity

	verify := map[string]any{"type": "HostedBadge"}
	if nodeID != "" {
		verify["url"] = nodeID
	}
	out["verify"] = verify

	if badge, ok := out["badge"].(map[string]any); ok {
		badge = shallowCopy(badge)
		badge["type"] = "BadgeClass"
		delete(badge, "version")
		if issuer, ok := badge["issuer"].(map[string]any); ok {
			badge["issuer"] = upgradeIssuer05(issuer)
		}
		out["badge"] = badge
	}
	return out, nil
}

func upgradeIssuer05(issuer map[string]any) map[string]any {
	out := shallowCopy(issuer)
	out["type"] = "Issuer"
	name, hasName := out["name"].(string)
	org, hasOrg := out["org"].(string)
	if hasName && hasOrg && org != "" {
		out["name"] = name + ": " + org
	}
	delete(out, "org")
	if contact, ok := out["contact"]; ok {
		out["email"] = contact
		delete(out, "contact")
	}
	if origin, ok := out["origin"]; ok {
		out["url"] = origin
		delete(out, "origin")
	}
	return out
}

// From10 rewrites a 1.0 document into the 1.1 shape: it receives the 1.x
// context, an id derived from its verification object, and a class sniffed
// from its structure.
func From10(doc map[string]any) map[string]any {
	out := shallowCopy(doc)
	out["@context"] = ContextV1

	if _, ok := out["id"]; !ok {
		if id := id10(out); id != "" {
			out["id"] = id
		}
	}

	if _, ok := out["type"]; !ok {
		switch {
		case out["recipient"] != nil:
			out["type"] = "Assertion"
		case out["criteria"] != nil:
			out["type"] = "BadgeClass"
		case out["url"] != nil:
			out["type"] = "Issuer"
		}
	}
	return out
}

func id10(doc map[string]any) string {
	verify, ok := doc["verify"].(map[string]any)
	if !ok {
		return ""
	}
	vtype, _ := verify["type"].(string)
	switch strings.ToLower(vtype) {
	case "hosted":
		if u, ok := verify["url"].(string); ok {
			return u
		}
	case "signed":
		if uid, ok := doc["uid"].(string); ok && uid != "" {
			return "uid:" + uid
		}
	}
	return ""
}

func shallowCopy(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
