package tasks

import "github.com/capiscio/badgecheck/pkg/graph"

// Params is the typed payload of a task. The set of implementations is
// closed; each one fixes the task name.
type Params interface {
	Name() Name
	isParams()
}

// DetectInputType classifies the raw input held in state.
type DetectInputType struct{}

// ProcessBakedResource extracts badge metadata from an image fetched from URL.
type ProcessBakedResource struct {
	URL string
}

// FetchHTTPNode retrieves a remote document.
type FetchHTTPNode struct {
	URL           string
	ExpectedClass string
	// SourcePath locates the reference that led to this fetch, if any.
	SourcePath graph.Path
	Depth      int
	// PossiblyBaked is set when the input itself may be a baked image.
	PossiblyBaked bool
}

// Document carries a raw JSON document through intake, upgrade and
// compaction.
type Document struct {
	Data string
	// NodeID is the id the document was requested under.
	NodeID        string
	ExpectedClass string
	SourcePath    graph.Path
	Depth         int
}

// IntakeJSON parses a document and routes it to the matching upgrade.
type IntakeJSON struct{ Document }

// Upgrade05Node lifts a 0.5 document to the 1.1 shape.
type Upgrade05Node struct{ Document }

// Upgrade10Node lifts a 1.0 document to the 1.1 shape.
type Upgrade10Node struct{ Document }

// JSONLDCompactData compacts a document against the Open Badges context.
type JSONLDCompactData struct {
	Document
	// Legacy marks documents that still need the 1.1 to 2.0 field upgrade.
	Legacy bool
}

// Upgrade11Node normalizes the 1.1 fields of a stored node.
type Upgrade11Node struct {
	NodeID string
}

// ValidateExtensionNode validates an extension node against the schemas
// published by its contexts.
type ValidateExtensionNode struct {
	NodeID   string
	Contexts []string
}

// DetectAndValidateNodeClass infers the class of a node and validates it.
type DetectAndValidateNodeClass struct {
	NodeID string
	Depth  int
}

// ValidateExpectedNodeClass validates a node against a known class.
type ValidateExpectedNodeClass struct {
	NodeID        string
	ExpectedClass string
	Depth         int
}

// ValidateProperty checks a single property value.
type ValidateProperty struct {
	NodeID    string
	NodeClass string
	Prop      string
	ValueType string
	Required  bool
	Many      bool
}

// CriteriaPropertyDependencies checks a BadgeClass criteria reference.
type CriteriaPropertyDependencies struct {
	NodeID string
}

// ImageValidation checks an image property and caches the image.
type ImageValidation struct {
	NodeID       string
	Prop         string
	Required     bool
	AllowDataURI bool
}

// AssertionTimestampChecks checks issuedOn and expires against each other
// and the clock.
type AssertionTimestampChecks struct {
	NodeID string
}

// AssertionVerificationDependencies routes an assertion to hosted or signed
// verification.
type AssertionVerificationDependencies struct {
	NodeID string
}

// HostedIDInVerificationScope checks that a hosted assertion lives where its
// issuer allows.
type HostedIDInVerificationScope struct {
	NodeID string
}

// VerifyRecipientIdentifier matches the assertion recipient against the
// caller's candidate identifiers.
type VerifyRecipientIdentifier struct {
	NodeID string
}

// VerifyJWS checks a compact JWS signature with the key node KeyID.
type VerifyJWS struct {
	NodeID string
	KeyID  string
	Token  string
}

// VerifyKeyOwnership checks that the signing key belongs to the issuer.
type VerifyKeyOwnership struct {
	NodeID string
	KeyID  string
}

// VerifySignedAssertionNotRevoked looks the assertion up in a revocation list.
type VerifySignedAssertionNotRevoked struct {
	NodeID           string
	RevocationListID string
}

// VerifyGoneRevocation reports a hosted assertion whose URL answered 410.
type VerifyGoneRevocation struct {
	NodeID string
}

func (DetectInputType) Name() Name                   { return NameDetectInputType }
func (ProcessBakedResource) Name() Name              { return NameProcessBakedResource }
func (FetchHTTPNode) Name() Name                     { return NameFetchHTTPNode }
func (IntakeJSON) Name() Name                        { return NameIntakeJSON }
func (Upgrade05Node) Name() Name                     { return NameUpgrade05Node }
func (Upgrade10Node) Name() Name                     { return NameUpgrade10Node }
func (JSONLDCompactData) Name() Name                 { return NameJSONLDCompactData }
func (Upgrade11Node) Name() Name                     { return NameUpgrade11Node }
func (ValidateExtensionNode) Name() Name             { return NameValidateExtensionNode }
func (DetectAndValidateNodeClass) Name() Name        { return NameDetectAndValidateNodeClass }
func (ValidateExpectedNodeClass) Name() Name         { return NameValidateExpectedNodeClass }
func (ValidateProperty) Name() Name                  { return NameValidateProperty }
func (CriteriaPropertyDependencies) Name() Name      { return NameCriteriaPropertyDependencies }
func (ImageValidation) Name() Name                   { return NameImageValidation }
func (AssertionTimestampChecks) Name() Name          { return NameAssertionTimestampChecks }
func (AssertionVerificationDependencies) Name() Name { return NameAssertionVerificationDeps }
func (HostedIDInVerificationScope) Name() Name       { return NameHostedIDInVerificationScope }
func (VerifyRecipientIdentifier) Name() Name         { return NameVerifyRecipientIdentifier }
func (VerifyJWS) Name() Name                         { return NameVerifyJWS }
func (VerifyKeyOwnership) Name() Name                { return NameVerifyKeyOwnership }
func (VerifySignedAssertionNotRevoked) Name() Name   { return NameVerifySignedAssertionNotRevoked }
func (VerifyGoneRevocation) Name() Name              { return NameVerifyGoneRevocation }

func (DetectInputType) isParams()                   {}
func (ProcessBakedResource) isParams()              {}
func (FetchHTTPNode) isParams()                     {}
func (IntakeJSON) isParams()                        {}
func (Upgrade05Node) isParams()                     {}
func (Upgrade10Node) isParams()                     {}
func (JSONLDCompactData) isParams()                 {}
func (Upgrade11Node) isParams()                     {}
func (ValidateExtensionNode) isParams()             {}
func (DetectAndValidateNodeClass) isParams()        {}
func (ValidateExpectedNodeClass) isParams()         {}
func (ValidateProperty) isParams()                  {}
func (CriteriaPropertyDependencies) isParams()      {}
func (ImageValidation) isParams()                   {}
func (AssertionTimestampChecks) isParams()          {}
func (AssertionVerificationDependencies) isParams() {}
func (HostedIDInVerificationScope) isParams()       {}
func (VerifyRecipientIdentifier) isParams()         {}
func (VerifyJWS) isParams()                         {}
func (VerifyKeyOwnership) isParams()                {}
func (VerifySignedAssertionNotRevoked) isParams()   {}
func (VerifyGoneRevocation) isParams()              {}

// nodeID returns the id of the node a task concerns, if it has one.
func nodeID(p Params) string {
	switch v := p.(type) {
	case FetchHTTPNode:
		return v.URL
	case ProcessBakedResource:
		return v.URL
	case IntakeJSON:
		return v.NodeID
	case Upgrade05Node:
		return v.NodeID
	case Upgrade10Node:
		return v.NodeID
	case JSONLDCompactData:
		return v.NodeID
	case Upgrade11Node:
		return v.NodeID
	case ValidateExtensionNode:
		return v.NodeID
	case DetectAndValidateNodeClass:
		return v.NodeID
	case ValidateExpectedNodeClass:
		return v.NodeID
	case ValidateProperty:
		return v.NodeID
	case CriteriaPropertyDependencies:
		return v.NodeID
	case ImageValidation:
		return v.NodeID
	case AssertionTimestampChecks:
		return v.NodeID
	case AssertionVerificationDependencies:
		return v.NodeID
	case HostedIDInVerificationScope:
		return v.NodeID
	case VerifyRecipientIdentifier:
		return v.NodeID
	case VerifyJWS:
		return v.NodeID
	case VerifyKeyOwnership:
		return v.NodeID
	case VerifySignedAssertionNotRevoked:
		return v.NodeID
	case VerifyGoneRevocation:
		return v.NodeID
	}
	return ""
}
