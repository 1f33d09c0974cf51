package validate

import "github.com/capiscio/badgecheck/pkg/graph"

// Class names an Open Badges node class.
type Class string

// Node classes.
const (
	Assertion          Class = "Assertion"
	BadgeClass         Class = "BadgeClass"
	Issuer             Class = "Issuer"
	Profile            Class = "Profile"
	Endorsement        Class = "Endorsement"
	RevocationList     Class = "RevocationList"
	CryptographicKey   Class = "CryptographicKey"
	Extension          Class = "Extension"
	IdentityObject     Class = "IdentityObject"
	VerificationObject Class = "VerificationObject"
	Criteria           Class = "Criteria"
	AlignmentObject    Class = "AlignmentObject"
	Image              Class = "Image"
	Evidence           Class = "Evidence"
)

// PropertyRule describes one property of a class.
type PropertyRule struct {
	Prop     string
	Type     ValueType
	Required bool
	Many     bool
	// ExpectedClass is set for reference-valued properties whose target
	// node is validated in turn.
	ExpectedClass Class
	// Fetch allows a URL reference to be retrieved when the target node is
	// not yet in the graph.
	Fetch bool
	// Image marks image properties, checked by image validation rather
	// than a primitive predicate.
	Image        bool
	AllowDataURI bool
}

var typeRule = PropertyRule{Prop: "type", Type: RDFType, Required: true, Many: true}

var rules = map[Class][]PropertyRule{
	Assertion: {
		{Prop: "id", Type: IRI, Required: true},
		typeRule,
		{Prop: "recipient", Type: ID, Required: true, ExpectedClass: IdentityObject},
		{Prop: "badge", Type: ID, Required: true, ExpectedClass: BadgeClass, Fetch: true},
		{Prop: "verification", Type: ID, Required: true, ExpectedClass: VerificationObject},
		{Prop: "issuedOn", Type: DateTime, Required: true},
		{Prop: "expires", Type: DateTime},
		{Prop: "image", Image: true},
		{Prop: "evidence", Type: ID, Many: true, ExpectedClass: Evidence},
		{Prop: "narrative", Type: MarkdownText},
		{Prop: "revoked", Type: Boolean},
		{Prop: "revocationReason", Type: Text},
		{Prop: "endorsement", Type: ID, Many: true, ExpectedClass: Endorsement, Fetch: true},
	},
	BadgeClass: {
		{Prop: "id", Type: IRI, Required: true},
		typeRule,
		{Prop: "name", Type: Text, Required: true},
		{Prop: "description", Type: Text, Required: true},
		{Prop: "image", Required: true, Image: true, AllowDataURI: true},
		{Prop: "criteria", Type: ID, Required: true, ExpectedClass: Criteria},
		{Prop: "issuer", Type: ID, Required: true, ExpectedClass: Profile, Fetch: true},
		{Prop: "alignment", Type: ID, Many: true, ExpectedClass: AlignmentObject},
		{Prop: "tags", Type: Text, Many: true},
		{Prop: "endorsement", Type: ID, Many: true, ExpectedClass: Endorsement, Fetch: true},
	},
	Profile: {
		{Prop: "id", Type: IRI, Required: true},
		typeRule,
		{Prop: "name", Type: Text, Required: true},
		{Prop: "url", Type: URL, Required: true},
		{Prop: "email", Type: Email, Required: true},
		{Prop: "description", Type: Text},
		{Prop: "telephone", Type: Text},
		{Prop: "image", Image: true, AllowDataURI: true},
		{Prop: "publicKey", Type: ID, Many: true},
		{Prop: "verification", Type: ID, ExpectedClass: VerificationObject},
		{Prop: "revocationList", Type: ID},
		{Prop: "endorsement", Type: ID, Many: true, ExpectedClass: Endorsement, Fetch: true},
	},
	Endorsement: {
		{Prop: "id", Type: IRI, Required: true},
		typeRule,
		{Prop: "claim", Type: ID, Required: true},
		{Prop: "issuer", Type: ID, Required: true, ExpectedClass: Profile, Fetch: true},
		{Prop: "issuedOn", Type: DateTime, Required: true},
		{Prop: "verification", Type: ID, Required: true, ExpectedClass: VerificationObject},
	},
	RevocationList: {
		{Prop: "id", Type: IRI, Required: true},
		typeRule,
		{Prop: "issuer", Type: ID},
	},
	CryptographicKey: {
		{Prop: "id", Type: IRI, Required: true},
		{Prop: "owner", Type: IRI},
		{Prop: "publicKeyPem", Type: Text, Required: true},
	},
	Extension: {
		typeRule,
	},
	IdentityObject: {
		{Prop: "type", Type: Text, Required: true},
		{Prop: "identity", Type: IdentityHash, Required: true},
		{Prop: "hashed", Type: Boolean, Required: true},
		{Prop: "salt", Type: Text},
	},
	VerificationObject: {
		{Prop: "type", Type: RDFType, Required: true, Many: true},
		{Prop: "creator", Type: ID},
		{Prop: "url", Type: URL},
		{Prop: "allowedOrigins", Type: Text, Many: true},
		{Prop: "startsWith", Type: URL, Many: true},
	},
	Criteria: {
		{Prop: "id", Type: IRI},
		{Prop: "narrative", Type: MarkdownText},
	},
	AlignmentObject: {
		{Prop: "targetName", Type: Text, Required: true},
		{Prop: "targetUrl", Type: URL, Required: true},
		{Prop: "targetDescription", Type: Text},
		{Prop: "targetFramework", Type: Text},
		{Prop: "targetCode", Type: Text},
	},
	Image: {
		{Prop: "id", Type: IRI, Required: true},
		{Prop: "caption", Type: Text},
		{Prop: "author", Type: IRI},
	},
	Evidence: {
		{Prop: "id", Type: IRI},
		{Prop: "narrative", Type: MarkdownText},
		{Prop: "name", Type: Text},
		{Prop: "description", Type: Text},
		{Prop: "genre", Type: Text},
		{Prop: "audience", Type: Text},
	},
}

func init() {
	rules[Issuer] = rules[Profile]
}

// Rules returns the property rules of class c, or nil when c is unknown.
func Rules(c Class) []PropertyRule {
	return rules[c]
}

// Known reports whether c has property rules.
func Known(c Class) bool {
	_, ok := rules[c]
	return ok
}

// detectOrder lists the classes a node may declare, most specific first.
var detectOrder = []Class{
	Assertion, BadgeClass, Issuer, Profile, Endorsement, RevocationList,
	CryptographicKey, Extension,
}

// DetectClass picks the class of a node from its declared types.
func DetectClass(n graph.Node) (Class, bool) {
	for _, c := range detectOrder {
		if n.HasType(string(c)) {
			return c, true
		}
	}
	return "", false
}
