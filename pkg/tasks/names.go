// Package tasks defines the closed vocabulary of verification work items and
// the ordered queue that holds them.
package tasks

// Name identifies the kind of a task.
type Name string

// Task names. The set is closed: NewTask rejects anything else.
const (
	NameDetectInputType                 Name = "DETECT_INPUT_TYPE"
	NameProcessBakedResource            Name = "PROCESS_BAKED_RESOURCE"
	NameFetchHTTPNode                   Name = "FETCH_HTTP_NODE"
	NameIntakeJSON                      Name = "INTAKE_JSON"
	NameUpgrade05Node                   Name = "UPGRADE_0_5_NODE"
	NameUpgrade10Node                   Name = "UPGRADE_1_0_NODE"
	NameUpgrade11Node                   Name = "UPGRADE_1_1_NODE"
	NameJSONLDCompactData               Name = "JSONLD_COMPACT_DATA"
	NameValidateExtensionNode           Name = "VALIDATE_EXTENSION_NODE"
	NameDetectAndValidateNodeClass      Name = "DETECT_AND_VALIDATE_NODE_CLASS"
	NameValidateExpectedNodeClass       Name = "VALIDATE_EXPECTED_NODE_CLASS"
	NameValidateProperty                Name = "VALIDATE_PROPERTY"
	NameCriteriaPropertyDependencies    Name = "CRITERIA_PROPERTY_DEPENDENCIES"
	NameImageValidation                 Name = "IMAGE_VALIDATION"
	NameAssertionTimestampChecks        Name = "ASSERTION_TIMESTAMP_CHECKS"
	NameAssertionVerificationDeps       Name = "ASSERTION_VERIFICATION_DEPENDENCIES"
	NameHostedIDInVerificationScope     Name = "HOSTED_ID_IN_VERIFICATION_SCOPE"
	NameVerifyRecipientIdentifier       Name = "VERIFY_RECIPIENT_IDENTIFIER"
	NameVerifyJWS                       Name = "VERIFY_JWS"
	NameVerifyKeyOwnership              Name = "VERIFY_KEY_OWNERSHIP"
	NameVerifySignedAssertionNotRevoked Name = "VERIFY_SIGNED_ASSERTION_NOT_REVOKED"
	NameVerifyGoneRevocation            Name = "VERIFY_GONE_REVOCATION"
)

var known = map[Name]bool{
	NameDetectInputType:                 true,
	NameProcessBakedResource:            true,
	NameFetchHTTPNode:                   true,
	NameIntakeJSON:                      true,
	NameUpgrade05Node:                   true,
	NameUpgrade10Node:                   true,
	NameUpgrade11Node:                   true,
	NameJSONLDCompactData:               true,
	NameValidateExtensionNode:           true,
	NameDetectAndValidateNodeClass:      true,
	NameValidateExpectedNodeClass:       true,
	NameValidateProperty:                true,
	NameCriteriaPropertyDependencies:    true,
	NameImageValidation:                 true,
	NameAssertionTimestampChecks:        true,
	NameAssertionVerificationDeps:       true,
	NameHostedIDInVerificationScope:     true,
	NameVerifyRecipientIdentifier:       true,
	NameVerifyJWS:                       true,
	NameVerifyKeyOwnership:              true,
	NameVerifySignedAssertionNotRevoked: true,
	NameVerifyGoneRevocation:            true,
}

// Known reports whether n belongs to the task vocabulary.
func (n Name) Known() bool {
	return known[n]
}

// Level classifies the message a resolved task contributes to the report.
type Level string

// Message levels.
const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// NodeKey is the task key shared by every task that produces or loads the
// node with the given id. Dependents list it as a prerequisite.
func NodeKey(id string) string {
	return "node:" + id
}
