package constants

// Resource type names used in batch manifests, consent scopes, and the
// backend query API. These are the spellings on the wire; do not localize.
const (
	ResourcePatient       = "Patient"
	ResourceCoverage      = "Coverage"
	ResourceClaim         = "Claim"
	ResourceClaimResponse = "ClaimResponse"
	ResourceEncounter     = "Encounter"
)

// Export/import lifecycle statuses.
const (
	ImportInprog   = "In-Progress"
	ImportComplete = "Completed"
	ImportFail     = "Failed"
)

// Identifier systems stamped onto mapped identifier entries.
const (
	SystemMemberID      = "https://payerlink.aurelianware.com/identifiers/member-id"
	SystemSubscriberID  = "https://payerlink.aurelianware.com/identifiers/subscriber-id"
	SystemGovernmentID  = "https://payerlink.aurelianware.com/identifiers/government-id"
	SystemTraceNumber   = "https://payerlink.aurelianware.com/identifiers/trace-number"
	SystemCertification = "https://payerlink.aurelianware.com/identifiers/certification-number"
	SystemClaimNumber   = "https://payerlink.aurelianware.com/identifiers/claim-number"
)

// Coding systems for mapped category and decision concepts.
const (
	SystemServiceType    = "https://payerlink.aurelianware.com/codes/service-type"
	SystemReviewDecision = "https://payerlink.aurelianware.com/codes/review-decision"
	SystemLevelOfService = "https://payerlink.aurelianware.com/codes/level-of-service"
)

// Extension URLs. OriginalCode preserves the exact legacy code when the
// mapped concept cannot carry it; the request extensions preserve review
// envelope codes that have no clinical-resource home.
const (
	SystemOriginalCode      = "https://payerlink.aurelianware.com/extensions/original-code"
	SystemRequestCategory   = "https://payerlink.aurelianware.com/extensions/request-category"
	SystemCertificationType = "https://payerlink.aurelianware.com/extensions/certification-type"
)

// Profile markers carried in resource meta.
const (
	ProfilePatient       = "https://payerlink.aurelianware.com/profiles/patient/v1"
	ProfileCoverage      = "https://payerlink.aurelianware.com/profiles/coverage/v1"
	ProfileClaim         = "https://payerlink.aurelianware.com/profiles/claim/v1"
	ProfileClaimResponse = "https://payerlink.aurelianware.com/profiles/claim-response/v1"
	ProfileEncounter     = "https://payerlink.aurelianware.com/profiles/encounter/v1"
)
