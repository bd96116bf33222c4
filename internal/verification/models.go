// Package verification models the signed submission delivered by the
// document/biometric verification SDK and decodes it into a structured
// payload. The payload is immutable once decoded; downstream stages read from
// it but never mutate it.
package verification

import "encoding/json"

// Payload is the decoded verification submission.
type Payload struct {
	Source          Source            `json:"source"`
	Documents       []Document        `json:"documents"`
	Verifications   []Verification    `json:"verifications"`
	Trace           []json.RawMessage `json:"trace,omitempty"`
	BackgroundCheck *BackgroundCheck  `json:"backgroundCheck,omitempty"`
}

// Source carries producer metadata: which SDK variant produced the
// submission, on what platform, and under which session.
type Source struct {
	// Variant is the explicit producer tag ("webSdk" or "mobileSdk").
	// Older SDK builds omit it; the trace normalizer then falls back to
	// field-presence sniffing.
	Variant   string `json:"variant,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Platform  string `json:"platform,omitempty"`
	SDKVer    string `json:"sdkVersion,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
	ClientRef string `json:"clientReference,omitempty"`
}

// Document is one scanned or chip-read identity document.
type Document struct {
	Type          string `json:"type,omitempty"`
	Number        string `json:"number,omitempty"`
	Country       string `json:"country,omitempty"`
	FullName      string `json:"fullName,omitempty"`
	DateOfBirth   string `json:"dateOfBirth,omitempty"`
	ExpiryDate    string `json:"expiryDate,omitempty"`
	MRZ           string `json:"mrz,omitempty"`
	ChipRead      bool   `json:"chipRead,omitempty"`
	FrontImageRef string `json:"frontImageRef,omitempty"`
	BackImageRef  string `json:"backImageRef,omitempty"`
	FaceImageRef  string `json:"faceImageRef,omitempty"`
}

// Verification is one signal bundle produced by the SDK. Blocks are optional;
// a nil block means the check never ran, which the classifier must treat
// differently from a check that ran and passed.
type Verification struct {
	IDScreenDetection         *ScoredCheck          `json:"idScreenDetection,omitempty"`
	IDPrintDetection          *ScoredCheck          `json:"idPrintDetection,omitempty"`
	IDPhotoTamperingDetection *ScoredCheck          `json:"idPhotoTamperingDetection,omitempty"`
	Biometric                 *BiometricCheck       `json:"biometric,omitempty"`
	Liveness                  *LivenessCheck        `json:"liveness,omitempty"`
	MRZ                       *MRZCheck             `json:"mrz,omitempty"`
	DataConsistency           *DataConsistencyCheck `json:"dataConsistency,omitempty"`
	Reading                   *ReadingCheck         `json:"reading,omitempty"`
}

// ScoredCheck is a fraud-detection measurement on a 0-100 scale.
type ScoredCheck struct {
	Enabled bool     `json:"enabled"`
	Score   *float64 `json:"score,omitempty"`
}

// BiometricCheck is the face-match result. MatchLevel is an ordinal 0-5
// confidence that the live face matches the document photo.
type BiometricCheck struct {
	Enabled    bool   `json:"enabled"`
	MatchType  string `json:"matchType,omitempty"`
	MatchLevel *int   `json:"matchLevel,omitempty"`
}

// LivenessCheck is the liveness confidence result.
type LivenessCheck struct {
	Enabled    bool     `json:"enabled"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// MRZCheck reports machine-readable-zone checksum validity.
type MRZCheck struct {
	Enabled       bool  `json:"enabled"`
	ChecksumValid *bool `json:"checksumValid,omitempty"`
}

// DataConsistencyCheck compares fields across capture methods. Each field
// result is MATCH, MATCH_PARTIALLY, or NO_MATCH.
type DataConsistencyCheck struct {
	Enabled bool              `json:"enabled"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Field comparison results for DataConsistencyCheck.
const (
	FieldMatch          = "MATCH"
	FieldMatchPartially = "MATCH_PARTIALLY"
	FieldNoMatch        = "NO_MATCH"
)

// ReadingCheck carries NFC chip authentication results.
type ReadingCheck struct {
	Enabled               bool  `json:"enabled"`
	PassiveAuthentication *bool `json:"passiveAuthentication,omitempty"`
	ChipAuthentication    *bool `json:"chipAuthentication,omitempty"`
	ActiveAuthentication  *bool `json:"activeAuthentication,omitempty"`
}

// BackgroundCheck is the optional PEP/sanctions screening block delivered
// with the submission.
type BackgroundCheck struct {
	Match    bool          `json:"match"`
	Entities []MatchEntity `json:"entities,omitempty"`
}

// MatchEntity is one unreviewed watchlist hit.
type MatchEntity struct {
	Name          string            `json:"name,omitempty"`
	EntityType    string            `json:"entityType,omitempty"`
	MatchScore    float64           `json:"matchScore"`
	RiskScore     float64           `json:"riskScore"`
	Events        []json.RawMessage `json:"events,omitempty"`
	Sources       []json.RawMessage `json:"sources,omitempty"`
	Relationships []json.RawMessage `json:"relationships,omitempty"`
}
