package verification

import (
	"encoding/json"

	"github.com/golang-jwt/jwt/v5"

	dErrors "veriflow/pkg/domain-errors"
)

// Decode parses the signed webhook token into a Payload.
//
// The token is a JWS compact serialization; header, claims, and signature are
// parsed but the signature is NOT cryptographically verified. This is a known
// trust-boundary gap: before real enrollment processing, the signature must be
// checked against the provider's published key set. Decode deliberately does
// not invent a verification scheme.
func Decode(token string) (*Payload, error) {
	parser := jwt.NewParser()

	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed verification token")
	}

	data, ok := claims["data"]
	if !ok || data == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "verification payload is missing data")
	}

	// Round-trip through JSON so nested claim maps land in typed structs.
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "verification payload is not serializable")
	}

	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "verification payload has unexpected shape")
	}

	return &payload, nil
}
