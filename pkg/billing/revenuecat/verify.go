package revenuecat

import "crypto/subtle"

// VerifySignature reports whether the raw authorization header matches the
// shared webhook secret under the provider's bearer scheme.
//
// Only an exact match of "Bearer " + secret is accepted; wrong scheme, extra
// whitespace or a missing header all reject. Constant-time comparison keeps
// the check free of timing leaks. An empty secret always rejects.
func VerifySignature(signatureHeader, sharedSecret string) bool {
	if sharedSecret == "" {
		return false
	}
	expected := "Bearer " + sharedSecret
	return subtle.ConstantTimeCompare([]byte(signatureHeader), []byte(expected)) == 1
}
