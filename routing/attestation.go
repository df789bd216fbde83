package routing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrAttestationInvalid is returned by verifyQuorumAttestation when the
// JWT is malformed, expired, or signed with the wrong secret.
var ErrAttestationInvalid = errors.New("routing: invalid quorum attestation")

// quorumAttestationClaims is the payload of the optional JWT a proxy
// signs into BootstrapIdentify.Attestation: an externally-auditable
// record of the quorum size it promised a candidate, independent of
// the routing table state an auditor can't otherwise observe offline.
type quorumAttestationClaims struct {
	jwt.RegisteredClaims
	QuorumSize int `json:"quorum_size"`
}

// signQuorumAttestation signs a compact JWT attesting to quorumSize,
// used only when cfg.AttestationSecret is configured (opt-in, off by
// default — never required by the admission invariants themselves).
func signQuorumAttestation(secret []byte, proxyName string, quorumSize int) (string, error) {
	claims := quorumAttestationClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    proxyName,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		QuorumSize: quorumSize,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// verifyQuorumAttestation checks token against secret and returns the
// attested quorum size.
func verifyQuorumAttestation(secret []byte, token string) (int, error) {
	claims := &quorumAttestationClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return 0, ErrAttestationInvalid
	}
	return claims.QuorumSize, nil
}
