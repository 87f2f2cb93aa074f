package pkg

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/sha3"
)

var (
	ErrJWTMalformed    = errors.New("jwt malformed")
	ErrJWTNoEmail      = errors.New("jwt has no email claim")
	ErrJWTNoNonce      = errors.New("jwt has no nonce claim")
	ErrJWTEmailInvalid = errors.New("jwt email claim invalid")
)

// ProverInputs is the input struct handed to the external ZK circuit for the
// company badge. The prover and the circuit live outside this service; this
// is only claim extraction and shaping.
type ProverInputs struct {
	Header  string `json:"header"`  // raw base64url segment
	Payload string `json:"payload"` // raw base64url segment

	Issuer      string `json:"issuer"`
	Audience    string `json:"audience"`
	Email       string `json:"email"`
	EmailDomain string `json:"emailDomain"`
	Nonce       string `json:"nonce"`

	WalletAddress string `json:"walletAddress"`

	// keccak256(domain | wallet | nonce), the public commitment the
	// on-chain verifier checks against.
	Commitment string `json:"commitment"`
}

// ShapeProverInputs parses an OIDC JWT without verifying its signature
// (signature validity is what the circuit proves) and extracts the claims
// the circuit needs.
func ShapeProverInputs(rawJWT, walletAddress string) (*ProverInputs, error) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(rawJWT, jwt.MapClaims{})
	if err != nil {
		return nil, ErrJWTMalformed
	}

	segments := strings.SplitN(rawJWT, ".", 3)
	if len(segments) != 3 {
		return nil, ErrJWTMalformed
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrJWTMalformed
	}

	email, _ := claims["email"].(string)
	if email == "" {
		return nil, ErrJWTNoEmail
	}
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return nil, ErrJWTEmailInvalid
	}
	domain := strings.ToLower(email[at+1:])

	nonce, _ := claims["nonce"].(string)
	if nonce == "" {
		return nil, ErrJWTNoNonce
	}

	issuer, _ := claims.GetIssuer()
	var audience string
	if aud, err := claims.GetAudience(); err == nil && len(aud) > 0 {
		audience = aud[0]
	}

	return &ProverInputs{
		Header:        segments[0],
		Payload:       segments[1],
		Issuer:        issuer,
		Audience:      audience,
		Email:         email,
		EmailDomain:   domain,
		Nonce:         nonce,
		WalletAddress: walletAddress,
		Commitment:    commitment(domain, walletAddress, nonce),
	}, nil
}

func commitment(domain, wallet, nonce string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(domain))
	h.Write([]byte("|"))
	h.Write([]byte(strings.ToLower(wallet)))
	h.Write([]byte("|"))
	h.Write([]byte(nonce))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}
