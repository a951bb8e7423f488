package util

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrMissingSecret = errors.New("token secret is not configured")
)

// TokenSigner issues and validates compact HMAC bearer tokens that carry a
// subject (the owner id). The auth provider proper is out of process;
// this service only has to verify who a token speaks for.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenSigner returns a signer that issues subject-bearing HMAC tokens.
func NewTokenSigner(secret []byte, ttl time.Duration) *TokenSigner {
	return &TokenSigner{
		secret: secret,
		ttl:    ttl,
	}
}

// Issue mints a token for the provided subject. Wire format:
// base64(subject).base64(4-byte expiry + 8 random bytes).base64(mac[:16]).
func (s *TokenSigner) Issue(subject string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrMissingSecret
	}
	if subject == "" {
		return "", errors.New("token subject is required")
	}

	payload := make([]byte, 12)
	expires := uint32(time.Now().Add(s.ttl).Unix())
	binary.BigEndian.PutUint32(payload[:4], expires)
	if _, err := rand.Read(payload[4:]); err != nil {
		return "", err
	}

	subjectEnc := base64.RawURLEncoding.EncodeToString([]byte(subject))
	payloadEnc := base64.RawURLEncoding.EncodeToString(payload)
	signature := s.sign(subject, payload)
	sigEnc := base64.RawURLEncoding.EncodeToString(signature[:16])
	return fmt.Sprintf("%s.%s.%s", subjectEnc, payloadEnc, sigEnc), nil
}

// Validate checks signature integrity and TTL, returning the token's
// subject.
func (s *TokenSigner) Validate(token string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrMissingSecret
	}

	parts := strings.SplitN(token, ".", 3)
	if len(parts) != 3 {
		return "", ErrInvalidToken
	}

	subjectRaw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil || len(subjectRaw) == 0 {
		return "", ErrInvalidToken
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil || len(payload) < 4 {
		return "", ErrInvalidToken
	}

	sigProvided, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil || len(sigProvided) != 16 {
		return "", ErrInvalidToken
	}

	subject := string(subjectRaw)
	expected := s.sign(subject, payload)
	if !hmac.Equal(sigProvided, expected[:16]) {
		return "", ErrInvalidToken
	}

	expires := binary.BigEndian.Uint32(payload[:4])
	if time.Now().Unix() > int64(expires) {
		return "", ErrInvalidToken
	}

	return subject, nil
}

func (s *TokenSigner) sign(subject string, payload []byte) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(subject))
	mac.Write([]byte("|"))
	mac.Write(payload)
	return mac.Sum(nil)
}
