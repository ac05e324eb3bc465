package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTokenMalformed = errors.New("malformed download token")
	ErrTokenSignature = errors.New("invalid download token signature")
	ErrTokenExpired   = errors.New("download token expired")
)

// Grant is the payload carried by a signed download token.
type Grant struct {
	ID        string
	Path      string
	ExpiresAt time.Time
}

// SignedURLSigner issues and verifies HMAC-SHA256 download tokens of the form
// id.expiry.base64(path).signature.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL reports how long issued tokens stay valid.
func (s *SignedURLSigner) TTL() time.Duration {
	return s.ttl
}

// Generate signs a token granting access to path for the configured TTL.
func (s *SignedURLSigner) Generate(id, path string) (string, time.Time, error) {
	if id == "" || path == "" {
		return "", time.Time{}, fmt.Errorf("id and path required")
	}
	if strings.Contains(id, ".") {
		return "", time.Time{}, fmt.Errorf("id must not contain '.'")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).UTC().Truncate(time.Second)
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	encoded := base64.RawURLEncoding.EncodeToString([]byte(path))
	token := strings.Join([]string{id, exp, encoded, s.sign(id, exp, encoded)}, ".")
	return token, expiresAt, nil
}

// Parse verifies the signature and, unless allowExpired is set, the expiry.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (*Grant, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return nil, ErrTokenMalformed
	}
	id, exp, encoded, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.sign(id, exp, encoded)), []byte(signature)) {
		return nil, ErrTokenSignature
	}
	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return nil, ErrTokenMalformed
	}
	path, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrTokenMalformed
	}
	grant := &Grant{ID: id, Path: string(path), ExpiresAt: time.Unix(unix, 0).UTC()}
	if !allowExpired && s.now().After(grant.ExpiresAt) {
		return nil, ErrTokenExpired
	}
	return grant, nil
}

func (s *SignedURLSigner) sign(id, exp, encoded string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(id + "|" + exp + "|" + encoded))
	return hex.EncodeToString(mac.Sum(nil))
}
