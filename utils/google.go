package utils

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const googleCertsURL = "https://www.googleapis.com/oauth2/v3/certs"

// GoogleClaims are the identity claims extracted from a Google ID token.
type GoogleClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// GoogleVerifier validates Google ID tokens against Google's published JWKS.
// The signature, issuer, audience and expiry are all checked before any claim
// is trusted. KeyFunc can be overridden in tests to use a local signing key.
type GoogleVerifier struct {
	Audience   string
	CertsURL   string
	HTTPClient *http.Client
	KeyFunc    jwt.Keyfunc

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// NewGoogleVerifier creates a verifier for the given OAuth client ID. An empty
// audience skips the audience check (development only).
func NewGoogleVerifier(audience string) *GoogleVerifier {
	return &GoogleVerifier{
		Audience:   audience,
		CertsURL:   googleCertsURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify parses and validates an ID token and returns its identity claims.
func (v *GoogleVerifier) Verify(tokenString string) (*GoogleClaims, error) {
	keyFunc := v.KeyFunc
	if keyFunc == nil {
		keyFunc = v.googleKey
	}

	opts := []jwt.ParserOption{jwt.WithLeeway(5 * time.Minute), jwt.WithExpirationRequired()}
	if v.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.Audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &GoogleClaims{}, keyFunc, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*GoogleClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenMalformed
	}

	if claims.Issuer != "accounts.google.com" && claims.Issuer != "https://accounts.google.com" {
		return nil, jwt.ErrTokenInvalidIssuer
	}
	if claims.Email == "" {
		return nil, errors.New("token has no email claim")
	}

	return claims, nil
}

// googleKey resolves the RSA public key for the token's key ID, refreshing the
// cached JWKS when the key is unknown or stale.
func (v *GoogleVerifier) googleKey(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, jwt.ErrSignatureInvalid
	}

	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, errors.New("token has no key id")
	}

	v.mu.RLock()
	key, ok := v.keys[kid]
	stale := time.Since(v.fetchedAt) > time.Hour
	v.mu.RUnlock()

	if ok && !stale {
		return key, nil
	}

	if err := v.refreshKeys(); err != nil {
		return nil, err
	}

	v.mu.RLock()
	key, ok = v.keys[kid]
	v.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown signing key %q", kid)
	}
	return key, nil
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (v *GoogleVerifier) refreshKeys() error {
	resp, err := v.HTTPClient.Get(v.CertsURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching google certs: %s", resp.Status)
	}

	var payload struct {
		Keys []jwk `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return err
	}

	keys := make(map[string]*rsa.PublicKey, len(payload.Keys))
	for _, k := range payload.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := parseRSAKey(k)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return errors.New("no usable keys in google certs response")
	}

	v.mu.Lock()
	v.keys = keys
	v.fetchedAt = time.Now()
	v.mu.Unlock()
	return nil
}

func parseRSAKey(k jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, err
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}, nil
}
