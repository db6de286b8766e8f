package social

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mikempala/social-rest"
)

// DefaultStateTTL bounds how long a user may take at the provider
const DefaultStateTTL = 10 * time.Minute

// StateManager handles OAuth state encoding and verification.
type StateManager interface {
	Encode(state *OAuthState) (string, error)
	Decode(token string) (*OAuthState, error)
}

// OAuthState is carried through the provider round trip in the state parameter.
type OAuthState struct {
	Nonce        string `json:"n"`
	Provider     string `json:"p"`
	CodeVerifier string `json:"cv,omitempty"`
	IssuedAt     int64  `json:"iat"`
	ExpiresAt    int64  `json:"exp"`
}

// EncryptedStateManager seals state with AES-GCM and signs the ciphertext
// with HMAC-SHA256.
type EncryptedStateManager struct {
	encryptionKey []byte
	hmacKey       []byte
	ttl           time.Duration
	now           func() time.Time
}

// StateOption customizes an EncryptedStateManager
type StateOption func(*EncryptedStateManager)

// WithStateTTL overrides DefaultStateTTL
func WithStateTTL(ttl time.Duration) StateOption {
	return func(sm *EncryptedStateManager) {
		if ttl > 0 {
			sm.ttl = ttl
		}
	}
}

// WithStateClock injects a clock
func WithStateClock(now func() time.Time) StateOption {
	return func(sm *EncryptedStateManager) {
		if now != nil {
			sm.now = now
		}
	}
}

// NewEncryptedStateManager creates a state manager. encryptionKey must be
// 16, 24 or 32 bytes.
func NewEncryptedStateManager(encryptionKey, hmacKey []byte, opts ...StateOption) (*EncryptedStateManager, error) {
	switch len(encryptionKey) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("state encryption key must be 16, 24 or 32 bytes, got %d", len(encryptionKey))
	}
	if len(hmacKey) == 0 {
		return nil, fmt.Errorf("state hmac key is required")
	}

	sm := &EncryptedStateManager{
		encryptionKey: encryptionKey,
		hmacKey:       hmacKey,
		ttl:           DefaultStateTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}
	return sm, nil
}

// NewStateManagerFromSecret derives independent encryption and signing
// keys from a single secret.
func NewStateManagerFromSecret(secret []byte, opts ...StateOption) (*EncryptedStateManager, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("state secret is required")
	}
	return NewEncryptedStateManager(deriveKey(secret, "oauth-state-encryption"), deriveKey(secret, "oauth-state-signing"), opts...)
}

// Encode encrypts and signs the state.
func (sm *EncryptedStateManager) Encode(state *OAuthState) (string, error) {
	if state == nil {
		return "", ErrInvalidState
	}

	now := sm.now()
	if state.IssuedAt == 0 {
		state.IssuedAt = now.Unix()
	}
	if state.ExpiresAt == 0 {
		state.ExpiresAt = now.Add(sm.ttl).Unix()
	}
	if state.Nonce == "" {
		state.Nonce = generateNonce()
	}

	plaintext, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to marshal state: %w", err)
	}

	gcm, err := sm.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	signed := append(sm.sign(ciphertext), ciphertext...)

	return base64.RawURLEncoding.EncodeToString(signed), nil
}

// Decode verifies and decrypts the state.
func (sm *EncryptedStateManager) Decode(token string) (*OAuthState, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(data) < sha256.Size {
		return nil, auth.WrapSentinel(ErrInvalidState, err, nil)
	}

	signature, ciphertext := data[:sha256.Size], data[sha256.Size:]
	if !hmac.Equal(signature, sm.sign(ciphertext)) {
		return nil, ErrInvalidState
	}

	gcm, err := sm.aead()
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, ErrInvalidState
	}

	nonce, encrypted := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, encrypted, nil)
	if err != nil {
		return nil, auth.WrapSentinel(ErrInvalidState, err, nil)
	}

	var state OAuthState
	if err := json.Unmarshal(plaintext, &state); err != nil {
		return nil, auth.WrapSentinel(ErrInvalidState, err, nil)
	}

	if sm.now().Unix() > state.ExpiresAt {
		return nil, ErrStateExpired
	}

	return &state, nil
}

func (sm *EncryptedStateManager) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(sm.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

func (sm *EncryptedStateManager) sign(data []byte) []byte {
	mac := hmac.New(sha256.New, sm.hmacKey)
	mac.Write(data)
	return mac.Sum(nil)
}

func deriveKey(secret []byte, label string) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(label))
	return mac.Sum(nil)
}

func generateNonce() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func generateCodeVerifier() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func computeCodeChallenge(verifier string) string {
	h := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(h[:])
}
