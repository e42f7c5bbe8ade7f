package auth

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

/*
 * 'Provider' is the capability the core needs from the authentication
 * integration: a stable user identifier for a bearer token, the device's
 * online/offline status, and a one-shot identity-claim event fired when a
 * local-only user links a provider account.
 */
type Provider interface {
	CurrentUserID(token string) (string, error)
	IsOnline() bool
	OnIdentityClaimed(fn func(oldID, newID string))
}

var ErrInvalidToken = errors.New("invalid or expired token")

// JWTProvider implements Provider with HMAC-signed JWTs, the way the
// rest of the API authenticates requests.
type JWTProvider struct {
	secret []byte

	mu            sync.RWMutex
	online        bool
	claimHandlers []func(oldID, newID string)
}

func NewJWTProvider() *JWTProvider {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "secret"
	}
	return &JWTProvider{secret: []byte(secret), online: true}
}

// IssueToken signs a token carrying the user identifier
func (p *JWTProvider) IssueToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(72 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

func (p *JWTProvider) CurrentUserID(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}

func (p *JWTProvider) IsOnline() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.online
}

// SetOnline flips the connectivity flag (driven by the sync loop's
// observed push results)
func (p *JWTProvider) SetOnline(online bool) {
	p.mu.Lock()
	p.online = online
	p.mu.Unlock()
}

func (p *JWTProvider) OnIdentityClaimed(fn func(oldID, newID string)) {
	p.mu.Lock()
	p.claimHandlers = append(p.claimHandlers, fn)
	p.mu.Unlock()
}

// FireIdentityClaimed notifies registered handlers. Called once per user,
// by the claim migration in services/users.
func (p *JWTProvider) FireIdentityClaimed(oldID, newID string) {
	p.mu.RLock()
	handlers := make([]func(string, string), len(p.claimHandlers))
	copy(handlers, p.claimHandlers)
	p.mu.RUnlock()
	for _, fn := range handlers {
		fn(oldID, newID)
	}
}
