package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"vgp-backend/internal/database"
)

const (
	MagicLinkTTL = 15 * time.Minute
	SessionTTL   = 30 * 24 * time.Hour

	// RoleInspector is the only role issued by magic links
	RoleInspector = "inspector"
)

var (
	ErrInvalidEmail = errors.New("invalid email")
	ErrLinkExpired  = errors.New("magic link expired or already used")
	ErrInvalidLink  = errors.New("invalid magic link")
)

// UserNamespace derives the storage namespace of an e-mail address: the hex
// form of the first 12 bytes of SHA-256 over the trimmed lower-case address.
func UserNamespace(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:12])
}

// AuthConfig configures the magic-link flow
type AuthConfig struct {
	JWTSecret string
	// PublicAPIURL is the externally reachable base of this API, used in links
	PublicAPIURL string
	// AppURL receives the session token after verification
	AppURL string
}

// Session is issued when a magic link is verified
type Session struct {
	Token       string    `json:"token"`
	Email       string    `json:"email"`
	UserID      string    `json:"userId"`
	ExpiresAt   time.Time `json:"expiresAt"`
	RedirectURL string    `json:"redirectUrl"`
}

type magicEntry struct {
	Email      string    `json:"email"`
	UserID     string    `json:"userId"`
	SecretHash string    `json:"secretHash"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AuthService issues single-use magic links and session tokens
type AuthService struct {
	kv         database.KV
	mailer     Mailer
	cfg        AuthConfig
	bcryptCost int
	now        func() time.Time
}

func NewAuthService(kv database.KV, mailer Mailer, cfg AuthConfig) *AuthService {
	return &AuthService{
		kv:         kv,
		mailer:     mailer,
		cfg:        cfg,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// RequestLink stores a hashed single-use secret and mails the link
func (s *AuthService) RequestLink(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}

	secret, err := randomHex(32)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash link secret: %w", err)
	}

	id := uuid.New().String()
	entry := magicEntry{
		Email:      email,
		UserID:     UserNamespace(email),
		SecretHash: string(hash),
		CreatedAt:  s.now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := s.kv.Put(ctx, database.MagicLinkKey(id), data, MagicLinkTTL); err != nil {
		return fmt.Errorf("failed to store magic link: %w", err)
	}

	link := strings.TrimRight(s.cfg.PublicAPIURL, "/") + "/api/auth/verify?token=" + url.QueryEscape(id+"."+secret)
	if err := s.mailer.SendMagicLink(ctx, email, link); err != nil {
		return fmt.Errorf("failed to send magic link: %w", err)
	}
	log.Printf("📧 Magic link issued for user %s", entry.UserID)
	return nil
}

// Verify consumes a magic link token and opens a session. The link is
// taken from the store before the session is issued, so it works only once
// even under concurrent verifications.
func (s *AuthService) Verify(ctx context.Context, token string) (*Session, error) {
	id, secret, ok := strings.Cut(token, ".")
	if !ok || id == "" || secret == "" {
		return nil, ErrInvalidLink
	}

	data, err := s.kv.Get(ctx, database.MagicLinkKey(id))
	if errors.Is(err, database.ErrKeyNotFound) {
		return nil, ErrLinkExpired
	}
	if err != nil {
		return nil, err
	}
	var entry magicEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode magic link: %w", err)
	}
	if s.now().After(entry.CreatedAt.Add(MagicLinkTTL)) {
		_ = s.kv.Delete(ctx, database.MagicLinkKey(id))
		return nil, ErrLinkExpired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(entry.SecretHash), []byte(secret)); err != nil {
		return nil, ErrInvalidLink
	}

	// Only the caller that removes the entry gets a session
	if _, err := s.kv.Take(ctx, database.MagicLinkKey(id)); err != nil {
		if errors.Is(err, database.ErrKeyNotFound) {
			return nil, ErrLinkExpired
		}
		return nil, fmt.Errorf("failed to consume magic link: %w", err)
	}

	tokenString, expires, err := s.IssueSession(entry.Email, entry.UserID)
	if err != nil {
		return nil, err
	}
	return &Session{
		Token:       tokenString,
		Email:       entry.Email,
		UserID:      entry.UserID,
		ExpiresAt:   expires,
		RedirectURL: s.redirectURL(tokenString, entry.Email),
	}, nil
}

// IssueSession signs a session token for the user
func (s *AuthService) IssueSession(email, userID string) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(SessionTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"role":    RoleInspector,
		"iat":     now.Unix(),
		"exp":     expires.Unix(),
	})
	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session: %w", err)
	}
	return tokenString, expires, nil
}

func (s *AuthService) redirectURL(token, email string) string {
	q := url.Values{}
	q.Set("auth_token", token)
	q.Set("auth_email", email)
	base := s.cfg.AppURL
	if strings.Contains(base, "?") {
		return base + "&" + q.Encode()
	}
	return base + "?" + q.Encode()
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
