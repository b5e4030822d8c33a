package secrets

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/guardia-io/guardia/internal/config"
)

var ErrInvalidToken = errors.New("invalid token")

// randomCharset is the alphabet for generated secrets. It always includes
// digits so generated 2FA codes and temporary passwords carry numbers.
const randomCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type Service struct {
	config *config.AuthConfig
}

// Claims is the token payload presented on every authenticated request.
type Claims struct {
	Name   string `json:"name"`
	RoleID string `json:"roleId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func NewService(config *config.AuthConfig) *Service {
	return &Service{config: config}
}

// RandomText returns a random string of exactly n characters drawn from a
// charset that includes digits, suitable for 2FA codes and temporary
// passwords. It reads from crypto/rand; rejection-free modular sampling is
// avoided by using rand.Int over the charset size.
func (s *Service) RandomText(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("random text length must be positive, got %d", n)
	}

	max := big.NewInt(int64(len(randomCharset)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}
		out[i] = randomCharset[idx.Int64()]
	}

	return string(out), nil
}

func (s *Service) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func (s *Service) CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// IssueToken signs a token carrying the subject's display name, role id and
// email. Expiry comes from configuration; the signing secret is process-wide
// and read-only after startup.
func (s *Service) IssueToken(name, roleID, email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Name:   name,
		RoleID: roleID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   email,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// VerifyToken parses and validates a signed token. Any parse, signature or
// expiry failure is reported as ErrInvalidToken; callers must not be able to
// distinguish why verification failed.
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// RoleFromToken extracts the role id claim without the caller needing to know
// the claim layout.
func (s *Service) RoleFromToken(tokenString string) (string, error) {
	claims, err := s.VerifyToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.RoleID, nil
}
