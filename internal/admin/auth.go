package admin

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenIssuer = "minicart-admin"

// Guard authenticates the single dashboard operator: a bcrypt-checked
// password buys a short-lived HS256 token.
type Guard struct {
	hash   []byte
	secret []byte
}

func NewGuard(password, jwtSecret string) (*Guard, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &Guard{hash: hash, secret: []byte(jwtSecret)}, nil
}

func (g *Guard) Verify(password string) bool {
	return bcrypt.CompareHashAndPassword(g.hash, []byte(password)) == nil
}

func (g *Guard) NewToken(ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(g.secret)
}

func (g *Guard) ParseToken(tokenStr string) error {
	var c jwt.RegisteredClaims

	token, err := jwt.ParseWithClaims(tokenStr, &c, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return g.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return errors.New("invalid token")
	}
	if c.Issuer != tokenIssuer {
		return errors.New("invalid issuer")
	}
	return nil
}
