package delivery

import (
	"crypto/rsa"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/soderasen-au/go-common/util"
)

const DefaultTokenTTL = 60 * time.Minute

type UploadClaims struct {
	keyID  string `json:"-"`
	Report string `json:"report,omitempty"`
	jwt.RegisteredClaims
}

func NewUploadClaims(keyID, issuer, subject, report string, ttl time.Duration) *UploadClaims {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now()
	return &UploadClaims{
		keyID:  keyID,
		Report: report,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
}

func (c *UploadClaims) Sign(key *rsa.PrivateKey) (string, *util.Result) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, *c)
	if c.keyID != "" {
		token.Header["kid"] = c.keyID
	}
	tokenString, err := token.SignedString(key)
	if err != nil {
		return "", util.Error("SignedString", err)
	}
	return tokenString, nil
}

func LoadPrivateKey(file string) (*rsa.PrivateKey, *util.Result) {
	buf, err := os.ReadFile(file)
	if err != nil {
		return nil, util.Error("ReadKeyFile", err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(buf)
	if err != nil {
		return nil, util.Error("ParseRSAPrivateKeyFromPEM", err)
	}
	return key, nil
}

// ParseToken verifies a token signed by Sign; it is used by receivers and tests.
func ParseToken(tokenString string, key *rsa.PublicKey) (*UploadClaims, *util.Result) {
	claims := &UploadClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		return nil, util.Error("ParseToken", err)
	}
	return claims, nil
}
