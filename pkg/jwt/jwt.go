package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims 令牌中携带的用户信息
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager 负责签发和校验 HS256 令牌
type TokenManager struct {
	secret     []byte
	issuer     string
	expiration time.Duration
	now        func() time.Time
}

// NewManager 创建令牌管理器，expirationHours 小于等于 0 时默认 24 小时
func NewManager(secret, issuer string, expirationHours int) *TokenManager {
	if expirationHours <= 0 {
		expirationHours = 24
	}
	return &TokenManager{
		secret:     []byte(secret),
		issuer:     issuer,
		expiration: time.Duration(expirationHours) * time.Hour,
		now:        time.Now,
	}
}

// GenerateToken 生成令牌
func (m *TokenManager) GenerateToken(userID uint, username, role string) (string, error) {
	now := m.now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("签名令牌失败: %w", err)
	}
	return signed, nil
}

// ValidateToken 校验签名、签发者和有效期
func (m *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
