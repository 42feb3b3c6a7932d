package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken token 解析或校验失败
var ErrInvalidToken = errors.New("invalid token")

// ContextUserIDKey gin context 中存放已鉴权用户 ID 的键
const ContextUserIDKey = "user_id"

// Claims 平台签发的 JWT 声明
type Claims struct {
	AccountType string `json:"account_type"`
	jwt.RegisteredClaims
}

// ParseJWT 校验 HS256 签名并解析声明
func ParseJWT(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExtractBearer 从 Authorization 头中提取 bearer token
func ExtractBearer(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Auth bearer 鉴权中间件，token subject 即操作用户 ID
func Auth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractBearer(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "missing token"})
			return
		}

		claims, err := ParseJWT(token, secret)
		if err != nil || claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid token"})
			return
		}

		c.Set(ContextUserIDKey, claims.Subject)
		c.Next()
	}
}

// UserID 返回已鉴权用户 ID
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserIDKey)
}
