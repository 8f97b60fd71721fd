package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"menu-planner/internal/infrastructure/config"
	"menu-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	// UserIDKey gin context 中的使用者 ID
	UserIDKey = "user_id"
	// UserIDHeader 驗證關閉時識別使用者的標頭
	UserIDHeader = "X-User-ID"
)

// Auth 驗證呼叫者身分。啟用時驗證 HS256 Bearer token 並以 sub 作為使用者 ID，
// 關閉時改讀 X-User-ID 標頭。
func Auth(cfg config.AuthConfig) gin.HandlerFunc {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(opts...)
	secret := []byte(cfg.Secret)

	return func(c *gin.Context) {
		if !cfg.Enabled {
			userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
			if userID == "" {
				abortUnauthorized(c, "No se proporcionó el usuario")
				return
			}
			c.Set(UserIDKey, userID)
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, "No se proporcionó el token")
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		token, err := parser.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			common.LogDebug("Invalid token", zap.Error(err), zap.String("path", c.Request.URL.Path))
			abortUnauthorized(c, "Token inválido o expirado")
			return
		}

		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			abortUnauthorized(c, "Token inválido o expirado")
			return
		}

		c.Set(UserIDKey, sub)
		c.Next()
	}
}

// UserID 取得已驗證的使用者 ID
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, common.ErrorResponse{
		Error: message,
		Code:  common.ErrCodeUnauthorized,
	})
}
