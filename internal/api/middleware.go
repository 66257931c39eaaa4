package api

import (
	"net/http"
	"strings"

	"github.com/annel0/brick-sandbox/internal/auth"
	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

// builderMiddleware проверяет Bearer-токен с ролью builder.
// Без издателя токенов сервер открыт и проверка пропускается.
func (rs *RestServer) builderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rs.issuer == nil {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "Отсутствует токен авторизации")
			return
		}

		// Проверяем формат "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abort(c, http.StatusUnauthorized, "Неверный формат токена")
			return
		}

		claims, err := rs.issuer.Validate(parts[1])
		if err != nil {
			abort(c, http.StatusUnauthorized, "Недействительный токен")
			return
		}

		if !claims.CanBuild() {
			abort(c, http.StatusForbidden, "Недостаточно прав доступа")
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// claimsFrom возвращает проверенные claims запроса (nil без авторизации)
func claimsFrom(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, GenericResponse{Success: false, Message: message})
}

// corsMiddleware разрешает запросы из браузерного клиента
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
