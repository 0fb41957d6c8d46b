package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"sigmine/internal/models"
	"sigmine/internal/service"
)

const agentContextKey = "authenticated_agent"

func apiKeyFrom(c *gin.Context) string {
	if key := strings.TrimSpace(c.GetHeader("X-API-Key")); key != "" {
		return key
	}
	return strings.TrimSpace(c.Query("api_key"))
}

// RequireAgent authenticates the request. A missing key is a 401, an
// unrecognized key a 403.
func RequireAgent(registry *service.RegistryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, err := registry.Authenticate(c.Request.Context(), apiKeyFrom(c))
		if err != nil {
			Fail(c, err)
			c.Abort()
			return
		}
		c.Set(agentContextKey, agent)
		c.Next()
	}
}

// OptionalAgent resolves the caller when a valid key is present and
// passes the request through anonymously otherwise.
func OptionalAgent(registry *service.RegistryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := apiKeyFrom(c); key != "" {
			if agent, err := registry.Authenticate(c.Request.Context(), key); err == nil {
				c.Set(agentContextKey, agent)
			}
		}
		c.Next()
	}
}

func agentFrom(c *gin.Context) *models.Agent {
	if val, ok := c.Get(agentContextKey); ok {
		if agent, ok := val.(*models.Agent); ok {
			return agent
		}
	}
	return nil
}
