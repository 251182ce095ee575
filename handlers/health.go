package handlers

import (
	"net/http"

	"voctnow/utils"

	"github.com/gin-gonic/gin"
)

// ConnectionCounter reports how many live channels are open.
type ConnectionCounter interface {
	Counts() (clients, providers int)
}

// Health returns the GET /health handler.
func Health(counter ConnectionCounter) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := gin.H{
			"status":       "ok",
			"message":      "Hi, I'm Voctnow",
			"dependencies": utils.GetHealthStatus(),
		}
		if counter != nil {
			clients, providers := counter.Counts()
			resp["connections"] = gin.H{"clients": clients, "practitioners": providers}
		}
		c.JSON(http.StatusOK, resp)
	}
}
