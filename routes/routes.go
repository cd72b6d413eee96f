package routes

import (
	"time"

	"tidybook/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterChatRoutes registers the public widget endpoints.
func RegisterChatRoutes(r *gin.Engine, ch *handlers.ChatHandler) {
	api := r.Group("/api")
	{
		api.POST("/chat", ch.HandleChat)
		api.GET("/chat/stream/:conversationId", ch.HandleStream)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/api/health", handlers.HandleHealth)
}

// RegisterRoutes wires CORS and every route group. The widget is embedded on
// customer sites, so all origins are allowed on the chat surface.
func RegisterRoutes(r *gin.Engine, ch *handlers.ChatHandler) {
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterChatRoutes(r, ch)
	RegisterHealthRoute(r)
}
