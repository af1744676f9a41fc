package router

import (
	"prompthub/internal/handlers"
	"prompthub/internal/middleware"
	"prompthub/internal/votes"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, engine *votes.Engine) {
	// Handlers
	authHandler := handlers.NewAuthHandler()
	promptHandler := handlers.NewPromptHandler()
	voteHandler := handlers.NewVoteHandler(engine)

	// Public Routes
	r.GET("/", promptHandler.List)      // feed, ?q= filters by title
	r.GET("/p/:id", promptHandler.Detail)

	r.GET("/signup", authHandler.ShowRegister)
	r.POST("/signup", authHandler.Register)
	r.GET("/login", authHandler.ShowLogin)
	r.POST("/login", authHandler.Login)
	r.GET("/logout", authHandler.Logout)

	// Protected Routes
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/submit", promptHandler.ShowCreate)
		authorized.POST("/submit", promptHandler.Create)
		authorized.GET("/p/:id/edit", promptHandler.ShowEdit)
		authorized.POST("/p/:id/edit", promptHandler.Update)
		authorized.DELETE("/p/:id", promptHandler.Delete)
		authorized.GET("/mine", promptHandler.MyPrompts)

		authorized.POST("/vote/:id/:direction", voteHandler.Vote)
	}
}
