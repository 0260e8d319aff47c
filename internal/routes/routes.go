package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"passkeeper/internal/handlers"
	"passkeeper/internal/logging"
	"passkeeper/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	passwordHandler *handlers.PasswordHandler,
	imageHandler *handlers.ImageHandler,
	resolver middleware.UserResolver,
	log logging.Logger,
) *gin.Engine {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	requireUser := middleware.AuthMiddleware(resolver, log)

	// ---- public
	auth := r.Group("/auth")
	{
		auth.POST("/token", authHandler.Token)
		auth.POST("/register", authHandler.Register)
		auth.POST("/verify-email", authHandler.VerifyEmail)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
		auth.POST("/send-2F", authHandler.SendSecondFactor)
		auth.POST("/verify-2F", authHandler.VerifySecondFactor)
		auth.GET("/generate-password", authHandler.GeneratePassword)
	}

	// USERS
	users := r.Group("/users")
	{
		users.POST("/register", userHandler.Register)

		me := users.Group("", requireUser)
		me.GET("/", userHandler.ListUsers)
		me.POST("/", userHandler.CreateUser)
		me.GET("/me", userHandler.Me)
		me.PATCH("/me", userHandler.UpdateMe)
		me.PATCH("/me/password", userHandler.ChangePassword)
		me.GET("/:id", userHandler.GetUser)
		me.DELETE("/:id", userHandler.DeleteUser)
	}

	// PASSWORDS
	passwords := r.Group("/passwords", requireUser)
	{
		passwords.POST("/", passwordHandler.Create)
		passwords.GET("/", passwordHandler.List)
		passwords.GET("/search", passwordHandler.Search)
		passwords.PUT("/:id", passwordHandler.Replace)
		passwords.PATCH("/me/:id", passwordHandler.Patch)
		passwords.DELETE("/:id", passwordHandler.Delete)
	}

	// IMAGE
	image := r.Group("/image", requireUser)
	{
		image.GET("/generate", imageHandler.Generate)
	}

	return r
}
