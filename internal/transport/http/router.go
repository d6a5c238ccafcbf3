package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/skvorcov/blog_backend/internal/auth"
	"github.com/skvorcov/blog_backend/internal/handlers"
	"github.com/skvorcov/blog_backend/internal/repo"
)

type Deps struct {
	DB            *gorm.DB
	Users         *repo.UserRepo
	AuthHandler   *handlers.AuthHandler
	PostHandler   *handlers.PostHandler
	UserHandler   *handlers.UserHandler
	SearchHandler *handlers.SearchHandler
}

// Register wires routes with their role requirements declared inline.
// The role set lives here, next to the route, not in handler metadata.
func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", d.AuthHandler.Register)
	authGroup.POST("/login", d.AuthHandler.Login)
	authGroup.POST("/refresh", d.AuthHandler.Refresh)
	authGroup.POST("/logout", d.AuthHandler.LogOut)

	// Empty role list: any authenticated user.
	posts := v1.Group("/posts", auth.RequireRoles(d.Users))
	posts.POST("", d.PostHandler.CreatePost)
	posts.GET("", d.PostHandler.GetPosts)
	posts.GET("/:id", d.PostHandler.GetPost)
	posts.GET("/user/:userId", d.PostHandler.GetPostsByUser)
	posts.PUT("/:id", d.PostHandler.UpdatePost)
	posts.DELETE("/:id", d.PostHandler.DeletePost)

	users := v1.Group("/users")
	users.GET("", d.UserHandler.GetUsers, auth.RequireRoles(d.Users, "admin"))
	users.GET("/:id", d.UserHandler.GetUser, auth.RequireRoles(d.Users, "admin"))
	users.PUT("/:id", d.UserHandler.UpdateUser, auth.RequireRoles(d.Users, "admin", "user"))
	users.DELETE("/:id", d.UserHandler.DeleteUser, auth.RequireRoles(d.Users, "admin"))

	v1.GET("/search", d.SearchHandler.Handler, auth.RequireRoles(d.Users))
}
