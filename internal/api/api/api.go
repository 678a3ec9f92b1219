package api

import (
	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"

	"matchmaker/cmd/middleware"
	"matchmaker/internal/auth"
	"matchmaker/internal/model"
	"matchmaker/internal/service"
)

type Routers struct {
	Service service.Service
	Issuer  *auth.Issuer
	// Mode is passed to ginext.New; empty means release.
	Mode string
}

func NewRouters(r *Routers) *ginext.Engine {
	mode := r.Mode
	if mode == "" {
		mode = "release"
	}
	app := ginext.New(mode)

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
	}))
	apiGroup := app.Group("/v1")

	apiGroup.POST("/auth/register", r.Service.Register)
	apiGroup.POST("/auth/login", r.Service.Login)
	apiGroup.GET("/events", r.Service.ListEvents)
	apiGroup.GET("/events/:id", r.Service.GetEvent)

	authed := apiGroup.Group("", middleware.RequireAuth(r.Issuer))
	authed.POST("/auth/logout", r.Service.Logout)
	authed.GET("/me", r.Service.GetMe)
	authed.PUT("/me", r.Service.UpdateMe)
	authed.GET("/me/stats", r.Service.MyStats)
	authed.GET("/me/notifications", r.Service.MyNotifications)
	authed.POST("/me/notifications/read", r.Service.ReadNotifications)
	authed.GET("/recommendations", r.Service.Recommendations)
	authed.POST("/events/:id/register", r.Service.SignUp)

	organizer := authed.Group("", middleware.RequireRole(model.RoleOrganizer))
	organizer.POST("/events", r.Service.CreateEvent)
	organizer.PUT("/events/:id", r.Service.UpdateEvent)
	organizer.DELETE("/events/:id", r.Service.DeleteEvent)
	organizer.POST("/events/:id/volunteers/:userId/approve", r.Service.ApproveVolunteer)
	organizer.POST("/events/:id/volunteers/:userId/deny", r.Service.DenyVolunteer)
	organizer.GET("/organizer/applicants", r.Service.Applicants)

	admin := authed.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	admin.GET("/events/pending", r.Service.PendingEvents)
	admin.POST("/events/:id/approve", r.Service.ApproveEvent)
	admin.POST("/events/:id/reject", r.Service.RejectEvent)
	admin.GET("/stats", r.Service.AdminStats)
	admin.GET("/users", r.Service.ListUsers)

	return app
}
