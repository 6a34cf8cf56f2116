// Package router wires handlers to routes and places the authorization
// gate in front of each protected group.  Every protected route names the
// level it requires right here, so the privilege surface of the API can be
// read top to bottom in one file.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/gtarallo/assistenza-tecnica/internal/handler"
	"github.com/gtarallo/assistenza-tecnica/internal/middleware"
	"github.com/gtarallo/assistenza-tecnica/internal/policy"
)

// Deps collects everything route registration needs.
type Deps struct {
	Gate         *middleware.Gate
	Auth         *handler.AuthHandler
	AdminUsers   *handler.AdminUserHandler
	Products     *handler.ProductHandler
	Malfunctions *handler.MalfunctionHandler
	Dashboard    *handler.DashboardHandler
	RateLimit    echo.MiddlewareFunc // credential endpoints only
	Cache        echo.MiddlewareFunc // public read endpoints only
}

// RegisterRoutes registers the whole API surface.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	// Session endpoints: no gate, but rate limited against brute force.
	auth := e.Group("/v1/auth", d.RateLimit)
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.POST("/refresh-access", d.Auth.RefreshAccess)
	auth.POST("/logout", d.Auth.Logout)

	// Public catalog reads: level 1 means no session required.
	pub := e.Group("/v1", d.Cache)
	pub.GET("/products", d.Products.List)
	pub.GET("/products/:id", d.Products.Get)

	// Merely logged in: no explicit level, so the gate defaults to the
	// lowest authenticated tier.
	me := e.Group("/v1", d.Gate.RequireAuthenticated())
	me.GET("/me", d.Auth.Me)
	me.GET("/dashboard", d.Dashboard.Home)

	// Technician tier: malfunction reporting and the scored queues.
	tech := e.Group("/v1", d.Gate.RequireLevel(policy.LevelTechnician))
	tech.POST("/malfunctions", d.Malfunctions.Create)
	tech.POST("/malfunctions/:id/reports", d.Malfunctions.Report)
	tech.GET("/malfunctions", d.Malfunctions.List)
	tech.GET("/malfunctions/:id", d.Malfunctions.Get)
	tech.GET("/products/:id/malfunctions", d.Malfunctions.ByProduct)

	// Staff tier: catalog writes and reclassification.
	staff := e.Group("/v1", d.Gate.RequireLevel(policy.LevelStaff))
	staff.POST("/products", d.Products.Create)
	staff.PUT("/products/:id", d.Products.Update)
	staff.PUT("/malfunctions/:id/classification", d.Malfunctions.Classify)
	staff.GET("/staff/:id/products", d.Products.ForStaff)

	// Admin tier: identity management and the assignment directory.
	admin := e.Group("/v1", d.Gate.RequireLevel(policy.LevelAdmin))
	admin.POST("/admin/users", d.AdminUsers.Create)
	admin.PUT("/admin/users/:id/level", d.AdminUsers.UpdateLevel)
	admin.DELETE("/admin/users/:id", d.AdminUsers.Deactivate)
	admin.PUT("/admin/users/:id/center", d.AdminUsers.AssignCenter)
	admin.GET("/admin/staff", d.AdminUsers.ListStaff)
	admin.GET("/products/unassigned", d.Products.Unassigned)
	admin.PUT("/products/:id/assignee", d.Products.Assign)
	admin.POST("/products/assignee/bulk", d.Products.BulkAssign)
}
