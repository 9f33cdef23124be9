package registry

import (
	"github.com/labstack/echo/v4"

	"ruralsite/internal/api/controllers"
	"ruralsite/internal/models"
	"ruralsite/internal/services"
)

// Resource paths under /api/v1.
const (
	PathProducts     = "/products"
	PathBlogPosts    = "/blog-posts"
	PathStories      = "/stories"
	PathJobs         = "/jobs"
	PathDistributors = "/distributors"
	PathPageSections = "/page-sections"
)

// Services holds one content service per resource.
type Services struct {
	Products     *services.ContentService[models.Product, *models.Product]
	BlogPosts    *services.ContentService[models.BlogPost, *models.BlogPost]
	Stories      *services.ContentService[models.Story, *models.Story]
	Jobs         *services.ContentService[models.JobPosting, *models.JobPosting]
	Distributors *services.ContentService[models.Distributor, *models.Distributor]
	PageSections *services.ContentService[models.PageSection, *models.PageSection]
}

// NewServices builds every content service from shared dependencies.
func NewServices(deps services.Deps) *Services {
	return &Services{
		Products:     services.NewContentService[models.Product](deps),
		BlogPosts:    services.NewContentService[models.BlogPost](deps),
		Stories:      services.NewContentService[models.Story](deps),
		Jobs:         services.NewContentService[models.JobPosting](deps),
		Distributors: services.NewContentService[models.Distributor](deps),
		PageSections: services.NewContentService[models.PageSection](deps),
	}
}

// Tables lists the backing tables, used to subscribe to content events.
func (s *Services) Tables() []string {
	return []string{
		s.Products.Table(),
		s.BlogPosts.Table(),
		s.Stories.Table(),
		s.Jobs.Table(),
		s.Distributors.Table(),
		s.PageSections.Table(),
	}
}

// RegisterContentRoutes registers CRUD routes for all content types. gate
// guards every mutating route and the admin views.
func RegisterContentRoutes(g *echo.Group, svc *Services, gate echo.MiddlewareFunc) {
	Register(g, PathProducts, controllers.NewContentController(svc.Products), gate)
	Register(g, PathBlogPosts, controllers.NewContentController(svc.BlogPosts), gate)
	Register(g, PathStories, controllers.NewContentController(svc.Stories), gate)
	Register(g, PathJobs, controllers.NewContentController(svc.Jobs), gate)
	Register(g, PathDistributors, controllers.NewContentController(svc.Distributors), gate)
	Register(g, PathPageSections, controllers.NewContentController(svc.PageSections), gate)
}

// Register wires one resource. Public reads are open; every other route
// carries gate as route middleware so it runs before the handler reads the
// body.
func Register[T any, PT services.ContentPtr[T]](g *echo.Group, path string, c *controllers.ContentController[T, PT], gate echo.MiddlewareFunc) {
	g.GET(path, c.List)
	g.GET(path+"/:id", c.Get)

	g.GET("/admin"+path, c.AdminList, gate)
	g.GET("/admin"+path+"/:id", c.AdminGet, gate)

	g.POST(path, c.Create, gate)
	g.POST(path+"/:id", c.Update, gate)
	g.PUT(path+"/:id", c.Update, gate)
	g.PATCH(path+"/:id", c.Update, gate)
	g.DELETE(path+"/:id", c.Delete, gate)
}
