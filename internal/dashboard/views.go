package dashboard

import (
	"embed"
	"html/template"

	"github.com/gofiber/fiber/v2"

	"github.com/cellar-market/wine-marketplace/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var views = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type pageData struct {
	Title     string
	Refresh   bool
	Error     string
	Email     string
	Next      string
	LoginPath string
	User      *domain.AdminUser
}

func render(c *fiber.Ctx, status int, name string, data pageData) error {
	c.Status(status)
	c.Type("html", "utf-8")
	return views.ExecuteTemplate(c.Response().BodyWriter(), name, data)
}
