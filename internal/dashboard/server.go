package dashboard

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/cellar-market/wine-marketplace/internal/config"
	"github.com/cellar-market/wine-marketplace/internal/observability"
	"github.com/cellar-market/wine-marketplace/internal/session"
)

const (
	sidKey      = "dashboard_sid"
	snapshotKey = "dashboard_snapshot"

	accessDeniedMessage = "Access denied. Admin privileges required."
)

// Server is the admin dashboard HTTP server.
type Server struct {
	app      *fiber.App
	cfg      config.DashboardConfig
	registry *Registry
	logger   *zap.Logger
}

// NewServer wires routes onto a new fiber app.
func NewServer(cfg config.DashboardConfig, registry *Registry, logger *zap.Logger, metrics *observability.Metrics) *Server {
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "admin_sid"
	}
	s := &Server{cfg: cfg, registry: registry, logger: logger.Named("dashboard")}

	s.app = fiber.New(fiber.Config{
		AppName:               "wine-admin-dashboard",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(observability.RequestLogger(s.logger, metrics))
	s.app.Use(recover.New())

	s.app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive", "sessions": registry.Len()})
	})
	s.app.Get("/health/metrics", func(c *fiber.Ctx) error {
		return c.JSON(metrics.Snapshot())
	})

	s.app.Use(s.sessionID)
	s.app.Get(cfg.LoginPath, s.loginPage)
	s.app.Post(cfg.LoginPath, s.loginSubmit)
	s.app.Post("/logout", s.logout)
	s.app.Get("/api/session", s.sessionState)
	s.app.Get("/", s.guard, s.overview)

	return s
}

// App exposes the fiber app for listening and tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on the configured address.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Addr())
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// sessionID assigns every browser a ULID cookie naming its auth context.
func (s *Server) sessionID(c *fiber.Ctx) error {
	// The cookie value aliases a pooled request buffer; the registry keeps it.
	sid := utils.CopyString(c.Cookies(s.cfg.CookieName))
	if _, err := ulid.ParseStrict(sid); err != nil {
		sid = ulid.Make().String()
	}
	c.Cookie(&fiber.Cookie{
		Name:     s.cfg.CookieName,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(s.cfg.SessionTTL().Seconds()),
		Secure:   s.cfg.CookieSecure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Locals(sidKey, sid)
	return c.Next()
}

func (s *Server) manager(c *fiber.Ctx) *session.Manager {
	sid, _ := c.Locals(sidKey).(string)
	return s.registry.Get(sid)
}

// snapshot verifies an UNVERIFIED context before answering, the server-side
// equivalent of the check a page runs when it mounts.
func (s *Server) snapshot(c *fiber.Ctx) session.Snapshot {
	m := s.manager(c)
	snap := m.Snapshot()
	if snap.State == session.StateUnverified {
		snap = m.CheckAuthStatus(c.UserContext())
	}
	return snap
}

// guard protects a page: placeholder while verifying, redirect when signed out.
func (s *Server) guard(c *fiber.Ctx) error {
	snap := s.snapshot(c)
	switch session.Decide(snap, c.Path(), s.cfg.LoginPath) {
	case session.DecisionLoading:
		return render(c, fiber.StatusAccepted, "loading", pageData{Title: "Loading", Refresh: true})
	case session.DecisionRedirect:
		return c.Redirect(s.cfg.LoginPath+"?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusSeeOther)
	}
	c.Locals(snapshotKey, snap)
	return c.Next()
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Something went wrong."
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		message = fe.Message
	}
	if status >= fiber.StatusInternalServerError {
		s.logger.Error("dashboard request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return render(c, status, "error", pageData{Title: "Error", Error: message})
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
