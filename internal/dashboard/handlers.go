package dashboard

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/cellar-market/wine-marketplace/internal/session"
)

func (s *Server) loginPage(c *fiber.Ctx) error {
	next := safeNext(c.Query("next"))
	snap := s.snapshot(c)
	if snap.IsAuthenticated {
		return c.Redirect(next, fiber.StatusSeeOther)
	}
	return render(c, fiber.StatusOK, "login", pageData{
		Title:     "Sign in",
		Next:      next,
		LoginPath: s.cfg.LoginPath,
	})
}

func (s *Server) loginSubmit(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")
	next := safeNext(c.FormValue("next"))

	data := pageData{Title: "Sign in", Email: email, Next: next, LoginPath: s.cfg.LoginPath}
	if email == "" || password == "" {
		data.Error = "Email and password are required."
		return render(c, fiber.StatusBadRequest, "login", data)
	}

	_, err := s.manager(c).Login(c.UserContext(), email, password)
	if err == nil {
		return c.Redirect(next, fiber.StatusSeeOther)
	}

	var loginErr *session.LoginError
	switch {
	case errors.Is(err, session.ErrAccessDenied):
		data.Error = accessDeniedMessage
		return render(c, fiber.StatusForbidden, "login", data)
	case errors.As(err, &loginErr):
		data.Error = loginErr.Message
		return render(c, fiber.StatusUnauthorized, "login", data)
	default:
		s.logger.Error("login could not be completed", zap.Error(err))
		data.Error = "Login failed"
		return render(c, fiber.StatusInternalServerError, "login", data)
	}
}

func (s *Server) logout(c *fiber.Ctx) error {
	if err := s.manager(c).Logout(c.UserContext()); err != nil {
		s.logger.Warn("logout left a stored session behind", zap.Error(err))
	}
	return c.Redirect(s.cfg.LoginPath, fiber.StatusSeeOther)
}

func (s *Server) sessionState(c *fiber.Ctx) error {
	return c.JSON(s.snapshot(c))
}

func (s *Server) overview(c *fiber.Ctx) error {
	snap, _ := c.Locals(snapshotKey).(session.Snapshot)
	return render(c, fiber.StatusOK, "overview", pageData{Title: "Overview", User: snap.User})
}
