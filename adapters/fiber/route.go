package fiber

import (
	"github.com/gofiber/fiber/v3"

	"github.com/tmarcial/passage/core"
)

// Adapter mounts the auth endpoints on a fiber v3 app. Uploads are staged
// into tmpDir before the avatar pipeline takes over.
type Adapter struct {
	app     *fiber.App
	tmpDir  string
	handler core.AuthHandler
}

var _ core.HTTPAdapter = (*Adapter)(nil)

func New(app *fiber.App, tmpDir string) *Adapter {
	return &Adapter{app: app, tmpDir: tmpDir}
}

func (a *Adapter) RegisterRoutes(handler core.AuthHandler, basePath string) error {
	a.handler = handler
	api := a.app.Group(basePath)

	// Public routes
	api.Post("/signup", a.signup)
	api.Get("/verify/:verificationToken", a.verify)
	api.Post("/verify", a.resendVerification)
	api.Post("/login", a.login)

	// Protected routes; requireAuth runs before the handler
	api.Get("/current", a.requireAuth, a.current)
	api.Get("/logout", a.requireAuth, a.logout)
	api.Patch("/", a.requireAuth, a.updateSubscription)
	api.Patch("/avatars", a.requireAuth, a.updateAvatar)

	return nil
}
