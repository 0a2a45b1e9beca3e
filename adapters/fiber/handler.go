package fiber

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/tmarcial/passage/core"
)

func (a *Adapter) signup(c fiber.Ctx) error {
	var input core.SignUpInput
	if err := c.Bind().Body(&input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	result, err := a.handler.SignUp(c.Context(), input)
	if err != nil {
		return handleAuthError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"user": fiber.Map{
			"email":            result.Email,
			"subscriptionTier": result.SubscriptionTier,
		},
	})
}

func (a *Adapter) verify(c fiber.Ctx) error {
	token := c.Params("verificationToken")

	if err := a.handler.VerifyEmail(c.Context(), token); err != nil {
		return handleAuthError(c, err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Verification successful!",
	})
}

func (a *Adapter) resendVerification(c fiber.Ctx) error {
	var input struct {
		Email string `json:"email"`
	}
	if err := c.Bind().Body(&input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := a.handler.ResendVerification(c.Context(), input.Email); err != nil {
		return handleAuthError(c, err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Verification email sent",
	})
}

func (a *Adapter) login(c fiber.Ctx) error {
	var input core.SignInInput
	if err := c.Bind().Body(&input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	result, err := a.handler.SignIn(c.Context(), input)
	if err != nil {
		return handleAuthError(c, err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"sessionToken": result.SessionToken,
		"user": fiber.Map{
			"email":            result.Email,
			"subscriptionTier": result.SubscriptionTier,
		},
	})
}

func (a *Adapter) current(c fiber.Ctx) error {
	user := c.Locals("user").(*core.User)
	token := c.Locals("sessionToken").(string)

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"sessionToken": token,
		"user": fiber.Map{
			"email":            user.Email,
			"subscriptionTier": user.SubscriptionTier,
			"avatarURL":        user.AvatarURL,
		},
	})
}

func (a *Adapter) logout(c fiber.Ctx) error {
	user := c.Locals("user").(*core.User)

	if err := a.handler.SignOut(c.Context(), user); err != nil {
		return handleAuthError(c, err)
	}

	return c.SendStatus(http.StatusNoContent)
}

func (a *Adapter) updateSubscription(c fiber.Ctx) error {
	user := c.Locals("user").(*core.User)

	var input struct {
		SubscriptionTier core.Subscription `json:"subscriptionTier"`
	}
	if err := c.Bind().Body(&input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := a.handler.UpdateSubscription(c.Context(), user, input.SubscriptionTier); err != nil {
		return handleAuthError(c, err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"user": fiber.Map{
			"email":            user.Email,
			"subscriptionTier": input.SubscriptionTier,
		},
	})
}

func (a *Adapter) updateAvatar(c fiber.Ctx) error {
	user := c.Locals("user").(*core.User)

	fh, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "avatar file is required",
		})
	}

	staged := filepath.Join(a.tmpDir, uuid.NewString()+strings.ToLower(filepath.Ext(fh.Filename)))
	if err := c.SaveFile(fh, staged); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "could not stage upload",
		})
	}

	avatarURL, err := a.handler.UpdateAvatar(c.Context(), user, staged)
	if err != nil {
		return handleAuthError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"avatarURL": avatarURL,
	})
}

// handleAuthError maps service errors to appropriate HTTP responses
func handleAuthError(c fiber.Ctx, err error) error {
	status := mapErrorToStatus(err)
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// mapErrorToStatus maps error kinds to HTTP status codes
func mapErrorToStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch {
	case errors.Is(err, core.ErrEmailInUse):
		return http.StatusConflict

	case errors.Is(err, core.ErrUserNotFound):
		return http.StatusNotFound

	case errors.Is(err, core.ErrAlreadyVerified),
		errors.Is(err, core.ErrInvalidSubscription):
		return http.StatusBadRequest

	case errors.Is(err, core.ErrWrongCredentials),
		errors.Is(err, core.ErrNotVerified),
		errors.Is(err, core.ErrMissingAuthHeader),
		errors.Is(err, core.ErrInvalidToken),
		errors.Is(err, core.ErrSessionExpired),
		errors.Is(err, core.ErrSessionRevoked):
		return http.StatusUnauthorized

	default:
		return http.StatusInternalServerError
	}
}
