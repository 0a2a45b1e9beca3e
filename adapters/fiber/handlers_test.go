package fiber

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/tmarcial/passage/core"
)

// mockAuthHandler is a test fake implementing core.AuthHandler
type mockAuthHandler struct {
	signUpCalled bool
	signUpInput  core.SignUpInput
	signUpErr    error
	signUpResult *core.SignUpResult

	verifyCalled bool
	verifyToken  string
	verifyErr    error

	resendCalled bool
	resendEmail  string
	resendErr    error

	signInCalled bool
	signInInput  core.SignInInput
	signInErr    error
	signInResult *core.SignInResult

	signOutCalled bool
	signOutErr    error

	authErr  error
	authUser *core.User

	updateSubCalled bool
	updateSubTier   core.Subscription
	updateSubErr    error

	updateAvatarCalled bool
	updateAvatarPath   string
	updateAvatarErr    error
	updateAvatarURL    string
}

func (m *mockAuthHandler) SignUp(ctx context.Context, input core.SignUpInput) (*core.SignUpResult, error) {
	m.signUpCalled = true
	m.signUpInput = input
	if m.signUpErr != nil {
		return nil, m.signUpErr
	}
	return m.signUpResult, nil
}

func (m *mockAuthHandler) VerifyEmail(ctx context.Context, token string) error {
	m.verifyCalled = true
	m.verifyToken = token
	return m.verifyErr
}

func (m *mockAuthHandler) ResendVerification(ctx context.Context, email string) error {
	m.resendCalled = true
	m.resendEmail = email
	return m.resendErr
}

func (m *mockAuthHandler) SignIn(ctx context.Context, input core.SignInInput) (*core.SignInResult, error) {
	m.signInCalled = true
	m.signInInput = input
	if m.signInErr != nil {
		return nil, m.signInErr
	}
	return m.signInResult, nil
}

func (m *mockAuthHandler) SignOut(ctx context.Context, user *core.User) error {
	m.signOutCalled = true
	return m.signOutErr
}

func (m *mockAuthHandler) Authenticate(ctx context.Context, token string) (*core.User, error) {
	if m.authErr != nil {
		return nil, m.authErr
	}
	return m.authUser, nil
}

func (m *mockAuthHandler) UpdateSubscription(ctx context.Context, user *core.User, tier core.Subscription) error {
	m.updateSubCalled = true
	m.updateSubTier = tier
	return m.updateSubErr
}

func (m *mockAuthHandler) UpdateAvatar(ctx context.Context, user *core.User, stagedPath string) (string, error) {
	m.updateAvatarCalled = true
	m.updateAvatarPath = stagedPath
	if m.updateAvatarErr != nil {
		return "", m.updateAvatarErr
	}
	return m.updateAvatarURL, nil
}

func newTestApp(t *testing.T, mock *mockAuthHandler) *fiber.App {
	t.Helper()

	app := fiber.New()
	adapter := New(app, t.TempDir())
	if err := adapter.RegisterRoutes(mock, "/api/auth"); err != nil {
		t.Fatalf("RegisterRoutes() error = %v", err)
	}
	return app
}

func jsonRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return body
}

// Requirement: POST /signup forwards the payload to the service and responds
// 201 with email and tier nested under "user".
func TestSignupRoute(t *testing.T) {
	// Arrange
	mock := &mockAuthHandler{
		signUpResult: &core.SignUpResult{Email: "ada@example.com", SubscriptionTier: core.SubscriptionStarter},
	}
	app := newTestApp(t, mock)

	// Act
	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    "ada@example.com",
		"password": "pw",
	}))

	// Assert
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	if !mock.signUpCalled {
		t.Fatal("SignUp was not called")
	}
	if mock.signUpInput.Email != "ada@example.com" {
		t.Errorf("forwarded email = %q", mock.signUpInput.Email)
	}

	body := decodeBody(t, resp)
	user, ok := body["user"].(map[string]any)
	if !ok {
		t.Fatalf("response lacks user object: %v", body)
	}
	if user["email"] != "ada@example.com" {
		t.Errorf("user.email = %v", user["email"])
	}
	if user["subscriptionTier"] != string(core.SubscriptionStarter) {
		t.Errorf("user.subscriptionTier = %v", user["subscriptionTier"])
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Error("response leaks password hash")
	}
}

// Requirement: service errors map onto the documented status codes.
func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "email in use", err: core.ErrEmailInUse, wantStatus: http.StatusConflict},
		{name: "user not found", err: core.ErrUserNotFound, wantStatus: http.StatusNotFound},
		{name: "already verified", err: core.ErrAlreadyVerified, wantStatus: http.StatusBadRequest},
		{name: "invalid subscription", err: core.ErrInvalidSubscription, wantStatus: http.StatusBadRequest},
		{name: "wrong credentials", err: core.ErrWrongCredentials, wantStatus: http.StatusUnauthorized},
		{name: "not verified", err: core.ErrNotVerified, wantStatus: http.StatusUnauthorized},
		{name: "session expired", err: core.ErrSessionExpired, wantStatus: http.StatusUnauthorized},
		{name: "session revoked", err: core.ErrSessionRevoked, wantStatus: http.StatusUnauthorized},
		{name: "wrapped internal", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			if got := mapErrorToStatus(test.err); got != test.wantStatus {
				t.Errorf("mapErrorToStatus(%v) = %d, want %d", test.err, got, test.wantStatus)
			}
		})
	}
}

// Requirement: GET /verify/:token consumes the path token; unknown tokens
// come back 404.
func TestVerifyRoute(t *testing.T) {
	tests := []struct {
		name       string
		verifyErr  error
		wantStatus int
	}{
		{name: "success", verifyErr: nil, wantStatus: http.StatusOK},
		{name: "unknown token", verifyErr: core.ErrUserNotFound, wantStatus: http.StatusNotFound},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			mock := &mockAuthHandler{verifyErr: test.verifyErr}
			app := newTestApp(t, mock)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/auth/verify/token-abc", nil))

			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			if resp.StatusCode != test.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, test.wantStatus)
			}
			if mock.verifyToken != "token-abc" {
				t.Errorf("forwarded token = %q", mock.verifyToken)
			}
			if test.wantStatus == http.StatusOK {
				body := decodeBody(t, resp)
				if body["message"] != "Verification successful!" {
					t.Errorf("message = %v", body["message"])
				}
			}
		})
	}
}

// Requirement: POST /verify resends the mail for the posted email.
func TestResendVerificationRoute(t *testing.T) {
	mock := &mockAuthHandler{}
	app := newTestApp(t, mock)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/verify", map[string]string{
		"email": "ada@example.com",
	}))

	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if mock.resendEmail != "ada@example.com" {
		t.Errorf("forwarded email = %q", mock.resendEmail)
	}
}

// Requirement: POST /login responds 200 with a top-level sessionToken plus
// the user object, and 401 on bad credentials.
func TestLoginRoute(t *testing.T) {
	tests := []struct {
		name       string
		signInErr  error
		wantStatus int
	}{
		{name: "success", wantStatus: http.StatusOK},
		{name: "wrong credentials", signInErr: core.ErrWrongCredentials, wantStatus: http.StatusUnauthorized},
		{name: "unverified", signInErr: core.ErrNotVerified, wantStatus: http.StatusUnauthorized},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			mock := &mockAuthHandler{
				signInErr: test.signInErr,
				signInResult: &core.SignInResult{
					SessionToken:     "jwt-token",
					Email:            "ada@example.com",
					SubscriptionTier: core.SubscriptionPro,
				},
			}
			app := newTestApp(t, mock)

			resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
				"email":    "ada@example.com",
				"password": "pw",
			}))

			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			if resp.StatusCode != test.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, test.wantStatus)
			}
			if test.wantStatus != http.StatusOK {
				return
			}
			body := decodeBody(t, resp)
			if body["sessionToken"] != "jwt-token" {
				t.Errorf("sessionToken = %v", body["sessionToken"])
			}
			user, _ := body["user"].(map[string]any)
			if user["subscriptionTier"] != string(core.SubscriptionPro) {
				t.Errorf("user.subscriptionTier = %v", user["subscriptionTier"])
			}
		})
	}
}

// Requirement: protected routes reject requests without a bearer token and
// requests whose token fails the gate, both with 401.
func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name       string
		authHeader string
		authErr    error
		wantStatus int
	}{
		{name: "missing header", authHeader: "", authErr: nil, wantStatus: http.StatusUnauthorized},
		{name: "not a bearer token", authHeader: "Basic abc", authErr: nil, wantStatus: http.StatusUnauthorized},
		{name: "invalid token", authHeader: "Bearer bad", authErr: core.ErrInvalidToken, wantStatus: http.StatusUnauthorized},
		{name: "expired session", authHeader: "Bearer old", authErr: core.ErrSessionExpired, wantStatus: http.StatusUnauthorized},
		{name: "revoked session", authHeader: "Bearer stale", authErr: core.ErrSessionRevoked, wantStatus: http.StatusUnauthorized},
		{name: "valid token", authHeader: "Bearer good", authErr: nil, wantStatus: http.StatusOK},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			mock := &mockAuthHandler{
				authErr:  test.authErr,
				authUser: &core.User{ID: "user-1", Email: "ada@example.com", SubscriptionTier: core.SubscriptionStarter},
			}
			app := newTestApp(t, mock)

			req := httptest.NewRequest(http.MethodGet, "/api/auth/current", nil)
			if test.authHeader != "" {
				req.Header.Set(fiber.HeaderAuthorization, test.authHeader)
			}
			resp, err := app.Test(req)

			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			if resp.StatusCode != test.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, test.wantStatus)
			}
		})
	}
}

// Requirement: GET /current echoes the presented token and the gate-resolved
// user, including the avatar URL.
func TestCurrentRoute(t *testing.T) {
	avatarURL := "http://localhost:3000/avatars/user-1_pic.png"
	mock := &mockAuthHandler{
		authUser: &core.User{
			ID:               "user-1",
			Email:            "ada@example.com",
			SubscriptionTier: core.SubscriptionBusiness,
			AvatarURL:        &avatarURL,
		},
	}
	app := newTestApp(t, mock)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/current", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer jwt-token")
	resp, err := app.Test(req)

	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body := decodeBody(t, resp)
	if body["sessionToken"] != "jwt-token" {
		t.Errorf("sessionToken = %v", body["sessionToken"])
	}
	user, _ := body["user"].(map[string]any)
	if user["avatarURL"] != avatarURL {
		t.Errorf("user.avatarURL = %v", user["avatarURL"])
	}
}

// Requirement: GET /logout responds 204 with no body and reaches SignOut.
func TestLogoutRoute(t *testing.T) {
	mock := &mockAuthHandler{
		authUser: &core.User{ID: "user-1", Email: "ada@example.com"},
	}
	app := newTestApp(t, mock)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/logout", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer jwt-token")
	resp, err := app.Test(req)

	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	if !mock.signOutCalled {
		t.Error("SignOut was not called")
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if len(data) != 0 {
		t.Errorf("logout body = %q, want empty", data)
	}
}

// Requirement: PATCH / forwards the posted tier; an unknown tier comes back
// 400.
func TestUpdateSubscriptionRoute(t *testing.T) {
	tests := []struct {
		name       string
		tier       string
		updateErr  error
		wantStatus int
	}{
		{name: "upgrade to business", tier: "business", wantStatus: http.StatusOK},
		{name: "unknown tier", tier: "platinum", updateErr: core.ErrInvalidSubscription, wantStatus: http.StatusBadRequest},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			mock := &mockAuthHandler{
				authUser:     &core.User{ID: "user-1", Email: "ada@example.com"},
				updateSubErr: test.updateErr,
			}
			app := newTestApp(t, mock)

			req := jsonRequest(http.MethodPatch, "/api/auth/", map[string]string{
				"subscriptionTier": test.tier,
			})
			req.Header.Set(fiber.HeaderAuthorization, "Bearer jwt-token")
			resp, err := app.Test(req)

			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			if resp.StatusCode != test.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, test.wantStatus)
			}
			if mock.updateSubTier != core.Subscription(test.tier) {
				t.Errorf("forwarded tier = %q, want %q", mock.updateSubTier, test.tier)
			}
		})
	}
}

// Requirement: PATCH /avatars stages the multipart upload into the temp
// directory and responds 201 with the new URL; a request without a file is a
// 400.
func TestUpdateAvatarRoute(t *testing.T) {
	// Arrange
	mock := &mockAuthHandler{
		authUser:        &core.User{ID: "user-1", Email: "ada@example.com"},
		updateAvatarURL: "http://localhost:3000/avatars/user-1_pic.png",
	}
	app := newTestApp(t, mock)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("avatar", "pic.PNG")
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if err := png.Encode(part, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPatch, "/api/auth/avatars", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer jwt-token")

	// Act
	resp, err := app.Test(req)

	// Assert
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	if !mock.updateAvatarCalled {
		t.Fatal("UpdateAvatar was not called")
	}
	if !strings.HasSuffix(mock.updateAvatarPath, ".png") {
		t.Errorf("staged path %q should carry the lowercased extension", mock.updateAvatarPath)
	}

	body := decodeBody(t, resp)
	if body["avatarURL"] != mock.updateAvatarURL {
		t.Errorf("avatarURL = %v", body["avatarURL"])
	}
}

func TestUpdateAvatarRoute_MissingFile(t *testing.T) {
	mock := &mockAuthHandler{
		authUser: &core.User{ID: "user-1", Email: "ada@example.com"},
	}
	app := newTestApp(t, mock)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	w.Close()

	req := httptest.NewRequest(http.MethodPatch, "/api/auth/avatars", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer jwt-token")
	resp, err := app.Test(req)

	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if mock.updateAvatarCalled {
		t.Error("UpdateAvatar should not run without a file")
	}
}
