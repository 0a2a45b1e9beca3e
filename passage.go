package passage

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tmarcial/passage/adapters/mail"
	"github.com/tmarcial/passage/core"
	"github.com/tmarcial/passage/pkg/cache"
	"github.com/tmarcial/passage/pkg/crypto"
	"github.com/tmarcial/passage/services"
)

// interfaces
type (
	UserStorage = core.UserStorage
	Cache       = core.Cache
	Mailer      = core.Mailer

	HTTPAdapter = core.HTTPAdapter
	AuthHandler = core.AuthHandler

	PasswordHandler = crypto.PasswordHandler
)

// structs
type (
	User         = core.User
	Subscription = core.Subscription
	SignUpInput  = core.SignUpInput
	SignUpResult = core.SignUpResult
	SignInInput  = core.SignInInput
	SignInResult = core.SignInResult
	CacheConfig  = core.CacheConfig
	CacheStats   = core.CacheStats
	AvatarConfig = services.AvatarConfig
)

const (
	SubscriptionStarter  = core.SubscriptionStarter
	SubscriptionPro      = core.SubscriptionPro
	SubscriptionBusiness = core.SubscriptionBusiness
)

const (
	defaultBasePath   = "/api/auth"
	defaultSecretLen  = 32
	defaultSessionTTL = time.Hour
)

// Constructors & helpers (convenience re-exports)
var (
	NewInMemoryCache = cache.NewInMemoryCache
	NewArgon2        = crypto.NewArgon2
	NewLogMailer     = mail.NewLogMailer
)

var (
	ErrEmailInUse   = core.ErrEmailInUse
	ErrUserNotFound = core.ErrUserNotFound
)

var (
	ErrWrongCredentials = core.ErrWrongCredentials
	ErrNotVerified      = core.ErrNotVerified
	ErrAlreadyVerified  = core.ErrAlreadyVerified
)

var (
	ErrMissingAuthHeader = core.ErrMissingAuthHeader
	ErrInvalidToken      = core.ErrInvalidToken
	ErrSessionExpired    = core.ErrSessionExpired
	ErrSessionRevoked    = core.ErrSessionRevoked
	ErrCacheNotFound     = core.ErrCacheNotFound
)

var (
	ErrInvalidSubscription = core.ErrInvalidSubscription
	ErrInternal            = core.ErrInternal
)

var (
	ErrStorageRequired     = core.ErrStorageRequired
	ErrHTTPAdapterRequired = core.ErrHTTPAdapterRequired
	ErrSecretRequired      = core.ErrSecretRequired
	ErrSecretTooShort      = core.ErrSecretTooShort
	ErrBaseURLRequired     = core.ErrBaseURLRequired
	ErrAvatarDirRequired   = core.ErrAvatarDirRequired
)

// Config wires the collaborators together. Secret, Storage, HTTP, BaseURL
// and AvatarDir are required; everything else has a sensible default.
type Config struct {
	Secret string

	Storage core.UserStorage

	HTTP core.HTTPAdapter

	// BaseURL is the public origin, used in avatar URLs and mail links.
	BaseURL string

	// AvatarDir is permanent avatar storage, served under BaseURL/avatars.
	AvatarDir string

	// Optional config
	Mailer         core.Mailer
	CacheAdapter   core.Cache
	DisableCache   bool
	PasswordHasher crypto.PasswordHandler
	SessionTTL     time.Duration
	BasePath       string
	AvatarSize     int
	Logger         *slog.Logger
}

// Passage exposes the wired service. Handler is what adapters talk to.
type Passage struct {
	Handler  core.AuthHandler
	BasePath string
}

func New(config Config) (*Passage, error) {
	if config.Secret == "" {
		return nil, ErrSecretRequired
	}
	if len(config.Secret) < defaultSecretLen {
		return nil, fmt.Errorf("%w - minimum of %d characters", ErrSecretTooShort, defaultSecretLen)
	}
	if config.Storage == nil {
		return nil, ErrStorageRequired
	}
	if config.HTTP == nil {
		return nil, ErrHTTPAdapterRequired
	}
	if config.BaseURL == "" {
		return nil, ErrBaseURLRequired
	}
	if config.AvatarDir == "" {
		return nil, ErrAvatarDirRequired
	}

	// Set Defaults

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cacheAdapter := config.CacheAdapter
	if cacheAdapter == nil && !config.DisableCache {
		cacheAdapter = cache.NewInMemoryCache(CacheConfig{
			TTL:     5 * time.Minute,
			MaxSize: 500,
		})
	}

	sessionTTL := config.SessionTTL
	if sessionTTL == 0 {
		sessionTTL = defaultSessionTTL
	}

	passwordHasher := config.PasswordHasher
	if passwordHasher == nil {
		passwordHasher = crypto.NewArgon2()
	}

	mailer := config.Mailer
	if mailer == nil {
		mailer = mail.NewLogMailer(logger)
	}

	basePath := config.BasePath
	if basePath == "" {
		basePath = defaultBasePath
	}

	sessions := services.NewSessionManager(
		[]byte(config.Secret),
		sessionTTL,
		config.Storage,
		cacheAdapter,
	)

	avatars := services.NewAvatarPipeline(config.Storage, services.AvatarConfig{
		Dir:     config.AvatarDir,
		BaseURL: config.BaseURL,
		Size:    config.AvatarSize,
	}, logger)

	auth := services.NewAuthService(config.Storage, passwordHasher, sessions, avatars, mailer, logger)

	p := &Passage{
		Handler:  auth,
		BasePath: basePath,
	}

	if err := config.HTTP.RegisterRoutes(auth, basePath); err != nil {
		return nil, err
	}

	return p, nil
}
