package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/tmarcial/passage/core"
)

// DefaultAvatarSize is the square edge avatars are normalized to.
const DefaultAvatarSize = 250

// AvatarConfig locates permanent avatar storage and the public base URL it
// is served under.
type AvatarConfig struct {
	Dir     string // permanent directory, publicly servable under BaseURL/avatars
	BaseURL string // e.g. http://localhost:3000
	Size    int    // square edge in pixels; DefaultAvatarSize when zero
}

// AvatarPipeline turns a staged upload into a linked, permanently stored
// profile image: resize in place, rename into permanent storage, persist the
// URL. On any failure the filesystem side is undone before the error
// propagates, so avatarURL never references a missing file and the permanent
// directory never keeps an orphan.
type AvatarPipeline struct {
	storage core.UserStorage
	config  AvatarConfig
	log     *slog.Logger
}

func NewAvatarPipeline(storage core.UserStorage, config AvatarConfig, log *slog.Logger) *AvatarPipeline {
	if config.Size <= 0 {
		config.Size = DefaultAvatarSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &AvatarPipeline{
		storage: storage,
		config:  config,
		log:     log,
	}
}

// Update runs the stage→resize→relocate→link sequence and returns the new
// avatar URL.
func (p *AvatarPipeline) Update(ctx context.Context, user *core.User, stagedPath string) (string, error) {
	if err := p.normalize(stagedPath); err != nil {
		p.discard(stagedPath)
		return "", fmt.Errorf("%w: normalize avatar: %v", core.ErrInternal, err)
	}

	filename := user.ID + "_" + filepath.Base(stagedPath)
	finalPath := filepath.Join(p.config.Dir, filename)

	// Rename, not copy+delete: a concurrent reader never sees a half-written
	// file at the final path.
	if err := os.Rename(stagedPath, finalPath); err != nil {
		p.discard(stagedPath)
		return "", fmt.Errorf("%w: relocate avatar: %v", core.ErrInternal, err)
	}

	avatarURL := p.config.BaseURL + "/avatars/" + url.PathEscape(filename)

	if err := p.storage.SetAvatarURL(ctx, user.ID, avatarURL); err != nil {
		// The asset reached permanent storage but the record update did not
		// apply; remove it so nothing references it and nothing orphans.
		p.discard(finalPath)
		return "", fmt.Errorf("%w: link avatar for user %s: %v", core.ErrInternal, user.ID, err)
	}

	return avatarURL, nil
}

// normalize resizes the staged image in place to a centered square crop.
func (p *AvatarPipeline) normalize(path string) error {
	img, err := imaging.Open(path)
	if err != nil {
		return err
	}

	square := imaging.Fill(img, p.config.Size, p.config.Size, imaging.Center, imaging.Lanczos)

	return imaging.Save(square, path)
}

// discard removes a leftover file, best effort. A cleanup failure is logged
// and suppressed so it never masks the error that triggered it.
func (p *AvatarPipeline) discard(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		p.log.Warn("remove leftover avatar file", "path", path, "error", err)
	}
}
