package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/draw"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"liberty/internal/config"
	"liberty/internal/models"
	"liberty/internal/repository"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

const (
	DefaultAvatarUploadDir       = "/tmp/liberty/uploads/avatars"
	DefaultAvatarMaxUploadSizeMB = 10
	AvatarSizePx                 = 512
	AvatarWebPQuality            = 80
)

// UploadAvatarInput carries a raw avatar upload.
type UploadAvatarInput struct {
	UserID      uint
	ContentType string
	Content     []byte
}

// AvatarService ingests profile pictures: decode, center-crop square,
// downscale, re-encode as WebP, and point the profile at the result. Every
// stored avatar is WebP regardless of the upload format.
type AvatarService struct {
	userRepo           repository.UserRepository
	uploadDir          string
	maxUploadSizeBytes int64
}

// NewAvatarService returns a new AvatarService.
func NewAvatarService(userRepo repository.UserRepository, cfg *config.Config) *AvatarService {
	uploadDir := DefaultAvatarUploadDir
	maxUploadSizeMB := DefaultAvatarMaxUploadSizeMB
	if cfg != nil {
		if cfg.AvatarUploadDir != "" {
			uploadDir = cfg.AvatarUploadDir
		}
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
		}
	}
	return &AvatarService{
		userRepo:           userRepo,
		uploadDir:          uploadDir,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// Upload processes the avatar and updates the user's profile. The stored
// filename is content-addressed so re-uploading the same bytes is free.
func (s *AvatarService) Upload(ctx context.Context, in UploadAvatarInput) (*models.User, error) {
	if in.UserID == 0 {
		return nil, models.NewValidationError("Invalid user")
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(in.Content)
	if !isAllowedAvatarMIME(detectedType) {
		return nil, models.NewValidationError("Invalid image type")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isAllowedAvatarMIME(provided) {
		return nil, models.NewValidationError("Invalid image content type")
	}

	decoded, _, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}

	processed := resizeSquare(cropSquare(decoded), AvatarSizePx)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, processed, &webp.Options{Quality: AvatarWebPQuality}); err != nil {
		return nil, models.NewInternalError(err)
	}

	hash := avatarHash(in.UserID, buf.Bytes())
	rel := hash + ".webp"
	abs := filepath.Join(s.uploadDir, rel)
	if err := writeAvatarFile(abs, buf.Bytes()); err != nil {
		return nil, models.NewInternalError(err)
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	user.Avatar = "/uploads/avatars/" + rel
	if err := s.userRepo.Update(ctx, user); err != nil {
		_ = os.Remove(abs)
		return nil, err
	}
	return user, nil
}

// ServePath maps a stored avatar filename to its absolute path, refusing
// names that escape the upload directory.
func (s *AvatarService) ServePath(filename string) (string, error) {
	if filename == "" || strings.ContainsAny(filename, "/\\") || strings.Contains(filename, "..") {
		return "", models.NewValidationError("Invalid avatar filename")
	}
	if !strings.HasSuffix(filename, ".webp") {
		return "", models.NewValidationError("Invalid avatar filename")
	}
	return filepath.Join(s.uploadDir, filename), nil
}

func cropSquare(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == h {
		return src
	}
	side := w
	if h < side {
		side = h
	}
	x := b.Min.X + (w-side)/2
	y := b.Min.Y + (h-side)/2
	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(dst, dst.Bounds(), src, image.Point{X: x, Y: y}, draw.Src)
	return dst
}

func resizeSquare(src image.Image, size int) image.Image {
	b := src.Bounds()
	if b.Dx() <= size && b.Dy() <= size {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

func isAllowedAvatarMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func avatarHash(userID uint, content []byte) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%d:", userID)
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))[:32]
}

func writeAvatarFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
