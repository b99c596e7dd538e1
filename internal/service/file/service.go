package file

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/storage"
	"golang.org/x/image/draw"
)

const (
	avatarSize    = 256
	avatarQuality = 85
)

type FileService interface {
	// UploadAvatar normalizes an uploaded picture to a square JPEG and
	// returns its storage key and public URL.
	UploadAvatar(ctx context.Context, userID string, file io.Reader) (key string, url string, err error)
	DeleteFile(ctx context.Context, key string) error
}

type fileServiceImpl struct {
	storage storage.FileStorage
	opts    storage.UploadOptions
}

func NewFileService(fs storage.FileStorage) FileService {
	return &fileServiceImpl{
		storage: fs,
		opts:    storage.AvatarUploadOptions,
	}
}

func (s *fileServiceImpl) UploadAvatar(ctx context.Context, userID string, file io.Reader) (string, string, error) {
	buffer, err := io.ReadAll(io.LimitReader(file, s.opts.MaxSize+1))
	if err != nil {
		return "", "", fmt.Errorf("failed to read avatar: %w", err)
	}
	if int64(len(buffer)) > s.opts.MaxSize {
		return "", "", user.ErrAvatarTooLarge
	}

	img, format, err := image.Decode(bytes.NewReader(buffer))
	if err != nil || !s.opts.Allows("image/"+formatMIME(format)) {
		return "", "", user.ErrInvalidAvatar
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, squareThumbnail(img, avatarSize), &jpeg.Options{Quality: avatarQuality}); err != nil {
		return "", "", fmt.Errorf("failed to encode avatar: %w", err)
	}

	key := path.Join("avatars", userID, fmt.Sprintf("%d-%s.jpg", time.Now().Unix(), uuid.NewString()[:8]))
	key, err = s.storage.Upload(ctx, &out, key, "image/jpeg")
	if err != nil {
		return "", "", fmt.Errorf("failed to upload avatar: %w", err)
	}

	url, err := s.storage.GetURL(ctx, key, 0)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve avatar url: %w", err)
	}
	return key, url, nil
}

func (s *fileServiceImpl) DeleteFile(ctx context.Context, key string) error {
	return s.storage.Delete(ctx, key)
}

func formatMIME(format string) string {
	if format == "jpg" {
		return "jpeg"
	}
	return format
}

// squareThumbnail center-crops src to a square and scales it to size.
func squareThumbnail(src image.Image, size int) image.Image {
	b := src.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	crop := image.Rect(x0, y0, x0+side, y0+side)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)
	return dst
}
