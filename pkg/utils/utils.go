package utils

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ErrNoFile           = errors.New("no file uploaded")
	ErrFileTooLarge     = errors.New("file size exceeds limit")
	ErrNotAnImage       = errors.New("uploaded file is not an image")
	ErrExtensionBlocked = errors.New("file extension not allowed")
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ValidateImageFile(file *multipart.FileHeader) error
	ReadFile(file *multipart.FileHeader) ([]byte, error)
}

type utils struct {
	maxFileSize       int64
	allowedExtensions []string
}

type Option func(*utils)

func WithMaxFileSize(size int64) Option {
	return func(u *utils) {
		if size > 0 {
			u.maxFileSize = size
		}
	}
}

func WithAllowedExtensions(ext ...string) Option {
	return func(u *utils) {
		u.allowedExtensions = ext
	}
}

func New(opts ...Option) IUtils {
	u := &utils{
		maxFileSize:       16 * 1024 * 1024,
		allowedExtensions: []string{".jpg", ".jpeg", ".png", ".webp", ".bmp"},
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (u *utils) ValidateImageFile(file *multipart.FileHeader) error {
	if file == nil {
		return ErrNoFile
	}

	if file.Size > u.maxFileSize {
		return ErrFileTooLarge
	}

	contentType := file.Header.Get("Content-Type")
	// Generic clients label every upload application/octet-stream; the
	// extension check and the decoder still apply to those.
	if contentType != "" && contentType != "application/octet-stream" && !strings.HasPrefix(contentType, "image/") {
		return ErrNotAnImage
	}

	if len(u.allowedExtensions) > 0 {
		ext := strings.ToLower(filepath.Ext(file.Filename))
		allowed := false
		for _, a := range u.allowedExtensions {
			if ext == a {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("%w: %q", ErrExtensionBlocked, ext)
		}
	}

	return nil
}

func (u *utils) ReadFile(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return io.ReadAll(io.LimitReader(src, u.maxFileSize+1))
}
