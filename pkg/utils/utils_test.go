package utils

import (
	"errors"
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"
)

func header(name, contentType string, size int64) *multipart.FileHeader {
	h := textproto.MIMEHeader{}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &multipart.FileHeader{Filename: name, Header: h, Size: size}
}

func TestValidateImageFile(t *testing.T) {
	u := New(WithMaxFileSize(1024))

	tests := []struct {
		name string
		file *multipart.FileHeader
		want error
	}{
		{"nil file", nil, ErrNoFile},
		{"too large", header("a.png", "image/png", 2048), ErrFileTooLarge},
		{"not an image", header("a.png", "text/plain", 10), ErrNotAnImage},
		{"blocked extension", header("a.gif", "image/gif", 10), ErrExtensionBlocked},
		{"jpeg upper case", header("SCAN.JPG", "image/jpeg", 10), nil},
		{"missing content type", header("a.webp", "", 10), nil},
		{"octet stream", header("a.png", "application/octet-stream", 10), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := u.ValidateImageFile(tt.file)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewULIDFromTimestampIsSortable(t *testing.T) {
	u := New()
	earlier, err := u.NewULIDFromTimestamp(time.Unix(1000, 0))
	if err != nil {
		t.Fatal(err)
	}
	later, err := u.NewULIDFromTimestamp(time.Unix(2000, 0))
	if err != nil {
		t.Fatal(err)
	}
	if len(earlier) != 26 || earlier >= later {
		t.Fatalf("expected lexically ordered ULIDs, got %s and %s", earlier, later)
	}
}
