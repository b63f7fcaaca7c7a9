package httpserver

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const uploadsPrefix = "/uploads"

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Uploads stores images under Dir and hands out /uploads/... URLs for them.
type Uploads struct {
	Dir      string
	MaxBytes int64
}

// Save sniffs the content type, writes the file under a random name and returns its public URL.
func (u *Uploads) Save(fh *multipart.FileHeader, sub string) (string, error) {
	if u.MaxBytes > 0 && fh.Size > u.MaxBytes {
		return "", echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("file exceeds %d bytes", u.MaxBytes))
	}
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return "", echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}
	ext, allowed := imageTypes[http.DetectContentType(head[:n])]
	if !allowed {
		return "", echo.NewHTTPError(http.StatusBadRequest, "only jpeg, png, webp and gif images are allowed")
	}

	dir := filepath.Join(u.Dir, sub)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := dst.Write(head[:n]); err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return path.Join(uploadsPrefix, sub, name), nil
}

// Remove deletes a file previously returned by Save. Unknown URLs are ignored.
func (u *Uploads) Remove(url string) {
	rel, found := strings.CutPrefix(url, uploadsPrefix+"/")
	if !found || strings.Contains(rel, "..") {
		return
	}
	_ = os.Remove(filepath.Join(u.Dir, filepath.FromSlash(rel)))
}
