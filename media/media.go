package media

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

var supportedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

const thumbWidth = 320

// Store persists uploaded images under a local directory and serves them by
// URL path. Every saved image gets a thumbnail rendered next to it.
type Store struct {
	Dir     string
	BaseURL string // URL prefix the static file server mounts Dir at
}

func NewStore(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Store{Dir: dir, BaseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// SaveImage writes an uploaded image with a fresh uuid name and returns its
// public URL path. Unsupported content types are rejected.
func (s *Store) SaveImage(header *multipart.FileHeader) (string, error) {
	ext, ok := supportedImageTypes[header.Header.Get("Content-Type")]
	if !ok {
		return "", fmt.Errorf("unsupported image type %q", header.Header.Get("Content-Type"))
	}

	src, err := header.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := fmt.Sprintf("%s.%s", uuid.New().String(), ext)
	destPath := filepath.Join(s.Dir, name)

	out, err := os.Create(destPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return "", err
	}

	if err := s.writeThumbnail(destPath, name); err != nil {
		// The full-size image is already saved; a missing thumbnail is not
		// worth failing the upload over.
		log.Printf("media: thumbnail for %s failed: %v", name, err)
	}

	return s.BaseURL + "/" + name, nil
}

func (s *Store) writeThumbnail(srcPath, name string) error {
	img, err := imaging.Open(srcPath)
	if err != nil {
		return err
	}
	thumb := imaging.Resize(img, thumbWidth, 0, imaging.Lanczos)
	thumbPath := filepath.Join(s.Dir, "thumb_"+name)
	return imaging.Save(thumb, thumbPath)
}

// Remove deletes the stored image and its thumbnail for a URL previously
// returned by SaveImage. Unknown or external URLs are ignored.
func (s *Store) Remove(url string) error {
	if !strings.HasPrefix(url, s.BaseURL+"/") {
		return nil
	}
	name := filepath.Base(url)
	if name == "." || name == "/" {
		return nil
	}

	if err := os.Remove(filepath.Join(s.Dir, name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Remove(filepath.Join(s.Dir, "thumb_"+name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
