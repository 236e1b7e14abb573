// Package media stores site images on an object store and hands back
// their public URLs.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidFile  = errors.New("only .jpg, .jpeg and .png images are allowed")
	ErrTooLarge     = errors.New("image exceeds the upload size limit")
	ErrUploadFailed = errors.New("media upload failed")
	ErrUnavailable  = errors.New("media host not configured")
)

var allowedExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// File is one uploaded image, not yet stored.
type File struct {
	// Folder groups objects by resource, e.g. "banner" or "header".
	Folder   string
	Filename string
	Size     int64
	Reader   io.Reader
}

// Ext returns the lower-cased extension when it is an accepted image type.
func (f File) Ext() (string, bool) {
	ext := strings.ToLower(filepath.Ext(f.Filename))
	_, ok := allowedExt[ext]
	return ext, ok
}

// Check rejects files by extension and declared size before any bytes are read.
func Check(f File, maxBytes int64) error {
	if _, ok := f.Ext(); !ok {
		return ErrInvalidFile
	}
	if maxBytes > 0 && f.Size > maxBytes {
		return fmt.Errorf("%w (%d bytes)", ErrTooLarge, maxBytes)
	}
	return nil
}

// Disabled stands in when no object store is configured.
type Disabled struct{}

func (Disabled) Upload(context.Context, File) (string, error) { return "", ErrUnavailable }

func (Disabled) Delete(context.Context, string) error { return nil }
