package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/studentaffairs/portal/internal/metrics"
)

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image exceeds maximum size")
	ErrEmpty           = errors.New("image is empty")
)

// DefaultMaxImageBytes is the upload cap when none is configured.
const DefaultMaxImageBytes = 5 << 20

// AllowedImageTypes maps accepted MIME types to the stored extension.
var AllowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// DetectImageType sniffs the MIME type from the first bytes of data.
func DetectImageType(data []byte) string {
	contentType := http.DetectContentType(data)
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return contentType
}

// UploadImage checks size and sniffed type, then stores the image under a
// generated name and returns that name. The client-supplied filename is
// never used as the object path.
func (c *Client) UploadImage(ctx context.Context, filename string, size int64, r io.Reader) (string, error) {
	name, err := c.uploadImage(ctx, size, r)
	switch {
	case err == nil:
		metrics.ImageUploadsTotal.WithLabelValues("stored").Inc()
	case errors.Is(err, ErrUnsupportedType), errors.Is(err, ErrTooLarge), errors.Is(err, ErrEmpty):
		metrics.ImageUploadsTotal.WithLabelValues("rejected").Inc()
	default:
		metrics.ImageUploadsTotal.WithLabelValues("error").Inc()
	}
	if err != nil {
		return "", fmt.Errorf("upload image %q: %w", filename, err)
	}
	return name, nil
}

func (c *Client) uploadImage(ctx context.Context, size int64, r io.Reader) (string, error) {
	limit := int64(DefaultMaxImageBytes)
	if c != nil && c.maxBytes > 0 {
		limit = c.maxBytes
	}
	if size > limit {
		return "", ErrTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > limit {
		return "", ErrTooLarge
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}

	contentType := DetectImageType(data)
	ext, ok := AllowedImageTypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	name := strings.ToLower(ulid.Make().String()) + "." + ext
	if err := c.Upload(ctx, name, contentType, data); err != nil {
		return "", err
	}
	return name, nil
}
