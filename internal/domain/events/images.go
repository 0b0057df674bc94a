package events

import "strings"

// DefaultPlaceholderImage is substituted by presenters when no image resolves.
const DefaultPlaceholderImage = "/images/IMG_2200.jpg"

var legacyImageExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// PublicURLer maps a stored object path to its public URL, or "" when the
// store is not configured.
type PublicURLer interface {
	PublicURL(path string) string
}

// ImageResolver derives image URLs without touching the network.
type ImageResolver struct {
	store       PublicURLer
	placeholder string
}

func NewImageResolver(store PublicURLer, placeholder string) *ImageResolver {
	if placeholder == "" {
		placeholder = DefaultPlaceholderImage
	}
	return &ImageResolver{store: store, placeholder: placeholder}
}

// Resolve returns "" when nothing resolves.
func (r *ImageResolver) Resolve(filename, legacyID string) string {
	if r == nil || r.store == nil {
		return ""
	}
	if filename = strings.TrimSpace(filename); filename != "" {
		return r.store.PublicURL(filename)
	}
	legacyID = strings.TrimSpace(legacyID)
	if legacyID == "" {
		return ""
	}
	for _, ext := range legacyImageExtensions {
		if url := r.store.PublicURL(legacyID + ext); url != "" {
			return url
		}
	}
	return ""
}

// URLFor resolves an event image, substituting the placeholder.
func (r *ImageResolver) URLFor(e Event) string {
	if url := r.Resolve(e.ImageFilename, e.LegacyImageID); url != "" {
		return url
	}
	if r == nil {
		return DefaultPlaceholderImage
	}
	return r.placeholder
}
