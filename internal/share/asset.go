package share

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// Asset references a piece of media. Exactly one of URL, LocalPath or Data is
// expected to be set; remote URLs are used as-is while local files and
// in-memory bytes must be uploaded before they can be shared.
type Asset struct {
	URL         string
	LocalPath   string
	Data        []byte
	ContentType string
}

// IsRemote reports whether the asset already has an http(s) address.
func (a Asset) IsRemote() bool {
	if a.URL == "" {
		return false
	}
	u, err := url.Parse(a.URL)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// IsZero reports whether no source is set.
func (a Asset) IsZero() bool {
	return a.URL == "" && a.LocalPath == "" && len(a.Data) == 0
}

// Extension returns the file extension of the asset source including the
// leading dot, or an empty string when none can be derived.
func (a Asset) Extension() string {
	switch {
	case a.URL != "":
		if u, err := url.Parse(a.URL); err == nil {
			return strings.ToLower(path.Ext(u.Path))
		}
		return ""
	case a.LocalPath != "":
		return strings.ToLower(filepath.Ext(a.LocalPath))
	default:
		return ""
	}
}

// MediaType distinguishes photos from videos inside mixed media.
type MediaType string

const (
	MediaTypePhoto MediaType = "photo"
	MediaTypeVideo MediaType = "video"
)

// Medium is a photo or a video.
type Medium interface {
	MediaType() MediaType
	Source() Asset
}

// Photo is an image asset with optional caption.
type Photo struct {
	Asset
	Caption       string
	UserGenerated bool
}

func (Photo) MediaType() MediaType { return MediaTypePhoto }

func (p Photo) Source() Asset { return p.Asset }

// Video is a video asset.
type Video struct {
	Asset
}

func (Video) MediaType() MediaType { return MediaTypeVideo }

func (v Video) Source() Asset { return v.Asset }
