package models

import "time"

// Dialog surfaces served by the workers.
const (
	SurfaceShare     = "share"
	SurfaceMessenger = "messenger"
)

// ShareRequest is the JSON payload consumed from a surface request topic.
type ShareRequest struct {
	MessageID       string            `json:"message_id"`
	CallID          string            `json:"call_id,omitempty"`
	Surface         string            `json:"surface"`
	TenantID        string            `json:"tenant_id,omitempty"`
	TraceID         string            `json:"trace_id,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	FailOnDataError bool              `json:"fail_on_data_error,omitempty"`
	Meta            map[string]string `json:"meta,omitempty"`
	Content         ContentPayload    `json:"content"`
}

// ContentPayload carries the kind discriminator, the common share fields and
// the fields of every kind. Only the fields relevant to Kind are read.
type ContentPayload struct {
	Kind       string   `json:"kind"`
	ContentURL string   `json:"content_url,omitempty"`
	PlaceID    string   `json:"place_id,omitempty"`
	PageID     string   `json:"page_id,omitempty"`
	Ref        string   `json:"ref,omitempty"`
	PeopleIDs  []string `json:"people_ids,omitempty"`
	Hashtag    string   `json:"hashtag,omitempty"`

	// link and video
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Quote       string `json:"quote,omitempty"`

	// photo, video, media
	Photos       []PhotoPayload  `json:"photos,omitempty"`
	PreviewPhoto *PhotoPayload   `json:"preview_photo,omitempty"`
	Video        *AssetPayload   `json:"video,omitempty"`
	Media        []MediumPayload `json:"media,omitempty"`

	// open graph
	Action              *ActionPayload `json:"action,omitempty"`
	PreviewPropertyName string         `json:"preview_property_name,omitempty"`

	// camera effect
	EffectID        string                  `json:"effect_id,omitempty"`
	EffectArguments map[string]any          `json:"effect_arguments,omitempty"`
	EffectTextures  map[string]AssetPayload `json:"effect_textures,omitempty"`

	// messenger templates
	Sharable         bool            `json:"sharable,omitempty"`
	ImageAspectRatio string          `json:"image_aspect_ratio,omitempty"`
	Element          *ElementPayload `json:"element,omitempty"`
	URL              string          `json:"url,omitempty"`
	MediaType        string          `json:"media_type,omitempty"`
	AttachmentID     string          `json:"attachment_id,omitempty"`
	MediaURL         string          `json:"media_url,omitempty"`
	Button           *ButtonPayload  `json:"button,omitempty"`

	// story
	BackgroundAsset  *MediumPayload `json:"background_asset,omitempty"`
	Sticker          *PhotoPayload  `json:"sticker,omitempty"`
	BackgroundColors []string       `json:"background_colors,omitempty"`
	AttributionLink  string         `json:"attribution_link,omitempty"`
}

// AssetPayload references a remote URL, a file path on the worker host or
// base64 encoded bytes.
type AssetPayload struct {
	URL         string `json:"url,omitempty"`
	Path        string `json:"path,omitempty"`
	Data        []byte `json:"data,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// PhotoPayload is a photo asset with its caption.
type PhotoPayload struct {
	AssetPayload
	Caption       string `json:"caption,omitempty"`
	UserGenerated bool   `json:"user_generated,omitempty"`
}

// MediumPayload is a photo or a video, selected by Type.
type MediumPayload struct {
	Type string `json:"type"`
	PhotoPayload
}

// ActionPayload is an open graph action. Nested JSON objects in Properties
// are open graph objects; an object holding a "$photo" key is a photo and the
// "$create_object" key marks an object to be created by the host.
type ActionPayload struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
}

// ElementPayload is the element of a generic messenger template.
type ElementPayload struct {
	Title         string         `json:"title"`
	Subtitle      string         `json:"subtitle,omitempty"`
	ImageURL      string         `json:"image_url,omitempty"`
	DefaultAction *ButtonPayload `json:"default_action,omitempty"`
	Button        *ButtonPayload `json:"button,omitempty"`
}

// ButtonPayload is a messenger URL button.
type ButtonPayload struct {
	Title                  string `json:"title,omitempty"`
	URL                    string `json:"url"`
	WebviewHeightRatio     string `json:"webview_height_ratio,omitempty"`
	MessengerExtensions    bool   `json:"messenger_extensions,omitempty"`
	FallbackURL            string `json:"fallback_url,omitempty"`
	HideWebviewShareButton bool   `json:"hide_webview_share_button,omitempty"`
}
