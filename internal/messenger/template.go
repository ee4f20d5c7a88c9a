// Package messenger adds messenger template fields to dialog parameters.
package messenger

import (
	"fmt"
	"net/url"
	"regexp"

	jsoniter "github.com/json-iterator/go"

	"github.com/example/share-dialog-service/internal/params"
	"github.com/example/share-dialog-service/internal/share"
)

var (
	json           = jsoniter.ConfigCompatibleWithStandardLibrary
	facebookDomain = regexp.MustCompile(`^(.+)\.(facebook\.com)$`)
)

const (
	templateGeneric   = "generic"
	templateOpenGraph = "open_graph"
	templateMedia     = "media"
)

// TemplateSerializer overlays messenger template fields on base dialog
// parameters.
type TemplateSerializer struct{}

// NewTemplateSerializer returns a TemplateSerializer.
func NewTemplateSerializer() *TemplateSerializer {
	return &TemplateSerializer{}
}

// ApplyTemplate returns a new map holding base plus the template fields of
// content.
func (s *TemplateSerializer) ApplyTemplate(base *params.Map, content share.Content) (*params.Map, error) {
	out := params.From(base)

	var (
		platform map[string]any
		err      error
	)
	switch c := content.(type) {
	case *share.MessengerGenericTemplateContent:
		platform, err = genericTemplate(out, c)
	case *share.MessengerOpenGraphMusicTemplateContent:
		platform, err = openGraphMusicTemplate(out, c)
	case *share.MessengerMediaTemplateContent:
		platform, err = mediaTemplate(out, c)
	default:
		return nil, &share.SerializationError{
			Subject: "messenger template",
			Err:     fmt.Errorf("unsupported content kind %q", content.Kind()),
		}
	}
	if err != nil {
		return nil, &share.SerializationError{Subject: "messenger template", Err: err}
	}

	encoded, err := json.Marshal(platform)
	if err != nil {
		return nil, &share.SerializationError{Subject: "messenger template", Err: err}
	}
	out.PutString(params.MessengerPlatformContent, string(encoded))
	return out.Build(), nil
}

func genericTemplate(out *params.Builder, c *share.MessengerGenericTemplateContent) (map[string]any, error) {
	el := c.Element
	switch {
	case el.Button != nil:
		addURLActionButton(out, el.Button, false)
	case el.DefaultAction != nil:
		addURLActionButton(out, el.DefaultAction, true)
	}
	out.PutNonEmptyString(params.ImageURL, el.ImageURL).
		PutString(params.PreviewType, params.PreviewDefault).
		PutNonEmptyString(params.Title, el.Title).
		PutNonEmptyString(params.Subtitle, el.Subtitle)

	element := map[string]any{"title": el.Title}
	putOpt(element, "subtitle", el.Subtitle)
	putOpt(element, "image_url", el.ImageURL)
	if el.DefaultAction != nil {
		element["default_action"] = urlButtonJSON(el.DefaultAction, true)
	}
	if el.Button != nil {
		element["buttons"] = []any{urlButtonJSON(el.Button, false)}
	}

	return attachment(map[string]any{
		"template_type":      templateGeneric,
		"sharable":           c.Sharable,
		"image_aspect_ratio": imageRatio(c.ImageAspectRatio),
		"elements":           []any{element},
	}), nil
}

func openGraphMusicTemplate(out *params.Builder, c *share.MessengerOpenGraphMusicTemplateContent) (map[string]any, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("open graph music template requires a url")
	}
	addURLActionButton(out, c.Button, false)
	out.PutString(params.PreviewType, params.PreviewOpenGraph).
		PutNonEmptyString(params.OpenGraphURL, c.URL)

	element := map[string]any{"url": c.URL}
	if c.Button != nil {
		element["buttons"] = []any{urlButtonJSON(c.Button, false)}
	}
	return attachment(map[string]any{
		"template_type": templateOpenGraph,
		"elements":      []any{element},
	}), nil
}

func mediaTemplate(out *params.Builder, c *share.MessengerMediaTemplateContent) (map[string]any, error) {
	if c.AttachmentID == "" && c.MediaURL == "" {
		return nil, fmt.Errorf("media template requires an attachment id or a media url")
	}
	addURLActionButton(out, c.Button, false)
	out.PutString(params.PreviewType, params.PreviewDefault).
		PutNonEmptyString(params.AttachmentID, c.AttachmentID)
	if c.MediaURL != "" {
		out.PutString(mediaURLKey(c.MediaURL), c.MediaURL)
	}
	out.PutString(params.MediaType, mediaType(c.MediaType))

	element := map[string]any{"media_type": mediaType(c.MediaType)}
	putOpt(element, "attachment_id", c.AttachmentID)
	putOpt(element, "url", c.MediaURL)
	if c.Button != nil {
		element["buttons"] = []any{urlButtonJSON(c.Button, false)}
	}
	return attachment(map[string]any{
		"template_type": templateMedia,
		"elements":      []any{element},
	}), nil
}

func addURLActionButton(out *params.Builder, button *share.URLActionButton, isDefaultAction bool) {
	if button == nil {
		return
	}
	title := button.Title
	if isDefaultAction {
		title = button.URL
	}
	out.PutNonEmptyString(params.TargetDisplay, title).
		PutNonEmptyString(params.ItemURL, button.URL)
}

func urlButtonJSON(button *share.URLActionButton, isDefaultAction bool) map[string]any {
	out := map[string]any{
		"type":                 "web_url",
		"url":                  button.URL,
		"webview_height_ratio": webviewHeightRatio(button.WebviewHeightRatio),
		"messenger_extensions": button.MessengerExtensions,
	}
	if !isDefaultAction {
		putOpt(out, "title", button.Title)
	}
	putOpt(out, "fallback_url", button.FallbackURL)
	if button.HideWebviewShareButton {
		out["webview_share_button"] = "hide"
	}
	return out
}

func attachment(payload map[string]any) map[string]any {
	return map[string]any{
		"attachment": map[string]any{
			"type":    "template",
			"payload": payload,
		},
	}
}

func mediaURLKey(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Host != "" && facebookDomain.MatchString(u.Hostname()) {
		return params.MediaInfoURI
	}
	return params.ImageURL
}

func mediaType(t share.TemplateMediaType) string {
	if t == share.TemplateMediaVideo {
		return "video"
	}
	return "image"
}

func imageRatio(r share.ImageAspectRatio) string {
	if r == share.ImageAspectSquare {
		return "square"
	}
	return "horizontal"
}

func webviewHeightRatio(r share.WebviewHeightRatio) string {
	switch r {
	case share.WebviewHeightCompact:
		return "compact"
	case share.WebviewHeightTall:
		return "tall"
	default:
		return "full"
	}
}

func putOpt(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}
