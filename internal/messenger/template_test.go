package messenger

import (
	"errors"
	"testing"

	"github.com/example/share-dialog-service/internal/params"
	"github.com/example/share-dialog-service/internal/share"
)

func baseMap() *params.Map {
	return params.NewBuilder().
		PutString(params.ContentURL, "https://a/b").
		PutBool(params.DataFailuresFatal, true).
		Build()
}

func mustString(t *testing.T, m *params.Map, key string) string {
	t.Helper()
	v, ok := m.String(key)
	if !ok {
		t.Fatalf("expected %s in %v", key, m.Keys())
	}
	return v
}

func TestGenericTemplate(t *testing.T) {
	base := baseMap()
	content := &share.MessengerGenericTemplateContent{
		Sharable:         true,
		ImageAspectRatio: share.ImageAspectSquare,
		Element: share.GenericTemplateElement{
			Title:    "Title",
			Subtitle: "Sub",
			ImageURL: "https://img/x.png",
			Button: &share.URLActionButton{
				Title:                  "Open",
				URL:                    "https://site/item",
				WebviewHeightRatio:     share.WebviewHeightTall,
				HideWebviewShareButton: true,
			},
		},
	}

	out, err := NewTemplateSerializer().ApplyTemplate(base, content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if base.Len() != 2 {
		t.Fatalf("base map must not be modified, got %v", base.Keys())
	}
	if v := mustString(t, out, params.TargetDisplay); v != "Open" {
		t.Fatalf("unexpected target display %q", v)
	}
	if v := mustString(t, out, params.ItemURL); v != "https://site/item" {
		t.Fatalf("unexpected item url %q", v)
	}
	if v := mustString(t, out, params.PreviewType); v != params.PreviewDefault {
		t.Fatalf("unexpected preview type %q", v)
	}
	if v := mustString(t, out, params.Subtitle); v != "Sub" {
		t.Fatalf("unexpected subtitle %q", v)
	}

	want := `{"attachment":{"payload":{"elements":[{"buttons":[{"messenger_extensions":false,"title":"Open","type":"web_url","url":"https://site/item","webview_height_ratio":"tall","webview_share_button":"hide"}],"image_url":"https://img/x.png","subtitle":"Sub","title":"Title"}],"image_aspect_ratio":"square","sharable":true,"template_type":"generic"},"type":"template"}}`
	if v := mustString(t, out, params.MessengerPlatformContent); v != want {
		t.Fatalf("unexpected platform content:\n got  %s\n want %s", v, want)
	}
}

func TestGenericTemplateDefaultActionUsesURLAsTitle(t *testing.T) {
	out, err := NewTemplateSerializer().ApplyTemplate(baseMap(), &share.MessengerGenericTemplateContent{
		Element: share.GenericTemplateElement{
			Title:         "T",
			DefaultAction: &share.URLActionButton{Title: "ignored", URL: "https://site/default"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v := mustString(t, out, params.TargetDisplay); v != "https://site/default" {
		t.Fatalf("unexpected target display %q", v)
	}
}

func TestOpenGraphMusicTemplate(t *testing.T) {
	out, err := NewTemplateSerializer().ApplyTemplate(baseMap(), &share.MessengerOpenGraphMusicTemplateContent{
		URL: "https://open.spotify.com/track/1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v := mustString(t, out, params.PreviewType); v != params.PreviewOpenGraph {
		t.Fatalf("unexpected preview type %q", v)
	}
	if v := mustString(t, out, params.OpenGraphURL); v != "https://open.spotify.com/track/1" {
		t.Fatalf("unexpected open graph url %q", v)
	}
	if out.Has(params.TargetDisplay) {
		t.Fatalf("did not expect button fields without a button")
	}
	want := `{"attachment":{"payload":{"elements":[{"url":"https://open.spotify.com/track/1"}],"template_type":"open_graph"},"type":"template"}}`
	if v := mustString(t, out, params.MessengerPlatformContent); v != want {
		t.Fatalf("unexpected platform content %s", v)
	}
}

func TestMediaTemplateURLKey(t *testing.T) {
	cases := []struct {
		name     string
		mediaURL string
		key      string
	}{
		{name: "facebook host", mediaURL: "https://www.facebook.com/page/videos/1", key: params.MediaInfoURI},
		{name: "bare facebook host", mediaURL: "https://facebook.com/photo/1", key: params.ImageURL},
		{name: "other host", mediaURL: "https://cdn.example.com/1.png", key: params.ImageURL},
		{name: "lookalike host", mediaURL: "https://notfacebook.com.evil/1.png", key: params.ImageURL},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := NewTemplateSerializer().ApplyTemplate(baseMap(), &share.MessengerMediaTemplateContent{
				MediaType: share.TemplateMediaVideo,
				MediaURL:  tc.mediaURL,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v := mustString(t, out, tc.key); v != tc.mediaURL {
				t.Fatalf("expected media url under %s, got %q", tc.key, v)
			}
			if v := mustString(t, out, params.MediaType); v != "video" {
				t.Fatalf("unexpected media type %q", v)
			}
		})
	}
}

func TestMediaTemplateRequiresSource(t *testing.T) {
	_, err := NewTemplateSerializer().ApplyTemplate(baseMap(), &share.MessengerMediaTemplateContent{})
	var serr *share.SerializationError
	if !errors.As(err, &serr) {
		t.Fatalf("expected serialization error, got %v", err)
	}
}

func TestApplyTemplateRejectsOtherKinds(t *testing.T) {
	_, err := NewTemplateSerializer().ApplyTemplate(baseMap(), &share.LinkContent{})
	var serr *share.SerializationError
	if !errors.As(err, &serr) {
		t.Fatalf("expected serialization error, got %v", err)
	}
}
