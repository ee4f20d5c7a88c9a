package dialog

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/share-dialog-service/internal/params"
	"github.com/example/share-dialog-service/internal/share"
)

var testCallID = uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2")

type resolverStub struct {
	calls int
	err   error
}

func (r *resolverStub) PhotoURLs(_ context.Context, callID uuid.UUID, c *share.PhotoContent) ([]string, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	out := make([]string, 0, len(c.Photos))
	for i := range c.Photos {
		out = append(out, stubURL(callID, "photo", i))
	}
	return out, nil
}

func (r *resolverStub) VideoURL(_ context.Context, callID uuid.UUID, _ *share.VideoContent) (string, error) {
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	return stubURL(callID, "video", 0), nil
}

func (r *resolverStub) MediaInfos(_ context.Context, callID uuid.UUID, c *share.MediaContent) ([]*params.Map, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*params.Map, 0, len(c.Media))
	for i, m := range c.Media {
		out = append(out, params.NewBuilder().
			PutString(params.MediaInfoType, strings.ToUpper(string(m.MediaType()))).
			PutString(params.MediaInfoURI, stubURL(callID, "media", i)).
			Build())
	}
	return out, nil
}

func (r *resolverStub) TextureURLs(_ context.Context, callID uuid.UUID, c *share.CameraEffectContent) (*params.Map, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	if len(c.Textures) == 0 {
		return nil, nil
	}
	b := params.NewBuilder()
	for name := range c.Textures {
		b.PutString(name, stubURL(callID, name, 0))
	}
	return b.Build(), nil
}

func (r *resolverStub) BackgroundAssetInfo(_ context.Context, callID uuid.UUID, c *share.StoryContent) (*params.Map, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	if c.BackgroundAsset == nil {
		return nil, nil
	}
	return params.NewBuilder().
		PutString(params.MediaInfoType, strings.ToUpper(string(c.BackgroundAsset.MediaType()))).
		PutString(params.MediaInfoURI, stubURL(callID, "bg", 0)).
		Build(), nil
}

func (r *resolverStub) StickerInfo(_ context.Context, callID uuid.UUID, c *share.StoryContent) (*params.Map, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	if c.Sticker == nil {
		return nil, nil
	}
	return params.NewBuilder().PutString(params.MediaInfoURI, stubURL(callID, "sticker", 0)).Build(), nil
}

type graphStub struct {
	calls int
	json  string
	err   error
}

func (g *graphStub) ActionJSON(context.Context, uuid.UUID, *share.OpenGraphContent) (string, error) {
	g.calls++
	return g.json, g.err
}

type templateStub struct {
	calls int
	err   error
}

func (s *templateStub) ApplyTemplate(base *params.Map, content share.Content) (*params.Map, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return params.From(base).
		PutString(params.PreviewType, params.PreviewDefault).
		PutString(params.MessengerPlatformContent, string(content.Kind())).
		Build(), nil
}

type futureContent struct {
	share.Base
}

func (*futureContent) Kind() share.Kind { return "future" }

func stubURL(callID uuid.UUID, name string, idx int) string {
	return "https://cdn.example.com/" + callID.String() + "/" + name + "/" + string(rune('0'+idx))
}

func newTestBuilder(t *testing.T, resolver *resolverStub, graph *graphStub, templates *templateStub) *Builder {
	t.Helper()
	b, err := NewBuilder(resolver, graph, templates, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("unexpected builder error: %v", err)
	}
	return b
}

func baseFields() share.Base {
	return share.Base{
		ContentURL: "https://a/b",
		PlaceID:    "place-1",
		PeopleIDs:  []string{"p1", "p2"},
		Hashtag:    "#share",
	}
}

var baseKeys = []string{
	params.ContentURL,
	params.PlaceID,
	params.DataFailuresFatal,
	params.PeopleIDs,
	params.Hashtag,
}

func assertKeys(t *testing.T, m *params.Map, extra ...string) {
	t.Helper()
	want := append(append([]string(nil), baseKeys...), extra...)
	got := m.Keys()
	sort.Strings(want)
	sort.Strings(got)
	if strings.Join(want, ",") != strings.Join(got, ",") {
		t.Fatalf("unexpected keys:\n got  %v\n want %v", got, want)
	}
}

func TestBuildLinkContent(t *testing.T) {
	b := newTestBuilder(t, &resolverStub{}, &graphStub{}, &templateStub{})

	content := &share.LinkContent{
		Base:        share.Base{ContentURL: "https://a/b"},
		Title:       "T",
		Description: "D",
		ImageURL:    "https://x/y.png",
		Quote:       "Q",
	}

	m, err := b.Build(context.Background(), testCallID, content, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]string{
		params.Title:         "T",
		params.Description:   "D",
		params.ImageURL:      "https://x/y.png",
		params.Quote:         "Q",
		params.ContentURL:    "https://a/b",
		params.MessengerURL:  "https://a/b",
		params.TargetDisplay: "https://a/b",
	}
	for key, val := range want {
		if got, ok := m.String(key); !ok || got != val {
			t.Fatalf("expected %s=%q, got %q (present=%v)", key, val, got, ok)
		}
	}
	if m.Len() != len(want)+1 {
		t.Fatalf("expected %d params, got %v", len(want)+1, m.Keys())
	}
	if fatal, ok := m.Bool(params.DataFailuresFatal); !ok || fatal {
		t.Fatalf("expected DATA_FAILURES_FATAL=false, got %v (present=%v)", fatal, ok)
	}
}

func TestBuildVariantFieldSets(t *testing.T) {
	cases := []struct {
		name    string
		content share.Content
		extra   []string
	}{
		{
			name:    "link without optionals",
			content: &share.LinkContent{Base: baseFields()},
			extra:   []string{params.MessengerURL, params.TargetDisplay},
		},
		{
			name: "photo",
			content: &share.PhotoContent{Base: baseFields(), Photos: []share.Photo{
				{Asset: share.Asset{URL: "https://x/1.png"}},
				{Asset: share.Asset{LocalPath: "/tmp/2.png"}},
			}},
			extra: []string{params.Photos},
		},
		{
			name:    "video",
			content: &share.VideoContent{Base: baseFields(), Title: "V", Video: share.Video{Asset: share.Asset{LocalPath: "/tmp/v.mp4"}}},
			extra:   []string{params.Title, params.VideoURL},
		},
		{
			name: "media",
			content: &share.MediaContent{Base: baseFields(), Media: []share.Medium{
				share.Photo{Asset: share.Asset{URL: "https://x/1.png"}},
				share.Video{Asset: share.Asset{URL: "https://x/2.mp4"}},
			}},
			extra: []string{params.Media},
		},
		{
			name: "open graph",
			content: &share.OpenGraphContent{
				Base:                baseFields(),
				Action:              &share.OpenGraphAction{Type: "books.reads", Properties: map[string]any{"books:book": "x"}},
				PreviewPropertyName: "books:book",
			},
			extra: []string{params.PreviewPropertyName, params.ActionType, params.Action},
		},
		{
			name: "camera effect",
			content: &share.CameraEffectContent{
				Base:      baseFields(),
				EffectID:  "effect-1",
				Arguments: share.CameraEffectArguments{"color": "red"},
				Textures:  share.CameraEffectTextures{"sky": {URL: "https://x/sky.png"}},
			},
			extra: []string{params.EffectID, params.EffectTextures, params.EffectArgs},
		},
		{
			name:    "camera effect without arguments or textures",
			content: &share.CameraEffectContent{Base: baseFields(), EffectID: "effect-1"},
			extra:   []string{params.EffectID},
		},
		{
			name:    "messenger generic template",
			content: &share.MessengerGenericTemplateContent{Base: baseFields()},
			extra:   []string{params.PreviewType, params.MessengerPlatformContent},
		},
		{
			name:    "messenger open graph music template",
			content: &share.MessengerOpenGraphMusicTemplateContent{Base: baseFields()},
			extra:   []string{params.PreviewType, params.MessengerPlatformContent},
		},
		{
			name:    "messenger media template",
			content: &share.MessengerMediaTemplateContent{Base: baseFields()},
			extra:   []string{params.PreviewType, params.MessengerPlatformContent},
		},
		{
			name: "story",
			content: &share.StoryContent{
				Base:             baseFields(),
				BackgroundAsset:  share.Photo{Asset: share.Asset{URL: "https://x/bg.png"}},
				Sticker:          &share.Photo{Asset: share.Asset{URL: "https://x/st.png"}},
				BackgroundColors: []string{"#FF0000", "#00FF00"},
				AttributionLink:  "https://deep/link",
			},
			extra: []string{params.StoryBackgroundAsset, params.StoryInteractiveAssetURI, params.StoryBackgroundColors, params.StoryDeepLinkURL},
		},
		{
			name:    "story without optionals",
			content: &share.StoryContent{Base: baseFields()},
		},
	}

	for _, tc := range cases {
		for _, fatal := range []bool{true, false} {
			t.Run(tc.name, func(t *testing.T) {
				b := newTestBuilder(t, &resolverStub{}, &graphStub{json: `{"type":"books.reads"}`}, &templateStub{})
				m, err := b.Build(context.Background(), testCallID, tc.content, fatal)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if m == nil {
					t.Fatalf("expected parameters")
				}
				assertKeys(t, m, tc.extra...)
				if got, ok := m.Bool(params.DataFailuresFatal); !ok || got != fatal {
					t.Fatalf("expected DATA_FAILURES_FATAL=%v, got %v (present=%v)", fatal, got, ok)
				}
			})
		}
	}
}

func TestBuildOpenGraphStripsPreviewNamespace(t *testing.T) {
	graph := &graphStub{json: `{"book":"x","type":"books.reads"}`}
	b := newTestBuilder(t, &resolverStub{}, graph, &templateStub{})

	m, err := b.Build(context.Background(), testCallID, &share.OpenGraphContent{
		Action:              &share.OpenGraphAction{Type: "books.reads"},
		PreviewPropertyName: "books:book",
	}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := m.String(params.PreviewPropertyName); got != "book" {
		t.Fatalf("expected stripped preview property, got %q", got)
	}
	if got, _ := m.String(params.ActionType); got != "books.reads" {
		t.Fatalf("unexpected action type %q", got)
	}
	if got, _ := m.String(params.Action); got != graph.json {
		t.Fatalf("unexpected action json %q", got)
	}
}

func TestBuildCameraEffectArgumentsJSON(t *testing.T) {
	b := newTestBuilder(t, &resolverStub{}, &graphStub{}, &templateStub{})

	m, err := b.Build(context.Background(), testCallID, &share.CameraEffectContent{
		EffectID: "e",
		Arguments: share.CameraEffectArguments{
			"title":  "hello",
			"colors": []string{"red", "blue"},
			"skip":   nil,
		},
	}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := m.String(params.EffectArgs); got != `{"colors":["red","blue"],"title":"hello"}` {
		t.Fatalf("unexpected effect arguments %s", got)
	}
}

func TestBuildCameraEffectArgumentsUnsupportedType(t *testing.T) {
	b := newTestBuilder(t, &resolverStub{}, &graphStub{}, &templateStub{})

	m, err := b.Build(context.Background(), testCallID, &share.CameraEffectContent{
		EffectID:  "e",
		Arguments: share.CameraEffectArguments{"count": 3},
	}, false)
	var serr *share.SerializationError
	if !errors.As(err, &serr) {
		t.Fatalf("expected serialization error, got %v", err)
	}
	if m != nil {
		t.Fatalf("expected no map on error")
	}
}

func TestBuildUnrecognizedKindReturnsNoResult(t *testing.T) {
	resolver := &resolverStub{}
	graph := &graphStub{}
	templates := &templateStub{}
	b := newTestBuilder(t, resolver, graph, templates)

	for _, c := range []share.Content{&futureContent{Base: baseFields()}, &share.Unrecognized{Name: "reel"}} {
		m, err := b.Build(context.Background(), testCallID, c, true)
		if err != nil {
			t.Fatalf("expected no error for unrecognized kind, got %v", err)
		}
		if m != nil {
			t.Fatalf("expected no result, got %v", m.Keys())
		}
	}
	if resolver.calls+graph.calls+templates.calls != 0 {
		t.Fatalf("expected no collaborator calls")
	}
}

func TestBuildRejectsMissingInputs(t *testing.T) {
	resolver := &resolverStub{}
	graph := &graphStub{}
	templates := &templateStub{}
	b := newTestBuilder(t, resolver, graph, templates)

	var nilPhoto *share.PhotoContent
	cases := []struct {
		name    string
		callID  uuid.UUID
		content share.Content
		field   string
	}{
		{name: "nil content", callID: testCallID, content: nil, field: "content"},
		{name: "typed nil content", callID: testCallID, content: nilPhoto, field: "content"},
		{name: "nil call id", callID: uuid.Nil, content: &share.PhotoContent{}, field: "call_id"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := b.Build(context.Background(), tc.callID, tc.content, false)
			var verr *share.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("expected field %s, got %s", tc.field, verr.Field)
			}
			if m != nil {
				t.Fatalf("expected no map")
			}
		})
	}
	if resolver.calls+graph.calls+templates.calls != 0 {
		t.Fatalf("expected validation before any collaborator call")
	}
}

func TestBuildOpenGraphSerializationFailure(t *testing.T) {
	b := newTestBuilder(t, &resolverStub{}, &graphStub{err: errors.New("invalid value")}, &templateStub{})

	m, err := b.Build(context.Background(), testCallID, &share.OpenGraphContent{
		Base:   baseFields(),
		Action: &share.OpenGraphAction{Type: "og.likes"},
	}, false)
	var serr *share.SerializationError
	if !errors.As(err, &serr) {
		t.Fatalf("expected serialization error, got %v", err)
	}
	if !strings.Contains(serr.Error(), "invalid value") {
		t.Fatalf("expected cause in message, got %q", serr.Error())
	}
	if m != nil {
		t.Fatalf("expected no partial map")
	}
}

func TestBuildPropagatesAssetErrors(t *testing.T) {
	assetErr := &share.AssetResolutionError{Asset: "photo[0]", Err: errors.New("upload failed")}
	b := newTestBuilder(t, &resolverStub{err: assetErr}, &graphStub{}, &templateStub{})

	m, err := b.Build(context.Background(), testCallID, &share.PhotoContent{Photos: []share.Photo{{}}}, false)
	if err != assetErr {
		t.Fatalf("expected asset error to propagate unchanged, got %v", err)
	}
	if m != nil {
		t.Fatalf("expected no map on error")
	}
}

func TestBuildWrapsTemplateErrors(t *testing.T) {
	b := newTestBuilder(t, &resolverStub{}, &graphStub{}, &templateStub{err: errors.New("bad button")})

	_, err := b.Build(context.Background(), testCallID, &share.MessengerGenericTemplateContent{}, false)
	var serr *share.SerializationError
	if !errors.As(err, &serr) {
		t.Fatalf("expected serialization error, got %v", err)
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	b := newTestBuilder(t, &resolverStub{}, &graphStub{json: `{"type":"x"}`}, &templateStub{})

	contents := []share.Content{
		&share.LinkContent{Base: baseFields(), Title: "T"},
		&share.PhotoContent{Base: baseFields(), Photos: []share.Photo{{Asset: share.Asset{LocalPath: "/tmp/a.png"}}}},
		&share.MediaContent{Base: baseFields(), Media: []share.Medium{share.Video{Asset: share.Asset{LocalPath: "/tmp/a.mp4"}}}},
		&share.StoryContent{Base: baseFields(), Sticker: &share.Photo{Asset: share.Asset{URL: "https://x/s.png"}}},
	}

	for _, c := range contents {
		first, err := b.Build(context.Background(), testCallID, c, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := b.Build(context.Background(), testCallID, c, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !first.Equal(second) {
			t.Fatalf("expected identical maps for %s", c.Kind())
		}
	}
}

func TestNewBuilderRequiresCollaborators(t *testing.T) {
	if _, err := NewBuilder(nil, &graphStub{}, &templateStub{}, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for missing resolver")
	}
	if _, err := NewBuilder(&resolverStub{}, nil, &templateStub{}, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for missing graph serializer")
	}
	if _, err := NewBuilder(&resolverStub{}, &graphStub{}, nil, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for missing template serializer")
	}
}
