package sharevalidator

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/example/share-dialog-service/internal/models"
	"github.com/example/share-dialog-service/internal/share"
	"github.com/example/share-dialog-service/internal/util"
)

const (
	ogPhotoKey        = "$photo"
	ogCreateObjectKey = "$create_object"
)

func (v *Validator) content(p *models.ContentPayload) (share.Content, error) {
	base, err := v.base(p)
	if err != nil {
		return nil, err
	}

	kind := share.Kind(strings.ToLower(strings.TrimSpace(p.Kind)))
	switch kind {
	case share.KindLink:
		return v.link(base, p)
	case share.KindPhoto:
		return v.photo(base, p)
	case share.KindVideo:
		return v.video(base, p)
	case share.KindMedia:
		return v.media(base, p)
	case share.KindOpenGraph:
		return v.openGraph(base, p)
	case share.KindCameraEffect:
		return v.cameraEffect(base, p)
	case share.KindMessengerGenericTemplate:
		return v.genericTemplate(base, p)
	case share.KindMessengerOpenGraphMusicTemplate:
		return v.musicTemplate(base, p)
	case share.KindMessengerMediaTemplate:
		return v.mediaTemplate(base, p)
	case share.KindStory:
		return v.story(base, p)
	default:
		return &share.Unrecognized{Base: base, Name: string(kind)}, nil
	}
}

func (v *Validator) base(p *models.ContentPayload) (share.Base, error) {
	contentURL, err := util.ValidateOptionalHTTPURL(p.ContentURL)
	if err != nil {
		return share.Base{}, fieldErr("content_url", err)
	}
	hashtag, err := util.ValidateHashtag(p.Hashtag)
	if err != nil {
		return share.Base{}, fieldErr("hashtag", err)
	}
	if err := util.EnsureMaxItems("people_ids", len(p.PeopleIDs), v.cfg.PeopleIDsMax); err != nil {
		return share.Base{}, fieldErr("people_ids", err)
	}
	var people []string
	for i, id := range p.PeopleIDs {
		id = strings.TrimSpace(id)
		if id == "" || strings.Contains(id, ",") {
			return share.Base{}, fieldErr(fmt.Sprintf("people_ids[%d]", i), errors.New("must be a non-empty id without commas"))
		}
		people = append(people, id)
	}
	return share.Base{
		ContentURL: contentURL,
		PlaceID:    strings.TrimSpace(p.PlaceID),
		PageID:     strings.TrimSpace(p.PageID),
		Ref:        strings.TrimSpace(p.Ref),
		PeopleIDs:  people,
		Hashtag:    hashtag,
	}, nil
}

func (v *Validator) link(base share.Base, p *models.ContentPayload) (share.Content, error) {
	if err := v.texts(map[string]string{"title": p.Title, "description": p.Description, "quote": p.Quote}); err != nil {
		return nil, err
	}
	imageURL, err := util.ValidateOptionalHTTPURL(p.ImageURL)
	if err != nil {
		return nil, fieldErr("image_url", err)
	}
	return &share.LinkContent{
		Base:        base,
		Title:       p.Title,
		Description: p.Description,
		ImageURL:    imageURL,
		Quote:       p.Quote,
	}, nil
}

func (v *Validator) photo(base share.Base, p *models.ContentPayload) (share.Content, error) {
	if len(p.Photos) == 0 {
		return nil, fieldErr("photos", errors.New("at least one photo is required"))
	}
	if err := util.EnsureMaxItems("photos", len(p.Photos), v.cfg.PhotosMax); err != nil {
		return nil, fieldErr("photos", err)
	}
	photos := make([]share.Photo, 0, len(p.Photos))
	for i := range p.Photos {
		photo, err := v.photoFrom(fmt.Sprintf("photos[%d]", i), &p.Photos[i])
		if err != nil {
			return nil, err
		}
		photos = append(photos, photo)
	}
	return &share.PhotoContent{Base: base, Photos: photos}, nil
}

func (v *Validator) video(base share.Base, p *models.ContentPayload) (share.Content, error) {
	if p.Video == nil {
		return nil, fieldErr("video", errors.New("is required"))
	}
	if err := v.texts(map[string]string{"title": p.Title, "description": p.Description}); err != nil {
		return nil, err
	}
	asset, err := v.asset("video", p.Video)
	if err != nil {
		return nil, err
	}
	content := &share.VideoContent{
		Base:        base,
		Title:       p.Title,
		Description: p.Description,
		Video:       share.Video{Asset: asset},
	}
	if p.PreviewPhoto != nil {
		preview, err := v.photoFrom("preview_photo", p.PreviewPhoto)
		if err != nil {
			return nil, err
		}
		content.PreviewPhoto = &preview
	}
	return content, nil
}

func (v *Validator) media(base share.Base, p *models.ContentPayload) (share.Content, error) {
	if len(p.Media) == 0 {
		return nil, fieldErr("media", errors.New("at least one medium is required"))
	}
	if err := util.EnsureMaxItems("media", len(p.Media), v.cfg.MediaMax); err != nil {
		return nil, fieldErr("media", err)
	}
	media := make([]share.Medium, 0, len(p.Media))
	for i := range p.Media {
		m, err := v.medium(fmt.Sprintf("media[%d]", i), &p.Media[i])
		if err != nil {
			return nil, err
		}
		media = append(media, m)
	}
	return &share.MediaContent{Base: base, Media: media}, nil
}

func (v *Validator) openGraph(base share.Base, p *models.ContentPayload) (share.Content, error) {
	if p.Action == nil || strings.TrimSpace(p.Action.Type) == "" {
		return nil, fieldErr("action.type", errors.New("is required"))
	}
	preview := strings.TrimSpace(p.PreviewPropertyName)
	if preview == "" {
		return nil, fieldErr("preview_property_name", errors.New("is required"))
	}
	if _, ok := p.Action.Properties[preview]; !ok {
		return nil, fieldErr("preview_property_name", fmt.Errorf("%q is not a property of the action", preview))
	}
	props, err := v.graphObject("action.properties", p.Action.Properties)
	if err != nil {
		return nil, err
	}
	return &share.OpenGraphContent{
		Base:                base,
		Action:              &share.OpenGraphAction{Type: strings.TrimSpace(p.Action.Type), Properties: props},
		PreviewPropertyName: preview,
	}, nil
}

func (v *Validator) cameraEffect(base share.Base, p *models.ContentPayload) (share.Content, error) {
	if strings.TrimSpace(p.EffectID) == "" {
		return nil, fieldErr("effect_id", errors.New("is required"))
	}
	if err := util.EnsureMaxItems("effect_arguments", len(p.EffectArguments), v.cfg.EffectArgsMax); err != nil {
		return nil, fieldErr("effect_arguments", err)
	}
	if err := util.EnsureMaxItems("effect_textures", len(p.EffectTextures), v.cfg.TexturesMax); err != nil {
		return nil, fieldErr("effect_textures", err)
	}

	content := &share.CameraEffectContent{Base: base, EffectID: strings.TrimSpace(p.EffectID)}
	if p.EffectArguments != nil {
		content.Arguments = make(share.CameraEffectArguments, len(p.EffectArguments))
		for name, raw := range p.EffectArguments {
			arg, err := effectArgument(raw)
			if err != nil {
				return nil, fieldErr("effect_arguments."+name, err)
			}
			content.Arguments[name] = arg
		}
	}
	if len(p.EffectTextures) > 0 {
		content.Textures = make(share.CameraEffectTextures, len(p.EffectTextures))
		for name := range p.EffectTextures {
			texture := p.EffectTextures[name]
			asset, err := v.asset("effect_textures."+name, &texture)
			if err != nil {
				return nil, err
			}
			content.Textures[name] = asset
		}
	}
	return content, nil
}

func (v *Validator) genericTemplate(base share.Base, p *models.ContentPayload) (share.Content, error) {
	if p.Element == nil || strings.TrimSpace(p.Element.Title) == "" {
		return nil, fieldErr("element.title", errors.New("is required"))
	}
	ratio := share.ImageAspectRatio(strings.ToLower(strings.TrimSpace(p.ImageAspectRatio)))
	switch ratio {
	case "":
		ratio = share.ImageAspectHorizontal
	case share.ImageAspectHorizontal, share.ImageAspectSquare:
	default:
		return nil, fieldErr("image_aspect_ratio", fmt.Errorf("unsupported value %q", p.ImageAspectRatio))
	}
	imageURL, err := util.ValidateOptionalHTTPURL(p.Element.ImageURL)
	if err != nil {
		return nil, fieldErr("element.image_url", err)
	}
	defaultAction, err := button("element.default_action", p.Element.DefaultAction)
	if err != nil {
		return nil, err
	}
	btn, err := button("element.button", p.Element.Button)
	if err != nil {
		return nil, err
	}
	return &share.MessengerGenericTemplateContent{
		Base:             base,
		Sharable:         p.Sharable,
		ImageAspectRatio: ratio,
		Element: share.GenericTemplateElement{
			Title:         p.Element.Title,
			Subtitle:      p.Element.Subtitle,
			ImageURL:      imageURL,
			DefaultAction: defaultAction,
			Button:        btn,
		},
	}, nil
}

func (v *Validator) musicTemplate(base share.Base, p *models.ContentPayload) (share.Content, error) {
	u, err := util.ValidateHTTPURL(p.URL)
	if err != nil {
		return nil, fieldErr("url", err)
	}
	btn, err := button("button", p.Button)
	if err != nil {
		return nil, err
	}
	return &share.MessengerOpenGraphMusicTemplateContent{Base: base, URL: u, Button: btn}, nil
}

func (v *Validator) mediaTemplate(base share.Base, p *models.ContentPayload) (share.Content, error) {
	mediaType := share.TemplateMediaType(strings.ToLower(strings.TrimSpace(p.MediaType)))
	switch mediaType {
	case "":
		mediaType = share.TemplateMediaImage
	case share.TemplateMediaImage, share.TemplateMediaVideo:
	default:
		return nil, fieldErr("media_type", fmt.Errorf("unsupported value %q", p.MediaType))
	}
	attachmentID := strings.TrimSpace(p.AttachmentID)
	mediaURL, err := util.ValidateOptionalHTTPURL(p.MediaURL)
	if err != nil {
		return nil, fieldErr("media_url", err)
	}
	if attachmentID == "" && mediaURL == "" {
		return nil, fieldErr("media_url", errors.New("attachment_id or media_url is required"))
	}
	btn, err := button("button", p.Button)
	if err != nil {
		return nil, err
	}
	return &share.MessengerMediaTemplateContent{
		Base:         base,
		MediaType:    mediaType,
		AttachmentID: attachmentID,
		MediaURL:     mediaURL,
		Button:       btn,
	}, nil
}

func (v *Validator) story(base share.Base, p *models.ContentPayload) (share.Content, error) {
	if p.BackgroundAsset == nil && p.Sticker == nil {
		return nil, fieldErr("background_asset", errors.New("background_asset or sticker is required"))
	}
	colors, err := util.ValidateColors(p.BackgroundColors, v.cfg.ColorsMax)
	if err != nil {
		return nil, fieldErr("background_colors", err)
	}
	link, err := util.ValidateURI(p.AttributionLink)
	if err != nil {
		return nil, fieldErr("attribution_link", err)
	}

	content := &share.StoryContent{Base: base, BackgroundColors: colors, AttributionLink: link}
	if p.BackgroundAsset != nil {
		bg, err := v.medium("background_asset", p.BackgroundAsset)
		if err != nil {
			return nil, err
		}
		content.BackgroundAsset = bg
	}
	if p.Sticker != nil {
		sticker, err := v.photoFrom("sticker", p.Sticker)
		if err != nil {
			return nil, err
		}
		content.Sticker = &sticker
	}
	return content, nil
}

func (v *Validator) texts(fields map[string]string) error {
	for name, value := range fields {
		if err := util.EnsureMaxRunes(name, value, v.cfg.TextMaxLen); err != nil {
			return fieldErr(name, err)
		}
	}
	return nil
}

func (v *Validator) asset(field string, p *models.AssetPayload) (share.Asset, error) {
	set := 0
	for _, present := range []bool{p.URL != "", p.Path != "", len(p.Data) > 0} {
		if present {
			set++
		}
	}
	if set != 1 {
		return share.Asset{}, fieldErr(field, errors.New("exactly one of url, path or data is required"))
	}

	asset := share.Asset{LocalPath: p.Path, Data: p.Data, ContentType: strings.TrimSpace(p.ContentType)}
	if p.URL != "" {
		u, err := util.ValidateHTTPURL(p.URL)
		if err != nil {
			return share.Asset{}, fieldErr(field+".url", err)
		}
		asset.URL = u
	}
	if v.cfg.InlineAssetBytes > 0 && len(p.Data) > v.cfg.InlineAssetBytes {
		return share.Asset{}, fieldErr(field+".data", fmt.Errorf("exceeds maximum size of %d bytes", v.cfg.InlineAssetBytes))
	}
	return asset, nil
}

func (v *Validator) photoFrom(field string, p *models.PhotoPayload) (share.Photo, error) {
	asset, err := v.asset(field, &p.AssetPayload)
	if err != nil {
		return share.Photo{}, err
	}
	if err := util.EnsureMaxRunes(field+".caption", p.Caption, v.cfg.TextMaxLen); err != nil {
		return share.Photo{}, fieldErr(field, err)
	}
	return share.Photo{Asset: asset, Caption: p.Caption, UserGenerated: p.UserGenerated}, nil
}

func (v *Validator) medium(field string, p *models.MediumPayload) (share.Medium, error) {
	switch share.MediaType(strings.ToLower(strings.TrimSpace(p.Type))) {
	case share.MediaTypePhoto:
		return v.photoFrom(field, &p.PhotoPayload)
	case share.MediaTypeVideo:
		asset, err := v.asset(field, &p.AssetPayload)
		if err != nil {
			return nil, err
		}
		return share.Video{Asset: asset}, nil
	default:
		return nil, fieldErr(field+".type", fmt.Errorf("unsupported media type %q", p.Type))
	}
}

// graphObject converts decoded JSON properties into an open graph property
// graph. Objects holding "$photo" become photos; other objects become nested
// open graph objects.
func (v *Validator) graphObject(field string, props map[string]any) (map[string]any, error) {
	if props == nil {
		return nil, nil
	}
	out := make(map[string]any, len(props))
	for key, raw := range props {
		value, err := v.graphValue(field+"."+key, raw)
		if err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, nil
}

func (v *Validator) graphValue(field string, raw any) (any, error) {
	switch val := raw.(type) {
	case nil, string, bool, float64:
		return val, nil
	case []any:
		out := make([]any, 0, len(val))
		for i, item := range val {
			converted, err := v.graphValue(fmt.Sprintf("%s[%d]", field, i), item)
			if err != nil {
				return nil, err
			}
			out = append(out, converted)
		}
		return out, nil
	case map[string]any:
		if photo, ok := val[ogPhotoKey]; ok {
			return v.graphPhoto(field, photo)
		}
		create, _ := val[ogCreateObjectKey].(bool)
		rest := make(map[string]any, len(val))
		for k, item := range val {
			if k != ogCreateObjectKey {
				rest[k] = item
			}
		}
		props, err := v.graphObject(field, rest)
		if err != nil {
			return nil, err
		}
		return &share.OpenGraphObject{Properties: props, CreateObject: create}, nil
	default:
		return nil, fieldErr(field, fmt.Errorf("unsupported value type %T", raw))
	}
}

func (v *Validator) graphPhoto(field string, raw any) (share.Photo, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return share.Photo{}, fieldErr(field, errors.New("photo must be an object"))
	}
	var p models.PhotoPayload
	p.URL, _ = obj["url"].(string)
	p.Path, _ = obj["path"].(string)
	p.ContentType, _ = obj["content_type"].(string)
	p.Caption, _ = obj["caption"].(string)
	p.UserGenerated, _ = obj["user_generated"].(bool)
	if encoded, ok := obj["data"].(string); ok && encoded != "" {
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return share.Photo{}, fieldErr(field+".data", err)
		}
		p.Data = data
	}
	return v.photoFrom(field, &p)
}

func effectArgument(raw any) (any, error) {
	switch val := raw.(type) {
	case string:
		return val, nil
	case []any:
		out := make([]string, 0, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("item %d: expected string, got %T", i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected string or list of strings, got %T", raw)
	}
}

func button(field string, p *models.ButtonPayload) (*share.URLActionButton, error) {
	if p == nil {
		return nil, nil
	}
	u, err := util.ValidateHTTPURL(p.URL)
	if err != nil {
		return nil, fieldErr(field+".url", err)
	}
	fallback, err := util.ValidateOptionalHTTPURL(p.FallbackURL)
	if err != nil {
		return nil, fieldErr(field+".fallback_url", err)
	}
	ratio := share.WebviewHeightRatio(strings.ToLower(strings.TrimSpace(p.WebviewHeightRatio)))
	switch ratio {
	case "":
		ratio = share.WebviewHeightFull
	case share.WebviewHeightFull, share.WebviewHeightTall, share.WebviewHeightCompact:
	default:
		return nil, fieldErr(field+".webview_height_ratio", fmt.Errorf("unsupported value %q", p.WebviewHeightRatio))
	}
	return &share.URLActionButton{
		Title:                  p.Title,
		URL:                    u,
		WebviewHeightRatio:     ratio,
		MessengerExtensions:    p.MessengerExtensions,
		FallbackURL:            fallback,
		HideWebviewShareButton: p.HideWebviewShareButton,
	}, nil
}

func fieldErr(field string, err error) error {
	return &share.ValidationError{Field: "content." + field, Reason: err.Error()}
}
