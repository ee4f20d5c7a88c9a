package share

// Kind identifies the active variant of a Content value.
type Kind string

// Supported content kinds.
const (
	KindLink                            Kind = "link"
	KindPhoto                           Kind = "photo"
	KindVideo                           Kind = "video"
	KindOpenGraph                       Kind = "open_graph"
	KindMedia                           Kind = "media"
	KindCameraEffect                    Kind = "camera_effect"
	KindMessengerGenericTemplate        Kind = "messenger_generic_template"
	KindMessengerOpenGraphMusicTemplate Kind = "messenger_open_graph_music_template"
	KindMessengerMediaTemplate          Kind = "messenger_media_template"
	KindStory                           Kind = "story"
)

// Content is the sharable payload handed to the dialog parameter builder.
// Exactly one concrete variant is active per share call.
type Content interface {
	Kind() Kind
	Common() *Base
}

// Base carries the fields shared by every content kind.
type Base struct {
	ContentURL string
	PlaceID    string
	PageID     string
	Ref        string
	PeopleIDs  []string
	Hashtag    string
}

// Common returns the shared fields of a content value.
func (b *Base) Common() *Base { return b }

// LinkContent shares a URL with optional preview text.
type LinkContent struct {
	Base
	Title       string
	Description string
	ImageURL    string
	Quote       string
}

func (*LinkContent) Kind() Kind { return KindLink }

// PhotoContent shares an ordered list of photos.
type PhotoContent struct {
	Base
	Photos []Photo
}

func (*PhotoContent) Kind() Kind { return KindPhoto }

// VideoContent shares a single video.
type VideoContent struct {
	Base
	Title        string
	Description  string
	PreviewPhoto *Photo
	Video        Video
}

func (*VideoContent) Kind() Kind { return KindVideo }

// MediaContent shares a mixed, ordered collection of photos and videos.
type MediaContent struct {
	Base
	Media []Medium
}

func (*MediaContent) Kind() Kind { return KindMedia }

// CameraEffectContent shares a camera effect with its arguments and textures.
type CameraEffectContent struct {
	Base
	EffectID  string
	Arguments CameraEffectArguments
	Textures  CameraEffectTextures
}

func (*CameraEffectContent) Kind() Kind { return KindCameraEffect }

// CameraEffectArguments maps argument names to a string or a []string.
type CameraEffectArguments map[string]any

// CameraEffectTextures maps texture names to image assets.
type CameraEffectTextures map[string]Asset

// StoryContent shares a story composed of a background and a sticker.
type StoryContent struct {
	Base
	BackgroundAsset  Medium
	Sticker          *Photo
	BackgroundColors []string
	AttributionLink  string
}

func (*StoryContent) Kind() Kind { return KindStory }

// Unrecognized stands in for content kinds this service does not know how
// to map. The builder produces no parameters for it.
type Unrecognized struct {
	Base
	Name string
}

func (u *Unrecognized) Kind() Kind { return Kind(u.Name) }
