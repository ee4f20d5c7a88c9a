package share

// WebviewHeightRatio controls the size of the webview opened by a button.
type WebviewHeightRatio string

const (
	WebviewHeightFull    WebviewHeightRatio = "full"
	WebviewHeightTall    WebviewHeightRatio = "tall"
	WebviewHeightCompact WebviewHeightRatio = "compact"
)

// ImageAspectRatio is the aspect ratio of a generic template image.
type ImageAspectRatio string

const (
	ImageAspectHorizontal ImageAspectRatio = "horizontal"
	ImageAspectSquare     ImageAspectRatio = "square"
)

// TemplateMediaType is the media type of a messenger media template.
type TemplateMediaType string

const (
	TemplateMediaImage TemplateMediaType = "image"
	TemplateMediaVideo TemplateMediaType = "video"
)

// URLActionButton opens a URL from a messenger template.
type URLActionButton struct {
	Title                  string
	URL                    string
	WebviewHeightRatio     WebviewHeightRatio
	MessengerExtensions    bool
	FallbackURL            string
	HideWebviewShareButton bool
}

// GenericTemplateElement is the single element of a generic template.
type GenericTemplateElement struct {
	Title         string
	Subtitle      string
	ImageURL      string
	DefaultAction *URLActionButton
	Button        *URLActionButton
}

// MessengerGenericTemplateContent shares a generic messenger template.
type MessengerGenericTemplateContent struct {
	Base
	Sharable         bool
	ImageAspectRatio ImageAspectRatio
	Element          GenericTemplateElement
}

func (*MessengerGenericTemplateContent) Kind() Kind { return KindMessengerGenericTemplate }

// MessengerOpenGraphMusicTemplateContent shares a music open graph URL.
type MessengerOpenGraphMusicTemplateContent struct {
	Base
	URL    string
	Button *URLActionButton
}

func (*MessengerOpenGraphMusicTemplateContent) Kind() Kind {
	return KindMessengerOpenGraphMusicTemplate
}

// MessengerMediaTemplateContent shares an uploaded attachment or media URL.
type MessengerMediaTemplateContent struct {
	Base
	MediaType    TemplateMediaType
	AttachmentID string
	MediaURL     string
	Button       *URLActionButton
}

func (*MessengerMediaTemplateContent) Kind() Kind { return KindMessengerMediaTemplate }
