package params

// Parameter keys understood by the native dialog host. The values are a wire
// contract and must not change.
const (
	ContentURL        = "LINK"
	PlaceID           = "PLACE"
	PageID            = "PAGE"
	Ref               = "REF"
	PeopleIDs         = "FRIENDS"
	Hashtag           = "HASHTAG"
	DataFailuresFatal = "DATA_FAILURES_FATAL"

	Title         = "TITLE"
	Subtitle      = "SUBTITLE"
	Description   = "DESCRIPTION"
	ImageURL      = "IMAGE"
	Quote         = "QUOTE"
	MessengerURL  = "MESSENGER_LINK"
	TargetDisplay = "TARGET_DISPLAY"
	ItemURL       = "ITEM_URL"

	Photos   = "PHOTOS"
	VideoURL = "VIDEO"
	Media    = "MEDIA"

	PreviewPropertyName = "PREVIEW_PROPERTY_NAME"
	ActionType          = "ACTION_TYPE"
	Action              = "ACTION"

	EffectID       = "effect_id"
	EffectArgs     = "effect_arguments"
	EffectTextures = "effect_textures"

	StoryBackgroundAsset     = "bg_asset"
	StoryInteractiveAssetURI = "interactive_asset_uri"
	StoryBackgroundColors    = "top_background_color_list"
	StoryDeepLinkURL         = "content_url"

	PreviewType              = "PREVIEW_TYPE"
	OpenGraphURL             = "OPEN_GRAPH_URL"
	AttachmentID             = "ATTACHMENT_ID"
	MessengerPlatformContent = "MESSENGER_PLATFORM_CONTENT"
	MediaType                = "MEDIA_TYPE"
)

// Keys used inside nested media descriptors.
const (
	MediaInfoType      = "type"
	MediaInfoURI       = "uri"
	MediaInfoExtension = "extension"
)

// Preview types for messenger templates.
const (
	PreviewDefault   = "DEFAULT"
	PreviewOpenGraph = "OPEN_GRAPH"
)
