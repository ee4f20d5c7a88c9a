package share

// OpenGraphContent shares an open graph action.
type OpenGraphContent struct {
	Base
	Action              *OpenGraphAction
	PreviewPropertyName string
}

func (*OpenGraphContent) Kind() Kind { return KindOpenGraph }

// OpenGraphAction is a typed action with a property graph. Property values
// may be strings, booleans, numbers, nil, lists of those, nested
// *OpenGraphObject values or photos.
type OpenGraphAction struct {
	Type       string
	Properties map[string]any
}

// OpenGraphObject is a nested node of an open graph property graph.
type OpenGraphObject struct {
	Properties   map[string]any
	CreateObject bool
}
