package types

// OpenRequest describes a caller's window request. Optional fields are
// pointers (or zero-value-skipped) so "unset" is distinguishable from an
// explicit value. Props is the opaque, JSON-serializable sub-bag handed
// to the window content.
type OpenRequest struct {
	Category  string         `json:"category"`
	Title     string         `json:"title,omitempty"`
	Width     int            `json:"width,omitempty"`
	Height    int            `json:"height,omitempty"`
	Resizable *bool          `json:"resizable,omitempty"`
	Frame     *bool          `json:"frame,omitempty"`
	Props     map[string]any `json:"props,omitempty"`
	ForceCold bool           `json:"force_cold,omitempty"`
}

// Params converts the set fields of the request into a parameter bag.
func (r OpenRequest) Params() Params {
	p := Params{}
	if r.Category != "" {
		p[KeyCategory] = r.Category
	}
	if r.Title != "" {
		p[KeyTitle] = r.Title
	}
	if r.Width > 0 {
		p[KeyWidth] = r.Width
	}
	if r.Height > 0 {
		p[KeyHeight] = r.Height
	}
	if r.Resizable != nil {
		p[KeyResizable] = *r.Resizable
	}
	if r.Frame != nil {
		p[KeyFrame] = *r.Frame
	}
	if len(r.Props) > 0 {
		props := make(map[string]any, len(r.Props))
		for k, v := range r.Props {
			props[k] = v
		}
		p[KeyProps] = props
	}
	return p.Normalize()
}

// HotCategoryConfig configures a pre-warmed window pool for one
// category.
type HotCategoryConfig struct {
	Category   string   `json:"category" yaml:"category"`
	TargetSize int      `json:"target_size" yaml:"target_size"`
	Bundles    []string `json:"bundles" yaml:"bundles"`
}
