package document

// Marks is the formatting applied to a text node. Optional string marks use
// "" for "not set". The struct is comparable, so identical formatting can be
// checked with ==.
type Marks struct {
	Bold           bool   `json:"bold,omitempty"`
	Italic         bool   `json:"italic,omitempty"`
	Underline      bool   `json:"underline,omitempty"`
	Strikethrough  bool   `json:"strikethrough,omitempty"`
	Code           bool   `json:"code,omitempty"`
	TextColor      string `json:"text_color,omitempty"`
	HighlightColor string `json:"highlight_color,omitempty"`
	Link           string `json:"link,omitempty"`
}

// IsZero reports whether no mark is set.
func (m Marks) IsZero() bool {
	return m == Marks{}
}
