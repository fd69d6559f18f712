package document

import (
	"encoding/json"
	"fmt"
)

// slateNode is the untagged legacy node shape: a text leaf when "text" is
// present, otherwise an element keyed by "type".
type slateNode struct {
	Text *string `json:"text,omitempty"`

	Bold            bool   `json:"bold,omitempty"`
	Italic          bool   `json:"italic,omitempty"`
	Underline       bool   `json:"underline,omitempty"`
	Strikethrough   bool   `json:"strikethrough,omitempty"`
	StrikeThroughCC bool   `json:"strikeThrough,omitempty"`
	Code            bool   `json:"code,omitempty"`
	Color           string `json:"color,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`

	Kind     string      `json:"type,omitempty"`
	Level    *int        `json:"level,omitempty"`
	Checked  *bool       `json:"checked,omitempty"`
	Align    string      `json:"align,omitempty"`
	URL      string      `json:"url,omitempty"`
	Href     string      `json:"href,omitempty"`
	Label    string      `json:"label,omitempty"`
	Children []slateNode `json:"children,omitempty"`
}

type slateValue struct {
	Schema   string      `json:"schema"`
	Version  int         `json:"version"`
	Document []slateNode `json:"document"`
}

// ImportSlate converts a legacy flat Slate node list into a document. The
// input may be the versioned {"schema":"slate",...} envelope or a bare node
// array.
func ImportSlate(data []byte) (*Document, error) {
	var nodes []slateNode
	var v slateValue
	if err := json.Unmarshal(data, &v); err == nil && v.Document != nil {
		nodes = v.Document
	} else if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("document: import slate: %w", err)
	}

	doc := &Document{}
	for _, n := range nodes {
		doc.Children = append(doc.Children, slateBlocks(n)...)
	}
	return doc, nil
}

// slateBlocks converts one top-level legacy node into block nodes. List and
// quote wrappers expand into multiple sibling blocks or a single container.
func slateBlocks(n slateNode) []Node {
	if n.Text != nil {
		// Bare text at the top level gets wrapped in a paragraph.
		return []Node{Element("paragraph", nil, n.textNode())}
	}

	switch n.Kind {
	case "bulleted-list", "numbered-list":
		listType := "bulleted"
		if n.Kind == "numbered-list" {
			listType = "ordered"
		}
		var out []Node
		for _, item := range n.Children {
			attrs := Attrs{"list_type": listType}
			out = append(out, Element("list_item", attrs, slateInlines(item.Children)...))
		}
		return out
	case "blockquote":
		var inner []Node
		for _, child := range n.Children {
			inner = append(inner, slateBlocks(child)...)
		}
		return []Node{Element("blockquote", nil, inner...)}
	case "divider":
		return []Node{Divider()}
	case "image":
		src := n.URL
		if src == "" {
			src = n.Href
		}
		return []Node{Void("image", Attrs{"src": src})}
	case "heading":
		level := 1
		if n.Level != nil {
			level = *n.Level
		}
		return []Node{Element("heading", Attrs{"level": level}, slateInlines(n.Children)...)}
	case "todo-list-item":
		checked := n.Checked != nil && *n.Checked
		return []Node{Element("todo_item", Attrs{"checked": checked}, slateInlines(n.Children)...)}
	default:
		attrs := Attrs{}
		if n.Align != "" && n.Align != "left" {
			attrs["align"] = n.Align
		}
		if len(attrs) == 0 {
			attrs = nil
		}
		return []Node{Element("paragraph", attrs, slateInlines(n.Children)...)}
	}
}

// slateInlines converts legacy inline children: text leaves, link wrappers
// (flattened into the link mark), and mention voids.
func slateInlines(children []slateNode) []Node {
	var out []Node
	for _, c := range children {
		switch {
		case c.Text != nil:
			out = append(out, c.textNode())
		case c.Kind == "link":
			url := c.URL
			if url == "" {
				url = c.Href
			}
			for _, inner := range c.Children {
				if inner.Text == nil {
					continue
				}
				t := inner.textNode()
				t.Marks.Link = url
				out = append(out, t)
			}
		case c.Kind == "mention":
			out = append(out, Void("mention", Attrs{"label": c.Label}))
		}
	}
	return out
}

func (n slateNode) textNode() Node {
	text := ""
	if n.Text != nil {
		text = *n.Text
	}
	return StyledText(text, Marks{
		Bold:           n.Bold,
		Italic:         n.Italic,
		Underline:      n.Underline,
		Strikethrough:  n.Strikethrough || n.StrikeThroughCC,
		Code:           n.Code,
		TextColor:      n.Color,
		HighlightColor: n.BackgroundColor,
	})
}
