package document

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestValueRoundTrip(t *testing.T) {
	doc := &Document{Children: []Node{
		Element("heading", Attrs{"level": 2}, Text("Title")),
		Element("paragraph", nil,
			Text("plain "),
			StyledText("bold", Marks{Bold: true}),
			Void("mention", Attrs{"label": "ada"}),
		),
		Divider(),
	}}

	data, err := EncodeValue(doc)
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}
	got, err := DecodeValue(data)
	if err != nil {
		t.Fatalf("DecodeValue: %v", err)
	}

	if len(got.Children) != 3 {
		t.Fatalf("children = %d, want 3", len(got.Children))
	}
	h := got.Children[0]
	if h.Kind != "heading" {
		t.Errorf("kind = %q", h.Kind)
	}
	if level, ok := h.Attrs.Int("level"); !ok || level != 2 {
		t.Errorf("level = %v", h.Attrs["level"])
	}
	p := got.Children[1]
	if len(p.Children) != 3 {
		t.Fatalf("paragraph children = %d", len(p.Children))
	}
	if p.Children[1].Marks != (Marks{Bold: true}) {
		t.Errorf("marks = %+v", p.Children[1].Marks)
	}
	m := p.Children[2]
	if m.Type != VoidNode || m.Kind != "mention" {
		t.Errorf("mention decoded as %+v", m)
	}
	if got.Children[2].Type != VoidNode || got.Children[2].Kind != "divider" {
		t.Errorf("divider decoded as %+v", got.Children[2])
	}
}

func TestValueEnvelope(t *testing.T) {
	data, err := EncodeValue(&Document{Children: []Node{Paragraph("x")}})
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}
	var v map[string]any
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if v["schema"] != "plate" {
		t.Errorf("schema = %v", v["schema"])
	}
	if v["version"] != float64(1) {
		t.Errorf("version = %v", v["version"])
	}
}

func TestNodeTags(t *testing.T) {
	data, err := json.Marshal(Paragraph("hi"))
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !strings.Contains(s, `"node":"element"`) || !strings.Contains(s, `"node":"text"`) {
		t.Errorf("tags missing: %s", s)
	}

	var n Node
	if err := json.Unmarshal([]byte(`{"node":"robot"}`), &n); err == nil {
		t.Error("unknown tag accepted")
	}
}

func TestImportSlate(t *testing.T) {
	legacy := `{
	  "schema": "slate",
	  "version": 1,
	  "document": [
	    {"type": "heading", "level": 3, "children": [{"text": "Head"}]},
	    {"type": "paragraph", "children": [
	      {"text": "a "},
	      {"text": "b", "strikeThrough": true, "backgroundColor": "#ff0"},
	      {"type": "link", "url": "https://example.com", "children": [{"text": "site"}]},
	      {"type": "mention", "label": "ada"}
	    ]},
	    {"type": "bulleted-list", "children": [
	      {"children": [{"text": "one"}]},
	      {"children": [{"text": "two"}]}
	    ]},
	    {"type": "numbered-list", "children": [
	      {"children": [{"text": "first"}]}
	    ]},
	    {"type": "blockquote", "children": [
	      {"type": "paragraph", "children": [{"text": "quoted"}]}
	    ]},
	    {"type": "todo-list-item", "checked": true, "children": [{"text": "done"}]},
	    {"type": "divider"},
	    {"type": "image", "url": "https://example.com/x.png"}
	  ]
	}`

	doc, err := ImportSlate([]byte(legacy))
	if err != nil {
		t.Fatalf("ImportSlate: %v", err)
	}

	// Lists flatten into sibling items.
	if len(doc.Children) != 9 {
		t.Fatalf("children = %d, want 9", len(doc.Children))
	}

	h := doc.Children[0]
	if h.Kind != "heading" {
		t.Errorf("block 0 kind = %q", h.Kind)
	}
	if level, _ := h.Attrs.Int("level"); level != 3 {
		t.Errorf("heading level = %d", level)
	}

	p := doc.Children[1]
	if len(p.Children) != 4 {
		t.Fatalf("paragraph children = %d", len(p.Children))
	}
	if m := p.Children[1].Marks; !m.Strikethrough || m.HighlightColor != "#ff0" {
		t.Errorf("legacy mark aliases: %+v", m)
	}
	if p.Children[2].Marks.Link != "https://example.com" {
		t.Errorf("link wrapper not flattened: %+v", p.Children[2])
	}
	if p.Children[3].Kind != "mention" {
		t.Errorf("mention = %+v", p.Children[3])
	}

	li := doc.Children[2]
	if li.Kind != "list_item" {
		t.Fatalf("block 2 kind = %q", li.Kind)
	}
	if lt, _ := li.Attrs.String("list_type"); lt != "bulleted" {
		t.Errorf("list_type = %q", lt)
	}
	if lt, _ := doc.Children[4].Attrs.String("list_type"); lt != "ordered" {
		t.Errorf("ordered list_type = %q", lt)
	}

	q := doc.Children[5]
	if q.Kind != "blockquote" || len(q.Children) != 1 {
		t.Errorf("blockquote = %+v", q)
	}
	todo := doc.Children[6]
	if checked, _ := todo.Attrs.Bool("checked"); todo.Kind != "todo_item" || !checked {
		t.Errorf("todo = %+v", todo)
	}
	if doc.Children[7].Kind != "divider" {
		t.Errorf("divider = %+v", doc.Children[7])
	}
	if src, _ := doc.Children[8].Attrs.String("src"); src != "https://example.com/x.png" {
		t.Errorf("image src = %q", src)
	}
}

func TestImportSlateBareArray(t *testing.T) {
	doc, err := ImportSlate([]byte(`[{"type":"paragraph","children":[{"text":"hi"}]}]`))
	if err != nil {
		t.Fatalf("ImportSlate: %v", err)
	}
	if len(doc.Children) != 1 || doc.Children[0].Kind != "paragraph" {
		t.Errorf("doc = %+v", doc)
	}
}
