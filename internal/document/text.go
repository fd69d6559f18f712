package document

import "strings"

// BlockText returns the inline text of a single node: text leaves verbatim,
// voids via their inline rendering, and elements recursively.
func BlockText(n *Node) string {
	switch n.Type {
	case TextNode:
		return n.Text
	case VoidNode:
		return n.InlineText()
	case ElementNode:
		var sb strings.Builder
		for i := range n.Children {
			child := &n.Children[i]
			if child.Type == ElementNode && i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(BlockText(child))
		}
		return sb.String()
	default:
		return ""
	}
}

// PlainText renders the whole document as newline-separated block text. Used
// for search indexing and MCP previews, not for round-tripping.
func PlainText(doc *Document) string {
	parts := make([]string, 0, len(doc.Children))
	for i := range doc.Children {
		parts = append(parts, BlockText(&doc.Children[i]))
	}
	return strings.Join(parts, "\n")
}

// MentionLabels collects the labels of every mention void in document order.
// Duplicates are kept so callers can count references.
func MentionLabels(doc *Document) []string {
	var labels []string
	var walk func(nodes []Node)
	walk = func(nodes []Node) {
		for i := range nodes {
			n := &nodes[i]
			if n.Type == VoidNode && n.Kind == "mention" {
				if label, ok := n.Attrs.String("label"); ok && label != "" {
					labels = append(labels, label)
				}
				continue
			}
			walk(n.Children)
		}
	}
	walk(doc.Children)
	return labels
}

// Title derives a display title: the text of the first non-empty block,
// truncated to a sane length.
func Title(doc *Document) string {
	for i := range doc.Children {
		t := strings.TrimSpace(BlockText(&doc.Children[i]))
		if t == "" {
			continue
		}
		if ix := strings.IndexByte(t, '\n'); ix >= 0 {
			t = t[:ix]
		}
		if len(t) > 120 {
			t = t[:ClampToCharBoundary(t, 120)]
		}
		return t
	}
	return ""
}
