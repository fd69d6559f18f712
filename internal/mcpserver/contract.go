package mcpserver

// DocumentFormatContract describes the canonical document format that
// LLM consumers should follow when creating or replacing documents.
const DocumentFormatContract = `# Plate Document Format Contract

Every document stored in Plate is a JSON file with this envelope:

` + "```" + `json
{
  "schema": "plate",
  "version": 1,
  "document": {
    "children": [ ...block nodes... ]
  }
}
` + "```" + `

## Node types

1. **Text nodes** carry the actual characters and optional marks:
   ` + "```" + `json
   {"node": "text", "text": "hello", "marks": {"bold": true}}
   ` + "```" + `
   Supported marks: ` + "`" + `bold` + "`" + `, ` + "`" + `italic` + "`" + `, ` + "`" + `underline` + "`" + `,
   ` + "`" + `strikethrough` + "`" + `, ` + "`" + `code` + "`" + `, ` + "`" + `text_color` + "`" + `,
   ` + "`" + `highlight_color` + "`" + `, ` + "`" + `link` + "`" + `.
2. **Element nodes** have a ` + "`" + `kind` + "`" + ` and ` + "`" + `children` + "`" + `:
   ` + "`" + `paragraph` + "`" + `, ` + "`" + `heading` + "`" + ` (attrs.level 1-6), ` + "`" + `blockquote` + "`" + `,
   ` + "`" + `list_item` + "`" + ` (attrs.list_type "bulleted"/"ordered"), ` + "`" + `todo_item` + "`" + ` (attrs.checked).
3. **Void nodes** have no children: ` + "`" + `divider` + "`" + `, ` + "`" + `image` + "`" + ` (attrs.url, attrs.alt),
   ` + "`" + `mention` + "`" + ` (attrs.label).

## Rules

1. **The envelope is mandatory.** ` + "`" + `schema` + "`" + ` must be "plate" and ` + "`" + `version` + "`" + ` must be 1.
2. **Every block is a top-level child** of the document; blocks never nest.
3. **Element children are text and inline voids only.** A paragraph may contain
   text nodes and mentions, never another paragraph.
4. **Mentions link documents.** A mention's ` + "`" + `label` + "`" + ` is what backlink queries match on.
5. **File paths** end with ` + "`" + `.plate.json` + "`" + ` and use forward slashes.
6. **Prefer commands over raw edits.** Use the run_command tool (e.g.
   ` + "`" + `marks.toggle_bold` + "`" + `, ` + "`" + `block.set_heading` + "`" + `, ` + "`" + `list.toggle_bulleted` + "`" + `,
   ` + "`" + `core.insert_divider` + "`" + `, ` + "`" + `mention.insert` + "`" + `) instead of hand-editing
   JSON when a command exists.

## Example

` + "```" + `json
{
  "schema": "plate",
  "version": 1,
  "document": {
    "children": [
      {"node": "element", "kind": "heading", "attrs": {"level": 1},
       "children": [{"node": "text", "text": "Weekly standup"}]},
      {"node": "element", "kind": "paragraph",
       "children": [
         {"node": "text", "text": "Attendees: "},
         {"node": "void", "kind": "mention", "attrs": {"label": "alice"}},
         {"node": "text", "text": " and "},
         {"node": "void", "kind": "mention", "attrs": {"label": "bob"}}
       ]},
      {"node": "void", "kind": "divider"},
      {"node": "element", "kind": "todo_item", "attrs": {"checked": false},
       "children": [{"node": "text", "text": "review the design doc"}]}
    ]
  }
}
` + "```" + `
`
