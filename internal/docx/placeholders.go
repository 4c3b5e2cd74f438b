package docx

import (
	"encoding/xml"
	"html"
	"regexp"
	"strings"
)

var (
	// One token per match: a paragraph open tag (<w:p>, <w:p ...>, <w:p .../>, never <w:pPr>),
	// a paragraph close tag, or a whole <w:t> text node. Self-closing <w:t/> carries no text.
	partToken = regexp.MustCompile(`(?s)<w:p(?:\s[^>]*)?/?>|</w:p>|(<w:t(?:\s[^>/]*)?>)(.*?)</w:t>`)
	// {{ name }} in the docxtpl / Jinja form
	placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)
)

// textNode is one <w:t> element of a part
type textNode struct {
	start, end int    // byte range of the whole element in the part
	openTag    string // <w:t ...>
	text       string // unescaped content
	offset     int    // position of text in the joined paragraph text
	touched    bool
}

// paragraph is the text of one <w:p>, excluding paragraphs nested in it
// (text boxes carry their own paragraphs inside a run of the outer one)
type paragraph struct {
	nodes  []*textNode
	joined string
}

// scanPart splits a part into text nodes and groups them by their innermost paragraph.
// Text outside any paragraph is returned in nodes but belongs to no paragraph.
func scanPart(content string) (nodes []*textNode, paragraphs []*paragraph) {
	var stack []*paragraph
	var texts []*strings.Builder

	for _, loc := range partToken.FindAllStringSubmatchIndex(content, -1) {
		token := content[loc[0]:loc[1]]
		switch {
		case loc[2] >= 0:
			text := html.UnescapeString(content[loc[4]:loc[5]])
			node := &textNode{
				start:   loc[0],
				end:     loc[1],
				openTag: content[loc[2]:loc[3]],
				text:    text,
			}
			nodes = append(nodes, node)
			if len(stack) == 0 {
				continue
			}
			top := len(stack) - 1
			node.offset = texts[top].Len()
			texts[top].WriteString(text)
			stack[top].nodes = append(stack[top].nodes, node)
		case token == "</w:p>":
			if len(stack) == 0 {
				continue
			}
			top := len(stack) - 1
			stack[top].joined = texts[top].String()
			paragraphs = append(paragraphs, stack[top])
			stack, texts = stack[:top], texts[:top]
		case strings.HasSuffix(token, "/>"):
			// empty paragraph
		default:
			stack = append(stack, &paragraph{})
			texts = append(texts, &strings.Builder{})
		}
	}

	// unclosed paragraphs still get their placeholders filled
	for i := len(stack) - 1; i >= 0; i-- {
		stack[i].joined = texts[i].String()
		paragraphs = append(paragraphs, stack[i])
	}
	return nodes, paragraphs
}

// fillPart substitutes placeholders in one XML part (document, header or footer).
// Names without a value are added to missing and rendered empty.
func fillPart(content string, values map[string]string, missing map[string]struct{}) string {
	nodes, paragraphs := scanPart(content)

	changed := false
	for _, p := range paragraphs {
		if fillParagraph(p, values, missing) {
			changed = true
		}
	}
	if !changed {
		return content
	}

	var b strings.Builder
	b.Grow(len(content))
	prev := 0
	for _, n := range nodes {
		if !n.touched {
			continue
		}
		b.WriteString(content[prev:n.start])
		b.WriteString(preserveSpace(n.openTag))
		_ = xml.EscapeText(&b, []byte(n.text))
		b.WriteString("</w:t>")
		prev = n.end
	}
	b.WriteString(content[prev:])

	return b.String()
}

// fillParagraph works on the joined text of every run so placeholders that Word
// split across runs are found. Replacement text goes into the run where the
// placeholder starts; the rest of the placeholder is cut from the following runs.
// Reports whether any node changed.
func fillParagraph(p *paragraph, values map[string]string, missing map[string]struct{}) bool {
	if len(p.nodes) == 0 || !strings.Contains(p.joined, "{{") {
		return false
	}

	matches := placeholderPattern.FindAllStringSubmatchIndex(p.joined, -1)
	if len(matches) == 0 {
		return false
	}

	nodes := p.nodes
	// right to left keeps the original offsets valid for earlier matches
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		start, end := m[0], m[1]
		name := p.joined[m[2]:m[3]]

		value, ok := values[name]
		if !ok {
			missing[name] = struct{}{}
		}

		first := nodeAt(nodes, start)
		last := nodeAt(nodes, end-1)

		head := nodes[first]
		localStart := start - head.offset
		if first == last {
			localEnd := end - head.offset
			head.text = head.text[:localStart] + value + head.text[localEnd:]
			head.touched = true
			continue
		}

		head.text = head.text[:localStart] + value
		head.touched = true
		for k := first + 1; k < last; k++ {
			nodes[k].text = ""
			nodes[k].touched = true
		}
		tail := nodes[last]
		tail.text = tail.text[end-tail.offset:]
		tail.touched = true
	}
	return true
}

// nodeAt returns the index of the node holding byte pos of the joined text
func nodeAt(nodes []*textNode, pos int) int {
	for i := len(nodes) - 1; i >= 0; i-- {
		if nodes[i].offset <= pos && pos < nodes[i].offset+len(nodes[i].text) {
			return i
		}
	}
	return 0
}

// preserveSpace keeps leading and trailing spaces of substituted values
func preserveSpace(openTag string) string {
	if strings.Contains(openTag, "xml:space") {
		return openTag
	}
	return strings.Replace(openTag, "<w:t", `<w:t xml:space="preserve"`, 1)
}

// findPlaceholders collects placeholder names of one XML part into names
func findPlaceholders(content string, names map[string]struct{}) {
	_, paragraphs := scanPart(content)
	for _, p := range paragraphs {
		for _, m := range placeholderPattern.FindAllStringSubmatch(p.joined, -1) {
			names[m[1]] = struct{}{}
		}
	}
}
