package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const stylesXML = `<?xml version="1.0"?><w:styles xmlns:w="x"><w:style w:styleId="Normal"/></w:styles>`

func wrapBody(paragraphs string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		paragraphs +
		`</w:body></w:document>`
}

func para(runs ...string) string {
	var b bytes.Buffer
	b.WriteString(`<w:p w:rsidR="00A1">`)
	for _, text := range runs {
		b.WriteString(`<w:r><w:rPr><w:b/></w:rPr><w:t>`)
		b.WriteString(text)
		b.WriteString(`</w:t></w:r>`)
	}
	b.WriteString(`</w:p>`)
	return b.String()
}

// textBoxPara is one outer paragraph holding before, a text box with inner, then after
func textBoxPara(before, inner, after string) string {
	return `<w:p><w:r><w:t>` + before + `</w:t></w:r>` +
		`<w:r><w:pict><v:shape><v:textbox><w:txbxContent>` + para(inner) + `</w:txbxContent></v:textbox></v:shape></w:pict></w:r>` +
		`<w:r><w:t>` + after + `</w:t></w:r></w:p>`
}

// writeTemplate builds a minimal .docx in dir and returns its path
func writeTemplate(t *testing.T, dir string, parts map[string]string) string {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range parts {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	path := filepath.Join(dir, "template.docx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func readPart(t *testing.T, doc []byte, name string) string {
	t.Helper()

	reader, err := zip.NewReader(bytes.NewReader(doc), int64(len(doc)))
	require.NoError(t, err)
	for _, f := range reader.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(content)
	}
	t.Fatalf("part %s not found", name)
	return ""
}

func newTestRenderer(path string, strict bool) *Renderer {
	return NewRenderer(Config{TemplatePath: path, Strict: strict}, zap.NewNop())
}

func TestRenderer_Render(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		values   map[string]string
		contains []string
		excludes []string
	}{
		{
			name:     "single run",
			body:     para("甲方：{{ company_name }}"),
			values:   map[string]string{"company_name": "東海公司"},
			contains: []string{"甲方：東海公司"},
			excludes: []string{"{{"},
		},
		{
			name:     "no spaces inside braces",
			body:     para("{{s_y}}年"),
			values:   map[string]string{"s_y": "114"},
			contains: []string{"114年"},
		},
		{
			name:     "placeholder split across runs",
			body:     para("負責人：{{ comp", "any_owner", " }}先生"),
			values:   map[string]string{"company_owner": "陳大文"},
			contains: []string{"負責人：陳大文", "先生"},
			excludes: []string{"comp", "any_owner", "}}"},
		},
		{
			name:     "two placeholders in one run",
			body:     para("{{ s_m }}月{{ s_d }}日"),
			values:   map[string]string{"s_m": "7", "s_d": "1"},
			contains: []string{"7月1日"},
		},
		{
			name:     "values are xml escaped",
			body:     para("{{ company_name }}"),
			values:   map[string]string{"company_name": "A & B <公司>"},
			contains: []string{"A &amp; B &lt;公司&gt;"},
		},
		{
			name:     "escaped template text survives",
			body:     para("R&amp;D {{ company_title }}"),
			values:   map[string]string{"company_title": "負責人"},
			contains: []string{"R&amp;D 負責人"},
		},
		{
			name:     "paragraph without placeholder is untouched",
			body:     para("第一條 實習期間"),
			values:   map[string]string{},
			contains: []string{`<w:t>第一條 實習期間</w:t>`},
		},
		{
			name:     "glyph values",
			body:     para("{{ type_learn_check }}學習型 {{ type_work_check }}勞動型"),
			values:   map[string]string{"type_learn_check": "☑", "type_work_check": "□"},
			contains: []string{"☑學習型 □勞動型"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemplate(t, t.TempDir(), map[string]string{
				documentPart: wrapBody(tt.body),
			})
			r := newTestRenderer(path, true)

			doc, err := r.Render(context.Background(), tt.values)
			require.NoError(t, err)

			body := readPart(t, doc, documentPart)
			for _, want := range tt.contains {
				assert.Contains(t, body, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, body, unwanted)
			}
		})
	}
}

func TestRenderer_Render_SplitRunsKeepStructure(t *testing.T) {
	path := writeTemplate(t, t.TempDir(), map[string]string{
		documentPart: wrapBody(para("{{ stud", "ent_name }}")),
	})
	r := newTestRenderer(path, true)

	doc, err := r.Render(context.Background(), map[string]string{"student_name": "王小明 等"})
	require.NoError(t, err)

	body := readPart(t, doc, documentPart)
	assert.Contains(t, body, `<w:t xml:space="preserve">王小明 等</w:t>`)
	assert.Contains(t, body, `<w:t xml:space="preserve"></w:t>`)
	assert.Equal(t, 2, bytes.Count([]byte(body), []byte("<w:r>")))
}

func TestRenderer_Render_HeadersFootersAndOtherParts(t *testing.T) {
	path := writeTemplate(t, t.TempDir(), map[string]string{
		documentPart:          wrapBody(para("{{ company_name }}")),
		"word/header1.xml":    `<w:hdr>` + para("合約編號 {{ company_tax_id }}") + `</w:hdr>`,
		"word/footer2.xml":    `<w:ftr>` + para("{{ student_name }}") + `</w:ftr>`,
		"word/styles.xml":     stylesXML,
		"[Content_Types].xml": `<Types/>`,
	})
	r := newTestRenderer(path, true)

	doc, err := r.Render(context.Background(), map[string]string{
		"company_name":   "東海公司",
		"company_tax_id": "12345678",
		"student_name":   "王小明",
	})
	require.NoError(t, err)

	assert.Contains(t, readPart(t, doc, "word/header1.xml"), "合約編號 12345678")
	assert.Contains(t, readPart(t, doc, "word/footer2.xml"), "王小明")
	assert.Equal(t, stylesXML, readPart(t, doc, "word/styles.xml"))
	assert.Equal(t, `<Types/>`, readPart(t, doc, "[Content_Types].xml"))
}

func TestRenderer_Render_MissingPlaceholders(t *testing.T) {
	body := wrapBody(para("{{ company_name }} {{ unknown_b }} {{ unknown_a }} {{ unknown_b }}"))

	t.Run("strict", func(t *testing.T) {
		path := writeTemplate(t, t.TempDir(), map[string]string{documentPart: body})
		r := newTestRenderer(path, true)

		_, err := r.Render(context.Background(), map[string]string{"company_name": "東海公司"})
		require.Error(t, err)

		var placeholderErr *PlaceholderError
		require.ErrorAs(t, err, &placeholderErr)
		assert.Equal(t, []string{"unknown_a", "unknown_b"}, placeholderErr.Missing)
		assert.Contains(t, err.Error(), "unknown_a, unknown_b")
	})

	t.Run("lenient renders empty", func(t *testing.T) {
		path := writeTemplate(t, t.TempDir(), map[string]string{documentPart: body})
		r := newTestRenderer(path, false)

		doc, err := r.Render(context.Background(), map[string]string{"company_name": "東海公司"})
		require.NoError(t, err)

		part := readPart(t, doc, documentPart)
		assert.Contains(t, part, "東海公司")
		assert.NotContains(t, part, "unknown")
	})
}

func TestRenderer_Render_TemplateErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		r := newTestRenderer(filepath.Join(t.TempDir(), "nope.docx"), true)
		_, err := r.Render(context.Background(), nil)
		assert.ErrorIs(t, err, ErrTemplateNotFound)
		assert.Contains(t, err.Error(), "nope.docx")
	})

	t.Run("not a zip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.docx")
		require.NoError(t, os.WriteFile(path, []byte("plain text"), 0644))

		_, err := newTestRenderer(path, true).Render(context.Background(), nil)
		assert.ErrorIs(t, err, ErrInvalidTemplate)
	})

	t.Run("zip without document part", func(t *testing.T) {
		path := writeTemplate(t, t.TempDir(), map[string]string{"word/styles.xml": stylesXML})

		_, err := newTestRenderer(path, true).Render(context.Background(), nil)
		assert.ErrorIs(t, err, ErrInvalidTemplate)
	})

	t.Run("directory", func(t *testing.T) {
		err := newTestRenderer(t.TempDir(), true).ValidateTemplate()
		assert.ErrorIs(t, err, ErrInvalidTemplate)
	})

	t.Run("cancelled context", func(t *testing.T) {
		path := writeTemplate(t, t.TempDir(), map[string]string{documentPart: wrapBody("")})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newTestRenderer(path, true).Render(ctx, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRenderer_ReloadsChangedTemplate(t *testing.T) {
	dir := t.TempDir()
	path := writeTemplate(t, dir, map[string]string{documentPart: wrapBody(para("舊版 {{ company_name }}"))})
	r := newTestRenderer(path, true)
	values := map[string]string{"company_name": "東海公司"}

	doc, err := r.Render(context.Background(), values)
	require.NoError(t, err)
	assert.Contains(t, readPart(t, doc, documentPart), "舊版 東海公司")

	writeTemplate(t, dir, map[string]string{documentPart: wrapBody(para("新版 {{ company_name }}"))})
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	doc, err = r.Render(context.Background(), values)
	require.NoError(t, err)
	assert.Contains(t, readPart(t, doc, documentPart), "新版 東海公司")
}

func TestRenderer_Placeholders(t *testing.T) {
	path := writeTemplate(t, t.TempDir(), map[string]string{
		documentPart: wrapBody(
			para("{{ s_y }}年{{ s_m }}月") +
				para("{{ company_", "name }}") +
				para("{{ s_y }}"),
		),
		"word/header1.xml": `<w:hdr>` + para("{{ company_tax_id }}") + `</w:hdr>`,
		"word/styles.xml":  `<w:p><w:r><w:t>{{ ignored }}</w:t></w:r></w:p>`,
	})
	r := newTestRenderer(path, true)

	names, err := r.Placeholders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"company_name", "company_tax_id", "s_m", "s_y"}, names)
	assert.Equal(t, path, r.TemplatePath())
	assert.NoError(t, r.ValidateTemplate())
}

func TestRenderer_Render_TextBoxInsideParagraph(t *testing.T) {
	body := wrapBody(textBoxPara("甲方：{{ company_name }}", "{{ s1_name }}", "乙方：{{ student_name }}"))

	t.Run("fills both sides of the text box", func(t *testing.T) {
		path := writeTemplate(t, t.TempDir(), map[string]string{documentPart: body})

		doc, err := newTestRenderer(path, true).Render(context.Background(), map[string]string{
			"company_name": "東海公司",
			"s1_name":      "王小明",
			"student_name": "王小明 等",
		})
		require.NoError(t, err)

		part := readPart(t, doc, documentPart)
		assert.Contains(t, part, "甲方：東海公司")
		assert.Contains(t, part, ">王小明<")
		assert.Contains(t, part, "乙方：王小明 等")
		assert.NotContains(t, part, "{{")
		assert.Contains(t, part, "<w:txbxContent><w:p")
	})

	t.Run("strict reports a name after the text box", func(t *testing.T) {
		path := writeTemplate(t, t.TempDir(), map[string]string{documentPart: body})

		_, err := newTestRenderer(path, true).Render(context.Background(), map[string]string{
			"company_name": "東海公司",
			"s1_name":      "王小明",
		})
		var placeholderErr *PlaceholderError
		require.ErrorAs(t, err, &placeholderErr)
		assert.Equal(t, []string{"student_name"}, placeholderErr.Missing)
	})

	t.Run("placeholders lists every name", func(t *testing.T) {
		path := writeTemplate(t, t.TempDir(), map[string]string{documentPart: body})

		names, err := newTestRenderer(path, true).Placeholders(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"company_name", "s1_name", "student_name"}, names)
	})
}

func TestRenderer_Render_ParagraphShapes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		contains []string
	}{
		{
			name:     "self-closing paragraph before placeholder",
			body:     `<w:p/>` + `<w:p w:rsidR="1"/>` + para("{{ company_name }}"),
			contains: []string{"<w:p/>", `<w:p w:rsidR="1"/>`, "東海公司"},
		},
		{
			name:     "paragraph properties are not a paragraph",
			body:     `<w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:t>{{ company_</w:t></w:r><w:r><w:t>name }}</w:t></w:r></w:p>`,
			contains: []string{`<w:pPr><w:jc w:val="center"/></w:pPr>`, "東海公司"},
		},
		{
			name:     "placeholder split around a text box stays split",
			body:     textBoxPara("{{ company_", "內文", "name }}"),
			contains: []string{"東海公司", "內文"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemplate(t, t.TempDir(), map[string]string{documentPart: wrapBody(tt.body)})

			doc, err := newTestRenderer(path, true).Render(context.Background(), map[string]string{"company_name": "東海公司"})
			require.NoError(t, err)

			part := readPart(t, doc, documentPart)
			for _, want := range tt.contains {
				assert.Contains(t, part, want)
			}
			assert.NotContains(t, part, "{{")
		})
	}
}

func TestRenderer_Render_UserTextRoundTrip(t *testing.T) {
	values := map[string]string{
		"company_name":    "ACME <Taiwan> Ltd",
		"company_address": "台中市西屯區臺灣大道 <A棟> 5F",
		"company_rep":     "陳 & 林",
		"s1_id":           "資管四Ａ（s109）",
	}
	path := writeTemplate(t, t.TempDir(), map[string]string{
		documentPart: wrapBody(
			para("{{ company_name }}") + para("{{ company_address }}") +
				para("{{ company_rep }}") + para("{{ s1_id }}"),
		),
	})

	doc, err := newTestRenderer(path, true).Render(context.Background(), values)
	require.NoError(t, err)

	part := readPart(t, doc, documentPart)
	_, paragraphs := scanPart(part)
	var texts []string
	for _, p := range paragraphs {
		texts = append(texts, p.joined)
	}
	assert.Equal(t, []string{
		"ACME <Taiwan> Ltd",
		"台中市西屯區臺灣大道 <A棟> 5F",
		"陳 & 林",
		"資管四Ａ（s109）",
	}, texts)
}
