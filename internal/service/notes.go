package service

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	notesEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	notesSanitizer = bluemonday.UGCPolicy()
)

// RenderNotes 将习惯备注的 Markdown 渲染为经过清洗的 HTML
func RenderNotes(notes string) string {
	content := strings.TrimSpace(notes)
	if content == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := notesEngine.Convert([]byte(content), &buf); err != nil {
		return notesSanitizer.Sanitize(content)
	}
	return string(notesSanitizer.SanitizeBytes(buf.Bytes()))
}
