package service

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	htmlBlockPattern  = regexp.MustCompile(`(?i)<(p|h[1-6]|div|ul|ol|blockquote|section|article|table)[\s>]`)
	textAlignPattern  = regexp.MustCompile(`^(left|right|center|justify)$`)
	cssLengthPattern  = regexp.MustCompile(`^(auto|\d+(\.\d+)?(px|%|em|rem|vw|vh)?)$`)
	generatedMarkdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Table),
		goldmark.WithRendererOptions(html.WithXHTML()),
	)
	generatedPolicy = buildGeneratedContentPolicy()
)

func buildGeneratedContentPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowStyles("text-align").Matching(textAlignPattern).OnElements("div", "p", "h1", "h2", "h3")
	policy.AllowStyles("max-width", "height", "width").Matching(cssLengthPattern).OnElements("img")
	return policy
}

// normalizeGeneratedHTML 将模型回答转换为净化后的 HTML。
// 会先去掉代码围栏，Markdown 回答先渲染为 HTML。
func normalizeGeneratedHTML(raw string) (string, error) {
	body := stripCodeFence(strings.TrimSpace(raw))
	if body == "" {
		return "", nil
	}

	if !htmlBlockPattern.MatchString(body) {
		var buf bytes.Buffer
		if err := generatedMarkdown.Convert([]byte(body), &buf); err != nil {
			return "", err
		}
		body = buf.String()
	}

	return strings.TrimSpace(generatedPolicy.Sanitize(body)), nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return strings.Trim(s, "`")
	}
	lines = lines[1:]
	last := len(lines) - 1
	if strings.TrimSpace(lines[last]) == "```" {
		lines = lines[:last]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
