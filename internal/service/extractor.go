package service

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DocumentKind 表示支持的上传格式。
type DocumentKind string

const (
	KindDocx DocumentKind = "docx"
	KindPDF  DocumentKind = "pdf"
)

const (
	defaultMaxDocumentBytes int64 = 20 << 20
	paragraphSeparator            = "\n\n"
	docxBodyPart                  = "word/document.xml"
)

// DetectKind 根据文件扩展名判断文档类型。
func DetectKind(filename string) (DocumentKind, error) {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(filename))) {
	case ".docx":
		return KindDocx, nil
	case ".pdf":
		return KindPDF, nil
	default:
		return "", fmt.Errorf("%w: %q (allowed: .docx, .pdf)", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

type pdfDocument interface {
	NumPage() int
	Text(pageNumber int) (string, error)
	Close() error
}

func openFitzDocument(path string) (pdfDocument, error) {
	return fitz.New(path)
}

// TextExtractor 将上传文档转换为纯文本。
type TextExtractor struct {
	maxBytes int64
	tempDir  string
	openPDF  func(path string) (pdfDocument, error)
}

// NewTextExtractor 创建提取器，maxBytes <= 0 时使用默认上限。
func NewTextExtractor(maxBytes int64) *TextExtractor {
	if maxBytes <= 0 {
		maxBytes = defaultMaxDocumentBytes
	}
	return &TextExtractor{maxBytes: maxBytes, openPDF: openFitzDocument}
}

// ExtractFile 校验文件名，将上传内容写入临时文件后提取文本。
// 临时文件在任何返回路径上都会被删除。
func (e *TextExtractor) ExtractFile(ctx context.Context, filename string, r io.Reader) (string, error) {
	kind, err := DetectKind(filename)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(e.tempDir, "upload-"+uuid.NewString()+"-*."+string(kind))
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %w", ErrExtraction, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", tmpPath).Msg("remove temp upload")
		}
	}()

	written, err := io.Copy(tmp, io.LimitReader(r, e.maxBytes+1))
	closeErr := tmp.Close()
	if err != nil {
		return "", fmt.Errorf("%w: store upload: %w", ErrExtraction, err)
	}
	if closeErr != nil {
		return "", fmt.Errorf("%w: store upload: %w", ErrExtraction, closeErr)
	}
	if written > e.maxBytes {
		return "", fmt.Errorf("%w: upload exceeds %d bytes", ErrExtraction, e.maxBytes)
	}

	log.Debug().Str("file", filename).Str("kind", string(kind)).Int64("bytes", written).Msg("extracting document")

	var text string
	switch kind {
	case KindDocx:
		text, err = extractDocxText(tmpPath)
	case KindPDF:
		text, err = e.extractPDFText(ctx, tmpPath)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", fmt.Errorf("%w: %s: %w", ErrExtraction, kind, err)
	}
	return text, nil
}

func extractDocxText(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer archive.Close()

	for _, f := range archive.File {
		if f.Name != docxBodyPart {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()

		paragraphs, err := parseDocxParagraphs(rc)
		if err != nil {
			return "", err
		}
		return strings.Join(paragraphs, paragraphSeparator), nil
	}
	return "", fmt.Errorf("missing %s", docxBodyPart)
}

// parseDocxParagraphs 按文档顺序返回正文顶层段落的文本。
// 表格、页眉和文本框中的段落不属于正文流，会被跳过，
// 空白段落同样跳过。
func parseDocxParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		stack      []string
		bodyDepth  = -1
		paraDepth  = -1
	)

	parent := func() string {
		if len(stack) < 2 {
			return ""
		}
		return stack[len(stack)-2]
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			stack = append(stack, el.Name.Local)
			depth := len(stack)
			switch {
			case el.Name.Local == "body" && bodyDepth < 0:
				bodyDepth = depth
			case el.Name.Local == "p" && bodyDepth > 0 && depth == bodyDepth+1:
				paraDepth = depth
				current.Reset()
			case paraDepth < 0:
			case el.Name.Local == "tab" && parent() == "r":
				current.WriteByte('\t')
			case (el.Name.Local == "br" || el.Name.Local == "cr") && parent() == "r":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unbalanced element %s", el.Name.Local)
			}
			if len(stack) == paraDepth {
				if text := current.String(); strings.TrimSpace(text) != "" {
					paragraphs = append(paragraphs, text)
				}
				paraDepth = -1
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if paraDepth > 0 && len(stack) > 0 && stack[len(stack)-1] == "t" {
				current.Write(el)
			}
		}
	}
	return paragraphs, nil
}

func (e *TextExtractor) extractPDFText(ctx context.Context, path string) (string, error) {
	doc, err := e.openPDF(path)
	if err != nil {
		return "", err
	}
	defer doc.Close()

	pages := make([]string, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := doc.Text(n)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", n+1, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, paragraphSeparator), nil
}
