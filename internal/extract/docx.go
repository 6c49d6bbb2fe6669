package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
)

const (
	docxDocumentPath = "word/document.xml"
	contentTypesPath = "[Content_Types].xml"
	docxMainType     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	maxPartBytes     = 32 << 20
)

var (
	// paragraph bodies, attributes allowed on <w:p>.
	wpTag = regexp.MustCompile(`(?s)<w:p[ >].*?</w:p>`)
	wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	// PartName of the main document, either attribute order.
	mainPartRe = regexp.MustCompile(`<Override[^>]*(?:PartName="([^"]+)"[^>]*ContentType="` + regexp.QuoteMeta(docxMainType) +
		`"|ContentType="` + regexp.QuoteMeta(docxMainType) + `"[^>]*PartName="([^"]+)")`)
)

func readZipPart(zr *zip.Reader, name string) ([]byte, bool, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, true, err
		}
		defer rc.Close()
		data, err := io.ReadAll(io.LimitReader(rc, maxPartBytes))
		return data, true, err
	}
	return nil, false, nil
}

func docxMainPart(zr *zip.Reader) string {
	data, ok, err := readZipPart(zr, contentTypesPath)
	if !ok || err != nil {
		return docxDocumentPath
	}
	m := mainPartRe.FindSubmatch(data)
	if m == nil {
		return docxDocumentPath
	}
	part := m[1]
	if len(part) == 0 {
		part = m[2]
	}
	return strings.TrimPrefix(string(part), "/")
}

// extractDOCX reads the main document part and returns one line per
// paragraph. Runs inside a paragraph are concatenated as written.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open DOCX: %w", err)
	}
	part := docxMainPart(zr)
	doc, ok, err := readZipPart(zr, part)
	if err != nil {
		return "", fmt.Errorf("read DOCX %s: %w", part, err)
	}
	if !ok {
		return "", fmt.Errorf("open DOCX: %s not found", part)
	}
	var lines []string
	for _, p := range wpTag.FindAll(doc, -1) {
		var b strings.Builder
		for _, t := range wtTag.FindAllSubmatch(p, -1) {
			b.Write(t[1])
		}
		lines = append(lines, html.UnescapeString(b.String()))
	}
	return strings.Join(lines, "\n"), nil
}
