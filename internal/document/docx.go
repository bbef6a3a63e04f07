package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const wordprocessingNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// extractDOCX reads word/document.xml and joins paragraph texts with "\n".
// Paragraphs inside tables are read in document order like any other paragraph.
func extractDOCX(data []byte) (Extraction, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Extraction{}, fmt.Errorf("open docx container: %w", err)
	}
	var body *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			body = f
			break
		}
	}
	if body == nil {
		return Extraction{}, errors.New("docx container has no word/document.xml")
	}
	rc, err := body.Open()
	if err != nil {
		return Extraction{}, fmt.Errorf("open word/document.xml: %w", err)
	}
	defer rc.Close()

	paras, err := docxParagraphs(rc)
	if err != nil {
		return Extraction{}, err
	}
	return Extraction{Text: strings.Join(paras, "\n"), Pages: 1, Method: "docx-xml"}, nil
}

func docxParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		paras  []string
		cur    strings.Builder
		inPara int
		inTabs int
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse word/document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordprocessingNS {
				continue
			}
			switch t.Name.Local {
			case "p":
				inPara++
			case "t":
				inText = true
			case "tabs":
				inTabs++
			case "tab":
				// w:tabs/w:tab are tab stop definitions, not content
				if inTabs == 0 {
					cur.WriteByte('\t')
				}
			case "br", "cr":
				cur.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Space != wordprocessingNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "tabs":
				inTabs--
			case "p":
				inPara--
				if inPara <= 0 {
					inPara = 0
					paras = append(paras, cur.String())
					cur.Reset()
				}
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
	return paras, nil
}
