package llm

import (
	"encoding/base64"

	"github.com/joseph-ayodele/interview-matrix/internal/document"
)

// DataURL encodes an image for providers that take images inline as URLs.
func DataURL(img document.Image) string {
	mt := img.MIMEType
	if mt == "" {
		mt = "application/octet-stream"
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
