package document

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/joseph-ayodele/interview-matrix/constants"
)

// extractImage validates the image header and hands the image through untouched.
// Images carry no text; they are sent to the model as multimodal parts.
func extractImage(name string, format Format, data []byte) (Extraction, error) {
	cfg, kind, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Extraction{}, fmt.Errorf("decode image: %w", err)
	}
	mime := constants.ImageMIMEType(string(format))
	if kind == "png" || kind == "jpeg" {
		mime = "image/" + kind
	}
	return Extraction{
		Image: &Image{
			Name:     name,
			MIMEType: mime,
			Data:     data,
			Width:    cfg.Width,
			Height:   cfg.Height,
		},
		Pages:  1,
		Method: "image",
	}, nil
}
