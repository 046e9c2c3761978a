package layout

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"net/url"
	"strings"

	"golang.org/x/image/webp"
)

// Image is a decoded embedded image ready to register with fpdf.
type Image struct {
	Type string // fpdf image type: png, jpg or gif
	Data []byte
}

// ErrNotDataURI is returned for image values that are not data: URIs.
var ErrNotDataURI = errors.New("layout: not a data URI")

// DecodeDataURI decodes a data:image/...;base64 URI. WebP images are
// converted to PNG since fpdf cannot embed them.
func DecodeDataURI(uri string) (*Image, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return nil, ErrNotDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("layout: data URI without payload")
	}

	params := strings.Split(meta, ";")
	mediaType := strings.ToLower(params[0])
	isBase64 := false
	for _, p := range params[1:] {
		if p == "base64" {
			isBase64 = true
		}
	}

	var data []byte
	if isBase64 {
		var err error
		data, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Some encoders drop the padding.
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
			if err != nil {
				return nil, fmt.Errorf("layout: decoding data URI: %w", err)
			}
		}
	} else {
		s, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("layout: decoding data URI: %w", err)
		}
		data = []byte(s)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("layout: empty image data")
	}

	var typ string
	switch mediaType {
	case "image/png":
		typ = "png"
	case "image/jpeg", "image/jpg":
		typ = "jpg"
	case "image/gif":
		typ = "gif"
	case "image/webp":
		return webpToPNG(data)
	default:
		return nil, fmt.Errorf("layout: unsupported image type %q", mediaType)
	}
	if err := checkImage(data, typ); err != nil {
		return nil, err
	}
	return &Image{Type: typ, Data: data}, nil
}

// checkImage reads the image header so broken payloads fail here rather
// than inside the PDF writer.
func checkImage(data []byte, typ string) error {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("layout: decoding %s image: %w", typ, err)
	}
	if format == "jpeg" {
		format = "jpg"
	}
	if format != typ {
		return fmt.Errorf("layout: image data is %s, not %s", format, typ)
	}
	return nil
}

func webpToPNG(data []byte) (*Image, error) {
	img, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("layout: decoding webp: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("layout: re-encoding webp: %w", err)
	}
	return &Image{Type: "png", Data: buf.Bytes()}, nil
}
