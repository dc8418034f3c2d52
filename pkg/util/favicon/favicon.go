package favicon

import (
	"bytes"
	"encoding"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"strings"

	"github.com/nfnt/resize"
	"gopkg.in/yaml.v3"
)

// Favicon is the 64x64 data uri image shown next to the server in the client's server list.
// Refer to https://en.wikipedia.org/wiki/Data_URI_scheme for details.
// Example: "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAEAAAAABCAYAAABubagXAAAAEElEQVR42mP8z8BQzzCCAQB+lAGA+H8KEAAAAABJRU5ErkJggg=="
type Favicon string

// Size is the width and height the client renders.
const Size = 64

var (
	_ yaml.Unmarshaler         = (*Favicon)(nil)
	_ json.Unmarshaler         = (*Favicon)(nil)
	_ encoding.TextUnmarshaler = (*Favicon)(nil)
)

func (f *Favicon) UnmarshalText(text []byte) (err error) {
	*f, err = Parse(string(text))
	return err
}

func (f *Favicon) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return f.UnmarshalText([]byte(s))
}

func (f *Favicon) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return f.UnmarshalText([]byte(s))
}

// FromImage scales img down to Size if needed and encodes it as png data uri.
func FromImage(img image.Image) (Favicon, error) {
	if b := img.Bounds(); b.Dx() > Size || b.Dy() > Size {
		img = resize.Resize(Size, Size, img, resize.NearestNeighbor)
	}
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		return "", err
	}
	return FromBytes(buf.Bytes()), nil
}

// FromReader decodes a png or jpeg image from r.
func FromReader(r io.Reader) (Favicon, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", err
	}
	return FromImage(img)
}

// FromFile reads a png or jpeg image file.
func FromFile(filename string) (Favicon, error) {
	f, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return FromReader(f)
}

const (
	dataImagePrefix = "data:image/"
	dataFullPrefix  = dataImagePrefix + "png;base64,"
)

// Parse takes a data uri string or filename and converts it to Favicon.
// The empty string is the empty Favicon.
func Parse(s string) (Favicon, error) {
	switch {
	case s == "":
		return "", nil
	case strings.HasPrefix(s, dataImagePrefix):
		return Favicon(s), nil
	}
	if stat, err := os.Stat(s); err == nil && !stat.IsDir() {
		f, err := FromFile(s)
		if err != nil {
			return "", fmt.Errorf("favicon: %w", err)
		}
		return f, nil
	}
	return "", fmt.Errorf("favicon: invalid format or file not found: %s", s)
}

// FromBytes encodes raw png bytes as Favicon.
func FromBytes(b []byte) Favicon {
	return Favicon(dataFullPrefix + base64.StdEncoding.EncodeToString(b))
}

// Bytes returns the raw png bytes of the favicon.
func (f Favicon) Bytes() []byte {
	b, _ := base64.StdEncoding.DecodeString(strings.TrimPrefix(string(f), dataFullPrefix))
	return b
}
