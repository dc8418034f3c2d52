// Package componentutil converts between chat components and their text forms.
package componentutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"go.minekube.com/common/minecraft/component"
	"go.minekube.com/common/minecraft/component/codec"
	"go.minekube.com/common/minecraft/component/codec/legacy"
)

// JsonCodec is the chat component codec of 1.16+ clients.
var JsonCodec = &codec.Json{
	NoDownsampleColor: true,
	NoLegacyHover:     true,
}

var plain = &codec.Plain{}

// MarshalJSON returns the JSON chat text of c.
func MarshalJSON(c component.Component) (string, error) {
	b := new(bytes.Buffer)
	if err := JsonCodec.Marshal(b, c); err != nil {
		return "", err
	}
	return b.String(), nil
}

// UnmarshalJSON parses JSON chat text. A JSON string is read as plain text.
func UnmarshalJSON(s string) (component.Component, error) {
	var str string
	if json.Unmarshal([]byte(s), &str) == nil {
		return &component.Text{Content: str}, nil
	}
	return JsonCodec.Unmarshal([]byte(s))
}

// MarshalPlain returns the text content of c without formatting.
func MarshalPlain(c component.Component) (string, error) {
	b := new(strings.Builder)
	if err := plain.Marshal(b, c); err != nil {
		return "", err
	}
	return b.String(), nil
}

// ParseTextComponent parses s as JSON chat text if it starts with '{'
// and as legacy '&' coded text otherwise.
func ParseTextComponent(s string) (t *component.Text, err error) {
	var c component.Component
	if strings.HasPrefix(s, "{") {
		c, err = JsonCodec.Unmarshal([]byte(s))
	} else {
		c, err = (&legacy.Legacy{}).Unmarshal([]byte(s))
	}
	if err != nil {
		return nil, err
	}
	t, ok := c.(*component.Text)
	if !ok {
		return nil, errors.New("invalid text component")
	}
	return t, nil
}
