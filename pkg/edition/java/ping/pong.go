// Package ping contains the server list ping response model.
package ping

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"go.minekube.com/common/minecraft/component"
	"go.minekube.com/common/minecraft/component/codec/legacy"
	"gopkg.in/yaml.v3"

	"go.minekube.com/cubes/pkg/proto"
	"go.minekube.com/cubes/pkg/util/componentutil"
	"go.minekube.com/cubes/pkg/util/favicon"
	"go.minekube.com/cubes/pkg/util/uuid"
)

// ServerPing is the status response shown in the client's server list.
type ServerPing struct {
	Version     Version         `json:"version" yaml:"version"`
	Players     *Players        `json:"players,omitempty" yaml:"players,omitempty"`
	Description *component.Text `json:"description" yaml:"description"`
	Favicon     favicon.Favicon `json:"favicon,omitempty" yaml:"favicon,omitempty"`
}

var (
	_ json.Marshaler   = (*ServerPing)(nil)
	_ json.Unmarshaler = (*ServerPing)(nil)

	_ yaml.Marshaler   = (*ServerPing)(nil)
	_ yaml.Unmarshaler = (*ServerPing)(nil)
)

func (p *ServerPing) MarshalJSON() ([]byte, error) {
	description := p.Description
	if description == nil {
		description = &component.Text{}
	}
	b := new(bytes.Buffer)
	if err := componentutil.JsonCodec.Marshal(b, description); err != nil {
		return nil, err
	}

	type Alias ServerPing
	return json.Marshal(&struct {
		Description json.RawMessage `json:"description"`
		*Alias
	}{
		Description: b.Bytes(),
		Alias:       (*Alias)(p),
	})
}

func (p *ServerPing) UnmarshalJSON(data []byte) error {
	type Alias ServerPing
	out := &struct {
		Alias
		Description json.RawMessage `json:"description"` // override description type
	}{}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("error decoding json: %w", err)
	}

	if len(out.Description) == 0 || string(out.Description) == "null" {
		out.Alias.Description = &component.Text{}
	} else {
		var err error
		out.Alias.Description, err = componentutil.ParseTextComponent(string(out.Description))
		if err != nil {
			return fmt.Errorf("error decoding description: %w", err)
		}
	}

	*p = ServerPing(out.Alias)
	return nil
}

// yamlPing is the YAML form of ServerPing with a legacy formatted description.
type yamlPing struct {
	Version     Version         `yaml:"version"`
	Players     *Players        `yaml:"players,omitempty"`
	Description string          `yaml:"description"`
	Favicon     favicon.Favicon `yaml:"favicon,omitempty"`
}

func (p *ServerPing) UnmarshalYAML(value *yaml.Node) error {
	var out yamlPing
	if err := value.Decode(&out); err != nil {
		return fmt.Errorf("error decoding yaml: %w", err)
	}
	description, err := componentutil.ParseTextComponent(out.Description)
	if err != nil {
		return fmt.Errorf("error decoding description: %w", err)
	}
	*p = ServerPing{
		Version:     out.Version,
		Players:     out.Players,
		Description: description,
		Favicon:     out.Favicon,
	}
	return nil
}

func (p *ServerPing) MarshalYAML() (any, error) {
	b := new(strings.Builder)
	if p.Description != nil {
		if err := (&legacy.Legacy{}).Marshal(b, p.Description); err != nil {
			return nil, fmt.Errorf("error encoding description: %w", err)
		}
	}
	return &yamlPing{
		Version:     p.Version,
		Players:     p.Players,
		Description: b.String(),
		Favicon:     p.Favicon,
	}, nil
}

// Version is the version shown in the server list.
// Clients with another protocol show it as incompatible.
type Version struct {
	Protocol proto.Protocol `json:"protocol" yaml:"protocol"`
	Name     string         `json:"name" yaml:"name"`
}

type Players struct {
	Online int            `json:"online" yaml:"online"`
	Max    int            `json:"max" yaml:"max"`
	Sample []SamplePlayer `json:"sample,omitempty" yaml:"sample,omitempty"`
}

type SamplePlayer struct {
	Name string    `json:"name" yaml:"name"`
	ID   uuid.UUID `json:"id" yaml:"id"`
}
