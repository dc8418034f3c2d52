package packet

import (
	"encoding/json"
	"errors"
	"io"

	"go.minekube.com/common/minecraft/component"

	"go.minekube.com/cubes/pkg/edition/java/proto/util"
	"go.minekube.com/cubes/pkg/proto"
	"go.minekube.com/cubes/pkg/util/componentutil"
)

// Disconnect tells the client why it is being disconnected.
// Its id differs between the login and play state.
type Disconnect struct {
	Reason string // JSON chat text
}

func (d *Disconnect) Encode(_ *proto.PacketContext, wr io.Writer) error {
	if d.Reason == "" {
		return errors.New("no reason specified")
	}
	return util.WriteString(wr, d.Reason)
}

func (d *Disconnect) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	d.Reason, err = util.ReadString(rd)
	return
}

// Component parses the reason into a chat component.
func (d *Disconnect) Component() (component.Component, error) {
	return componentutil.UnmarshalJSON(d.Reason)
}

var _ proto.Packet = (*Disconnect)(nil)

// NewDisconnectText returns a Disconnect with the reason {"text": reason}.
func NewDisconnectText(reason string) *Disconnect {
	quoted, _ := json.Marshal(reason)
	return &Disconnect{Reason: `{"text": ` + string(quoted) + `}`}
}

// NewDisconnect returns a Disconnect with a chat component reason.
func NewDisconnect(reason component.Component) (*Disconnect, error) {
	if reason == nil {
		reason = &component.Text{}
	}
	s, err := componentutil.MarshalJSON(reason)
	if err != nil {
		return nil, err
	}
	return &Disconnect{Reason: s}, nil
}
