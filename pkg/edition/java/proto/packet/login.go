package packet

import (
	"errors"
	"io"

	"go.minekube.com/cubes/pkg/edition/java/proto/util"
	"go.minekube.com/cubes/pkg/proto"
	"go.minekube.com/cubes/pkg/util/errs"
	"go.minekube.com/cubes/pkg/util/uuid"
	"go.minekube.com/cubes/pkg/util/validation"
)

// ServerLogin is the login start packet sent by the client.
type ServerLogin struct {
	Username string
}

var errEmptyUsername = errs.NewSilentErr("empty username")

func (s *ServerLogin) Encode(_ *proto.PacketContext, wr io.Writer) error {
	if s.Username == "" {
		return errors.New("username not specified")
	}
	return util.WriteString(wr, s.Username)
}

func (s *ServerLogin) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	s.Username, err = util.ReadStringMax(rd, validation.PlayerNameMaxLength)
	if err == nil && len(s.Username) == 0 {
		return errEmptyUsername
	}
	return err
}

// ServerLoginSuccess completes the login.
type ServerLoginSuccess struct {
	UUID     uuid.UUID
	Username string
}

func (s *ServerLoginSuccess) Encode(_ *proto.PacketContext, wr io.Writer) (err error) {
	if s.Username == "" {
		return errors.New("no username specified")
	}
	defer util.Recover(&err)
	w := util.PanicWriter(wr)
	w.UUID(s.UUID)
	w.String(s.Username)
	return nil
}

func (s *ServerLoginSuccess) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	defer util.Recover(&err)
	r := util.PanicReader(rd)
	r.UUID(&s.UUID)
	r.String(&s.Username)
	return nil
}

var (
	_ proto.Packet = (*ServerLogin)(nil)
	_ proto.Packet = (*ServerLoginSuccess)(nil)
)
