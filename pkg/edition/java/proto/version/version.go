// Package version contains the Minecraft Java edition versions the server speaks.
package version

import (
	"go.minekube.com/cubes/pkg/proto"
)

var (
	Minecraft_1_17   = &proto.Version{Protocol: 755, Names: []string{"1.17"}}
	Minecraft_1_17_1 = &proto.Version{Protocol: 756, Names: []string{"1.17.1"}}

	// Supported lists the known versions from lowest to highest.
	Supported = []*proto.Version{Minecraft_1_17, Minecraft_1_17_1}

	// SupportedVersionsString is the supported versions range, e.g. "1.17-1.17.1".
	SupportedVersionsString = Supported[0].FirstName() + "-" + Supported[len(Supported)-1].LastName()
)

// Lookup returns the known version of protocol.
func Lookup(protocol proto.Protocol) (*proto.Version, bool) {
	for _, v := range Supported {
		if v.Protocol == protocol {
			return v, true
		}
	}
	return nil, false
}
