// Package uuid provides the player UUID used on the wire and in status responses.
package uuid

import (
	"crypto/md5"

	guuid "github.com/google/uuid"
)

// UUID is a 128 bit player id, written as 16 raw bytes in packets and
// in its dashed string form in JSON.
type UUID guuid.UUID

func (i UUID) String() string { return guuid.UUID(i).String() }

func (i UUID) MarshalText() ([]byte, error) { return guuid.UUID(i).MarshalText() }

func (i *UUID) UnmarshalText(b []byte) error {
	return (*guuid.UUID)(i).UnmarshalText(b)
}

// OfflinePlayerUUID returns the id an offline mode server assigns to username,
// the version 3 UUID of "OfflinePlayer:" + username.
func OfflinePlayerUUID(username string) UUID {
	id := UUID(md5.Sum([]byte("OfflinePlayer:" + username)))
	id[6] = id[6]&0x0f | 0x30
	id[8] = id[8]&0x3f | 0x80
	return id
}

// New returns a random UUID.
func New() UUID { return UUID(guuid.New()) }
