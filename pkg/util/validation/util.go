package validation

import (
	"net"
	"regexp"
)

func ValidHostPort(hostAndPort string) error {
	_, _, err := net.SplitHostPort(hostAndPort)
	return err
}

const (
	PlayerNameMaxLength = 16
	PlayerNameErrMsg    = "must consist of 1 to 16 alphanumeric characters or '_'"
)

var playerNameRegexp = regexp.MustCompile(`^[A-Za-z0-9_]{1,16}$`)

// ValidPlayerName reports whether str is a name offline clients may log in with.
func ValidPlayerName(str string) bool {
	return playerNameRegexp.MatchString(str)
}
