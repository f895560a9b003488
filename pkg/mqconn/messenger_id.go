package mqconn

import (
	"strconv"
	"strings"
)

// roleID formats a MessengerId from a role and its decimal sequence number.
func roleID(role Role, n int) MessengerID {
	return MessengerID(string(role) + strconv.Itoa(n))
}

// splitMessengerID parses a MessengerId back into its role and sequence
// number. ok is false if id does not start with a known role prefix or the
// remainder is not a positive decimal integer.
func splitMessengerID(id MessengerID) (role Role, n int, ok bool) {
	s := string(id)
	for _, r := range []Role{RoleProducer, RoleConsumer} {
		prefix := string(r)
		if strings.HasPrefix(s, prefix) {
			num, err := strconv.Atoi(s[len(prefix):])
			if err != nil || num < 1 {
				return "", 0, false
			}
			return r, num, true
		}
	}
	return "", 0, false
}
