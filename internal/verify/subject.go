package verify

import (
	"strconv"
	"strings"
)

// Challenge subjects carry the flow they were issued for, so a code minted
// for one flow cannot be redeemed by another. Address flows (signup, email
// change) prove control over a mailbox; user flows (password reset) name an
// account.
const (
	addrSubjectPrefix = "addr:"
	userSubjectPrefix = "user:"
)

// AddrSubject builds the subject of an address verification challenge.
func AddrSubject(email string) string {
	return addrSubjectPrefix + email
}

// UserSubject builds the subject of an account-scoped challenge.
func UserSubject(id int64) string {
	return userSubjectPrefix + strconv.FormatInt(id, 10)
}

// CutAddrSubject returns the verified address, or false when the subject
// was not issued for an address flow.
func CutAddrSubject(subject string) (string, bool) {
	return strings.CutPrefix(subject, addrSubjectPrefix)
}

// CutUserSubject returns the account id, or false when the subject was not
// issued for a user flow.
func CutUserSubject(subject string) (int64, bool) {
	rest, ok := strings.CutPrefix(subject, userSubjectPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
