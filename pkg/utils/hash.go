package utils

import (
	"crypto/md5"
	"fmt"
)

// HashString returns the hex MD5 digest of a payload. Used as a cheap
// change marker on raw ledger rows, not for anything security related.
func HashString(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}
