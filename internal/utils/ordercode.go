package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v3"
)

// orderCodeAlphabet leaves out 0/O and 1/I so codes can be read over the
// phone.
const orderCodeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const orderCodeSuffixLen = 8

// NewOrderCode returns a public order reference such as TKT-2026-7KQ4ZP2M.
// The suffix is drawn from upper-cased short UUIDs, keeping only
// characters in orderCodeAlphabet.
func NewOrderCode(now time.Time) string {
	var b strings.Builder
	for b.Len() < orderCodeSuffixLen {
		for _, r := range strings.ToUpper(shortuuid.New()) {
			if strings.ContainsRune(orderCodeAlphabet, r) {
				b.WriteRune(r)
				if b.Len() == orderCodeSuffixLen {
					break
				}
			}
		}
	}
	return fmt.Sprintf("TKT-%d-%s", now.Year(), b.String())
}
