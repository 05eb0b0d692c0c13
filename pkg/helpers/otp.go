package helpers

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const tempPasswordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// TempPasswordLength is the length of generated temporary passwords.
const TempPasswordLength = 12

// GenTempPassword generates a random alphanumeric password of TempPasswordLength
// characters using crypto/rand with uniform selection.
func GenTempPassword() (string, error) {
	return genFromAlphabet(tempPasswordAlphabet, TempPasswordLength)
}

// EmployeePlaceholder formats the default employee id assigned when none is given.
func EmployeePlaceholder(n int64) string {
	return fmt.Sprintf("EMP%04d", n)
}

func genFromAlphabet(alphabet string, n int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b), nil
}
