package platform

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

func NewID() string {
	return uuid.New().String()
}

// NewLogID builds a short audit log identifier such as "LOG-BC-4821".
// The kind tag groups related entries ("BC", "FAIL", ...); an empty kind
// yields the plain "LOG-4821" form.
func NewLogID(kind string) string {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		panic("crypto/rand: " + err.Error())
	}
	if kind == "" {
		return fmt.Sprintf("LOG-%04d", n.Int64()+1000)
	}
	return fmt.Sprintf("LOG-%s-%04d", kind, n.Int64()+1000)
}
