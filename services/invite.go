package services

import (
	"crypto/rand"
	"io"
	"math/big"
)

const (
	inviteCodeLength   = 8
	inviteCodeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// InviteCodeGenerator draws each character independently and uniformly from
// the 62-character alphanumeric alphabet.
type InviteCodeGenerator struct {
	rand io.Reader
}

func NewInviteCodeGenerator() *InviteCodeGenerator {
	return &InviteCodeGenerator{rand: rand.Reader}
}

func (g *InviteCodeGenerator) Generate() (string, error) {
	max := big.NewInt(int64(len(inviteCodeAlphabet)))
	code := make([]byte, inviteCodeLength)
	for i := range code {
		n, err := rand.Int(g.rand, max)
		if err != nil {
			return "", err
		}
		code[i] = inviteCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
