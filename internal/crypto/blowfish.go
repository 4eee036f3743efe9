// Package crypto provides the optional per-connection symmetric cipher for
// the master's transport. The real wire transport is assumed given; this
// cipher exists for deployments that choose to run it over an unencrypted
// reliable channel and want a lightweight shared-secret scramble on top.
package crypto

import (
	"fmt"

	"golang.org/x/crypto/blowfish"
)

// BlockSize is the Blowfish block size in bytes.
const BlockSize = 8

// Cipher wraps Blowfish ECB encryption/decryption for connection framing.
type Cipher struct {
	cipher *blowfish.Cipher
}

// NewCipher creates a new Blowfish ECB cipher from the given key.
func NewCipher(key []byte) (*Cipher, error) {
	c, err := blowfish.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating blowfish cipher: %w", err)
	}
	return &Cipher{cipher: c}, nil
}

// Encrypt encrypts data[offset:offset+size] in place using Blowfish ECB.
// size must be a multiple of BlockSize.
func (c *Cipher) Encrypt(data []byte, offset, size int) error {
	if size%BlockSize != 0 {
		return fmt.Errorf("blowfish encrypt: size %d is not a multiple of %d", size, BlockSize)
	}
	if offset+size > len(data) {
		return fmt.Errorf("blowfish encrypt: offset %d + size %d exceeds data length %d", offset, size, len(data))
	}
	for i := offset; i < offset+size; i += BlockSize {
		c.cipher.Encrypt(data[i:i+BlockSize], data[i:i+BlockSize])
	}
	return nil
}

// Decrypt decrypts data[offset:offset+size] in place using Blowfish ECB.
// size must be a multiple of BlockSize.
func (c *Cipher) Decrypt(data []byte, offset, size int) error {
	if size%BlockSize != 0 {
		return fmt.Errorf("blowfish decrypt: size %d is not a multiple of %d", size, BlockSize)
	}
	if offset+size > len(data) {
		return fmt.Errorf("blowfish decrypt: offset %d + size %d exceeds data length %d", offset, size, len(data))
	}
	for i := offset; i < offset+size; i += BlockSize {
		c.cipher.Decrypt(data[i:i+BlockSize], data[i:i+BlockSize])
	}
	return nil
}
