// Package vault seals byte payloads under a passphrase.
//
// Keys are derived with argon2id. The payload is encrypted with AES-256-GCM and
// the header carries a short passphrase check value, so a wrong passphrase is
// reported as ErrWrongPassphrase while a damaged blob is reported as ErrCorrupt.
//
// Blob layout (base64, standard encoding):
//
//	"RJV1" | time u8 | memory KiB u32be | threads u8 | salt[16] | check[16] | nonce[12] | ciphertext+tag
package vault

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	saltLength  = 16
	checkLength = 16
	nonceLength = 12
	keyLength   = 32
	magic       = "RJV1"
	headerLen   = len(magic) + 1 + 4 + 1 + saltLength + checkLength + nonceLength

	// Header parameters above these are rejected as corrupt.
	maxTime    = 16
	maxMemory  = 1 << 20 // KiB
	maxThreads = 64
)

var (
	ErrWrongPassphrase = errors.New("vault: wrong passphrase")
	ErrCorrupt         = errors.New("vault: corrupted ciphertext")
	ErrEmptyPassphrase = errors.New("vault: empty passphrase")
)

// Params are the argon2id cost parameters. They are stored in each blob so
// Open needs no configuration.
type Params struct {
	Time    uint8
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultParams are used for new blobs.
var DefaultParams = Params{Time: 1, Memory: 64 * 1024, Threads: 4}

func (p Params) valid() bool {
	if p.Time == 0 || p.Time > maxTime || p.Threads == 0 || p.Threads > maxThreads {
		return false
	}
	return p.Memory >= 8*uint32(p.Threads) && p.Memory <= maxMemory
}

func deriveKeys(passphrase, salt []byte, p Params) (encKey, check []byte) {
	k := argon2.IDKey(passphrase, salt, uint32(p.Time), p.Memory, p.Threads, 2*keyLength)
	sum := sha256.Sum256(k[keyLength:])
	return k[:keyLength], sum[:checkLength]
}

// Seal encrypts plaintext under passphrase and returns the encoded blob.
func Seal(plaintext, passphrase []byte, p Params) (string, error) {
	if len(passphrase) == 0 {
		return "", ErrEmptyPassphrase
	}
	if !p.valid() {
		return "", fmt.Errorf("vault: invalid parameters %+v", p)
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("vault: reading salt: %w", err)
	}
	nonce := make([]byte, nonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("vault: reading nonce: %w", err)
	}

	encKey, check := deriveKeys(passphrase, salt, p)
	gcm, err := newGCM(encKey)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.Grow(headerLen + len(plaintext) + gcm.Overhead())
	buf.WriteString(magic)
	buf.WriteByte(p.Time)
	_ = binary.Write(&buf, binary.BigEndian, p.Memory)
	buf.WriteByte(p.Threads)
	buf.Write(salt)
	buf.Write(check)
	buf.Write(nonce)
	header := buf.Bytes()

	// The header is authenticated as additional data.
	sealed := gcm.Seal(nil, nonce, plaintext, header)
	buf.Write(sealed)
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Open decrypts a blob produced by Seal.
func Open(blob string, passphrase []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding: %v", ErrCorrupt, err)
	}
	if len(raw) < headerLen || string(raw[:len(magic)]) != magic {
		return nil, fmt.Errorf("%w: bad header", ErrCorrupt)
	}

	off := len(magic)
	p := Params{Time: raw[off], Memory: binary.BigEndian.Uint32(raw[off+1 : off+5]), Threads: raw[off+5]}
	if !p.valid() {
		return nil, fmt.Errorf("%w: invalid parameters", ErrCorrupt)
	}
	off += 6
	salt := raw[off : off+saltLength]
	off += saltLength
	check := raw[off : off+checkLength]
	off += checkLength
	nonce := raw[off : off+nonceLength]
	off += nonceLength

	encKey, want := deriveKeys(passphrase, salt, p)
	if subtle.ConstantTimeCompare(check, want) != 1 {
		return nil, ErrWrongPassphrase
	}

	gcm, err := newGCM(encKey)
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, nonce, raw[off:], raw[:off])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("vault: creating gcm: %w", err)
	}
	return gcm, nil
}
