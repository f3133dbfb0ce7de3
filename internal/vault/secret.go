package vault

import "sync"

// Secret holds a passphrase in memory for the lifetime of a session.
// The zero value is an empty, wiped secret.
type Secret struct {
	mu  sync.Mutex
	buf []byte
}

// NewSecret copies passphrase into a new Secret.
func NewSecret(passphrase string) *Secret {
	return &Secret{buf: []byte(passphrase)}
}

// Bytes returns a copy of the held passphrase, or nil once wiped.
func (s *Secret) Bytes() []byte {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buf == nil {
		return nil
	}
	return append([]byte(nil), s.buf...)
}

// Empty reports whether the secret has been wiped or was never set.
func (s *Secret) Empty() bool {
	if s == nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf) == 0
}

// Wipe zeroes and releases the held passphrase.
func (s *Secret) Wipe() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.buf {
		s.buf[i] = 0
	}
	s.buf = nil
}

// String never reveals the passphrase.
func (s *Secret) String() string {
	return "[redacted]"
}

// Wipe zeroes b in place.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
