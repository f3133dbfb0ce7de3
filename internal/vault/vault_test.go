package vault

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"
)

// testParams keeps argon2 cheap in tests.
var testParams = Params{Time: 1, Memory: 64, Threads: 1}

func TestSealOpenRoundTrip(t *testing.T) {
	plaintext := []byte(`[{"date":"2025-01-01","text":"hello"}]`)
	blob, err := Seal(plaintext, []byte("correct horse"), testParams)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	got, err := Open(blob, []byte("correct horse"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("Open = %q, want %q", got, plaintext)
	}
}

func TestSealIsRandomized(t *testing.T) {
	a, _ := Seal([]byte("same"), []byte("passphrase"), testParams)
	b, _ := Seal([]byte("same"), []byte("passphrase"), testParams)
	if a == b {
		t.Error("two seals of the same plaintext produced identical blobs")
	}
}

func TestOpenWrongPassphrase(t *testing.T) {
	blob, err := Seal([]byte("secret entries"), []byte("right-pass"), testParams)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	got, err := Open(blob, []byte("wrong-pass"))
	if !errors.Is(err, ErrWrongPassphrase) {
		t.Fatalf("expected ErrWrongPassphrase, got %v", err)
	}
	if got != nil {
		t.Errorf("expected nil plaintext, got %q", got)
	}
}

func TestOpenCorruptCiphertext(t *testing.T) {
	blob, err := Seal([]byte("secret entries"), []byte("right-pass"), testParams)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	raw, _ := base64.StdEncoding.DecodeString(blob)
	raw[len(raw)-1] ^= 0xff
	tampered := base64.StdEncoding.EncodeToString(raw)

	if _, err := Open(tampered, []byte("right-pass")); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestOpenMalformedBlobs(t *testing.T) {
	cases := map[string]string{
		"not base64": "%%%not-base64%%%",
		"too short":  base64.StdEncoding.EncodeToString([]byte("RJV1")),
		"bad magic":  base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, headerLen+32)),
		"legacy":     "U2FsdGVkX1+qjk3Y0s2yJ3d0Yg==",
		"huge memory": withHeader(t, func(raw []byte) {
			binary.BigEndian.PutUint32(raw[5:9], 0xFFFFFFF0)
		}),
		"huge time":    withHeader(t, func(raw []byte) { raw[4] = 0xFF }),
		"huge threads": withHeader(t, func(raw []byte) { raw[9] = 0xFF }),
	}
	for name, blob := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Open(blob, []byte("pass")); !errors.Is(err, ErrCorrupt) {
				t.Errorf("expected ErrCorrupt, got %v", err)
			}
		})
	}
}

// withHeader seals a small payload and lets mutate rewrite its raw header.
func withHeader(t *testing.T, mutate func(raw []byte)) string {
	t.Helper()
	blob, err := Seal([]byte("[]"), []byte("pass"), testParams)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	raw, _ := base64.StdEncoding.DecodeString(blob)
	mutate(raw)
	return base64.StdEncoding.EncodeToString(raw)
}

func TestParamsBounds(t *testing.T) {
	if !DefaultParams.valid() {
		t.Errorf("DefaultParams %+v rejected", DefaultParams)
	}
	if _, err := Seal([]byte("x"), []byte("pass"), Params{Time: 1, Memory: maxMemory + 1, Threads: 1}); err == nil {
		t.Error("Seal accepted memory above the limit")
	}
}

func TestEmptyPassphraseRejected(t *testing.T) {
	if _, err := Seal([]byte("x"), nil, testParams); !errors.Is(err, ErrEmptyPassphrase) {
		t.Errorf("Seal: expected ErrEmptyPassphrase, got %v", err)
	}
	if _, err := Open("abc", nil); !errors.Is(err, ErrEmptyPassphrase) {
		t.Errorf("Open: expected ErrEmptyPassphrase, got %v", err)
	}
}

func TestSecretWipe(t *testing.T) {
	s := NewSecret("hunter22")
	b := s.Bytes()
	if string(b) != "hunter22" {
		t.Fatalf("Bytes = %q", b)
	}
	s.Wipe()
	if !s.Empty() || s.Bytes() != nil {
		t.Error("secret not cleared after Wipe")
	}
	if string(b) != "hunter22" {
		t.Error("Wipe must not touch copies handed out earlier")
	}
	if got := fmt.Sprint(NewSecret("hunter22")); got != "[redacted]" {
		t.Errorf("String leaked passphrase: %q", got)
	}
}
