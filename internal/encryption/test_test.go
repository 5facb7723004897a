package encryption

import (
	"bytes"
	"testing"

	"clipq/internal/clipq"
	"clipq/internal/config"
)

func roundTrip(t *testing.T, e clipq.Encryptor, input []byte) []byte {
	t.Helper()

	var encrypted bytes.Buffer
	if err := e.Encrypt(bytes.NewReader(input), &encrypted); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	dc, err := e.Unlock("any")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}

	var decrypted bytes.Buffer
	if err := dc.Decrypt(bytes.NewReader(encrypted.Bytes()), &decrypted); err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if !bytes.Equal(decrypted.Bytes(), input) {
		t.Errorf("round-trip = %q, want %q", decrypted.Bytes(), input)
	}
	return encrypted.Bytes()
}

func TestTestEncryptor(t *testing.T) {
	t.Parallel()
	e := NewTestEncryptor()

	if err := e.Setup("any-passphrase"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if !e.setupCalled {
		t.Error("Setup() did not record that it was called")
	}

	for _, input := range [][]byte{[]byte("ledger bytes"), {}} {
		encrypted := roundTrip(t, e, input)
		if !bytes.HasPrefix(encrypted, testHeader) {
			t.Errorf("encrypted output missing header: %q", encrypted)
		}
	}
}

func TestTestDecryptionContext_InvalidHeader(t *testing.T) {
	t.Parallel()
	dc := &TestDecryptionContext{}

	var out bytes.Buffer
	if err := dc.Decrypt(bytes.NewReader([]byte("NOTVALIDxxxx")), &out); err == nil {
		t.Error("Decrypt() with invalid header expected error")
	}
	if err := dc.Decrypt(bytes.NewReader([]byte("ab")), &out); err == nil {
		t.Error("Decrypt() with short input expected error")
	}
}

func TestPlainEncryptor(t *testing.T) {
	t.Parallel()
	e := PlainEncryptor{}

	input := []byte("ledger bytes")
	encrypted := roundTrip(t, e, input)
	if !bytes.Equal(encrypted, input) {
		t.Errorf("PlainEncryptor changed the data: %q", encrypted)
	}
	if e.Suffix() != "" {
		t.Errorf("Suffix() = %q, want empty", e.Suffix())
	}
}

func TestNewEncryptorFromConfig(t *testing.T) {
	tests := []struct {
		typ        string
		wantSuffix string
		wantErr    bool
	}{
		{"", ".age", false},
		{"age", ".age", false},
		{"test", ".test", false},
		{"none", "", false},
		{"rot13", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			e, err := NewEncryptorFromConfig(config.EncryptionConfig{Type: tt.typ})
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewEncryptorFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if e.Suffix() != tt.wantSuffix {
				t.Errorf("Suffix() = %q, want %q", e.Suffix(), tt.wantSuffix)
			}
		})
	}
}
