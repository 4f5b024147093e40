package identity

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"metaregistry/internal/domain"
)

func TestParseRecordID(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		id := DeriveRecordID([]byte("seed"))

		parsed, err := ParseRecordID(FormatRecordID(id))
		if err != nil {
			t.Fatalf("ParseRecordID() unexpected error: %v", err)
		}
		if parsed != id {
			t.Errorf("ParseRecordID(FormatRecordID(id)) = %x, want %x", parsed, id)
		}
	})

	t.Run("accepts hex without prefix", func(t *testing.T) {
		id := DeriveRecordID([]byte("seed"))

		parsed, err := ParseRecordID(HexNoPrefix(id))
		if err != nil {
			t.Fatalf("ParseRecordID() unexpected error: %v", err)
		}
		if parsed != id {
			t.Errorf("ParseRecordID() = %x, want %x", parsed, id)
		}
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		cases := []struct {
			name  string
			input string
		}{
			{"empty", ""},
			{"too short", "0xabcd"},
			{"too long", "0x" + strings.Repeat("ab", 33)},
			{"odd length", "0x" + strings.Repeat("a", 63)},
			{"not hex", "0x" + strings.Repeat("zz", 32)},
			{"prefix only", "0x"},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if _, err := ParseRecordID(tc.input); !errors.Is(err, domain.ErrInvalidInput) {
					t.Errorf("ParseRecordID(%q) error = %v, want ErrInvalidInput", tc.input, err)
				}
			})
		}
	})
}

func TestFormatRecordID(t *testing.T) {
	id := DeriveRecordID([]byte("seed"))
	s := FormatRecordID(id)

	if !strings.HasPrefix(s, "0x") || len(s) != 66 {
		t.Errorf("FormatRecordID() = %q, want 0x + 64 hex chars", s)
	}
	if s != "0x"+HexNoPrefix(id) {
		t.Errorf("FormatRecordID() = %q inconsistent with HexNoPrefix()", s)
	}
}

func TestDeriveRecordID(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := DeriveRecordID([]byte("payload"))
		b := DeriveRecordID([]byte("payload"))
		if a != b {
			t.Error("DeriveRecordID() is not deterministic")
		}
	})

	t.Run("keccak256 of empty input", func(t *testing.T) {
		// известный вектор Keccak-256("")
		got := FormatRecordID(DeriveRecordID(nil))
		want := "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
		if got != want {
			t.Errorf("DeriveRecordID(nil) = %s, want %s", got, want)
		}
	})
}

func TestContentDigest(t *testing.T) {
	t.Run("sha256 of empty input", func(t *testing.T) {
		// известный вектор SHA-256("")
		got := FormatDigest(ContentDigest(nil))
		want := "0xe3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
		if got != want {
			t.Errorf("ContentDigest(nil) = %s, want %s", got, want)
		}
	})

	t.Run("distinct algorithm from id derivation", func(t *testing.T) {
		payload := []byte(`{"a":1}`)
		if ContentDigest(payload) == DeriveRecordID(payload) {
			t.Error("ContentDigest and DeriveRecordID must use different hash functions")
		}
	})

	t.Run("zero digest sentinel is all zeros", func(t *testing.T) {
		if !bytes.Equal(ZeroDigest[:], make([]byte, RecordIDLength)) {
			t.Errorf("ZeroDigest = %x, want all zeros", ZeroDigest)
		}
	})
}

func TestFallbackSeed(t *testing.T) {
	if bytes.Equal(FallbackSeed(), FallbackSeed()) {
		t.Error("FallbackSeed() returned the same seed twice")
	}
}
