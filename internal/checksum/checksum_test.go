package checksum

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

// hex MD5 (32) followed by hex SHA-1 (40)
const fingerprintLen = 72

func TestFingerprint(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "empty content",
			content: "",
			want:    "d41d8cd98f00b204e9800998ecf8427eda39a3ee5e6b4b0d3255bfef95601890afd80709",
		},
		{
			name:    "hello world",
			content: "Hello, World!",
			want:    "65a8e27d8879283831b664bd8b7f0ad40a0a9f2a6772942557ab5355d76af442f8f65e01",
		},
		{
			name:    "single byte X",
			content: "X",
			want:    "02129bb861061d1a052c592e2dc6b383c032adc1ff629c9b66f22749ad667e6beadf144b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fingerprint([]byte(tt.content))
			if got != tt.want {
				t.Errorf("Fingerprint(%q) = %v, want %v", tt.content, got, tt.want)
			}
			if len(got) != fingerprintLen {
				t.Errorf("len(Fingerprint(%q)) = %d, want %d", tt.content, len(got), fingerprintLen)
			}
		})
	}
}

func TestFingerprintDeterminism(t *testing.T) {
	fixtures := []string{"", "X", "Y", "Z", "Hello, World!", "hello, world!", strings.Repeat("a", bufferSize+17)}

	seen := make(map[string]string)
	for _, content := range fixtures {
		first := Fingerprint([]byte(content))
		second := Fingerprint([]byte(content))
		if first != second {
			t.Errorf("Fingerprint is not deterministic for %q: %s != %s", content, first, second)
		}
		if prev, ok := seen[first]; ok {
			t.Errorf("Fingerprint collision between %q and %q", prev, content)
		}
		seen[first] = content
	}
}

func TestFingerprintReaderMatchesFingerprint(t *testing.T) {
	// larger than one buffer so the read loop runs more than once
	content := strings.Repeat("0123456789", bufferSize/5)

	got, err := FingerprintReader(strings.NewReader(content))
	if err != nil {
		t.Fatalf("FingerprintReader() error = %v", err)
	}
	if want := Fingerprint([]byte(content)); got != want {
		t.Errorf("FingerprintReader() = %v, want %v", got, want)
	}
}

func TestFingerprintFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/src/hello.txt", []byte("Hello, World!"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	got, err := FingerprintFile(fsys, "/src/hello.txt")
	if err != nil {
		t.Fatalf("FingerprintFile() error = %v", err)
	}
	if want := Fingerprint([]byte("Hello, World!")); got != want {
		t.Errorf("FingerprintFile() = %v, want %v", got, want)
	}

	_, err = FingerprintFile(fsys, "/src/does_not_exist.txt")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("FingerprintFile() on missing file error = %v, want fs.ErrNotExist", err)
	}
}
