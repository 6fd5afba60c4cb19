package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"github.com/spf13/afero"
)

const bufferSize = 64 * 1024 // 64KB buffer

// Fingerprint returns the change-detection fingerprint of data.
// It is not a security primitive.
func Fingerprint(data []byte) string {
	m := md5.Sum(data)
	s := sha1.Sum(data)
	return hex.EncodeToString(m[:]) + hex.EncodeToString(s[:])
}

// FingerprintReader computes the fingerprint of everything read from r
func FingerprintReader(r io.Reader) (string, error) {
	d := newDigest()
	buffer := make([]byte, bufferSize)

	for {
		n, err := r.Read(buffer)
		if n > 0 {
			d.Write(buffer[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read: %w", err)
		}
	}

	return d.Sum(), nil
}

// FingerprintFile opens path on fsys and fingerprints its content.
// The open error is wrapped, so errors.Is(err, fs.ErrNotExist) still holds.
func FingerprintFile(fsys afero.Fs, path string) (string, error) {
	file, err := fsys.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return FingerprintReader(file)
}

// digest feeds both hashes in a single pass.
type digest struct {
	md5  hash.Hash
	sha1 hash.Hash
	w    io.Writer
}

func newDigest() *digest {
	d := &digest{md5: md5.New(), sha1: sha1.New()}
	d.w = io.MultiWriter(d.md5, d.sha1)
	return d
}

func (d *digest) Write(p []byte) {
	// hash.Hash.Write never returns an error
	_, _ = d.w.Write(p)
}

func (d *digest) Sum() string {
	return hex.EncodeToString(d.md5.Sum(nil)) + hex.EncodeToString(d.sha1.Sum(nil))
}
