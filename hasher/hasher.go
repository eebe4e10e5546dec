package hasher

import (
	"fmt"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
	"github.com/spf13/afero"

	// Register decoders for the supported extension set. GIF and friends
	// stay unregistered: animated or paletted formats do not hash
	// meaningfully, so a forced attempt fails instead of producing a
	// misleading fingerprint.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// hashSize is the side length of the DCT hash grid, giving a 256-bit
// fingerprint
const hashSize = 16

// Hash is an opaque perceptual fingerprint of a single image. Visually
// similar images produce hashes at a small distance from each other.
type Hash struct {
	ext *goimagehash.ExtImageHash
}

// IsZero reports whether the hash was never computed
func (h Hash) IsZero() bool {
	return h.ext == nil
}

// Hasher is the capability the grouping logic depends on: compute a
// fingerprint for a file and a normalized distance between two fingerprints.
// Alternate perceptual-hash algorithms can be substituted behind it.
type Hasher interface {
	HashFile(path string) (Hash, error)
	Distance(a, b Hash) (float64, error)
}

// PerceptionHasher computes DCT-based perceptual hashes with goimagehash
type PerceptionHasher struct {
	fs afero.Fs
}

// NewPerceptionHasher creates a hasher reading image bytes from fs
func NewPerceptionHasher(fs afero.Fs) *PerceptionHasher {
	return &PerceptionHasher{fs: fs}
}

// HashFile decodes the image at path and computes its perceptual hash.
// Decoding honors EXIF orientation so a rotated copy hashes like its source.
func (p *PerceptionHasher) HashFile(path string) (Hash, error) {
	file, err := p.fs.Open(path)
	if err != nil {
		return Hash{}, fmt.Errorf("cannot open %s: %v", path, err)
	}
	defer file.Close()

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return Hash{}, fmt.Errorf("cannot decode %s: %v", path, err)
	}

	ext, err := goimagehash.ExtPerceptionHash(img, hashSize, hashSize)
	if err != nil {
		return Hash{}, fmt.Errorf("cannot hash %s: %v", path, err)
	}

	return Hash{ext: ext}, nil
}

// Distance returns the Hamming distance between two hashes normalized to
// [0.0, 1.0], lower meaning more similar. Symmetric and deterministic for a
// fixed pair of hashes.
func (p *PerceptionHasher) Distance(a, b Hash) (float64, error) {
	if a.IsZero() || b.IsZero() {
		return 0, fmt.Errorf("cannot compute distance for missing hash")
	}

	bits, err := a.ext.Distance(b.ext)
	if err != nil {
		return 0, err
	}

	return float64(bits) / float64(hashSize*hashSize), nil
}
