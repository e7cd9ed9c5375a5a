package fuzzy

import (
	"bufio"
	"os"

	"github.com/glaslos/tlsh"
)

// TLSH needs at least this many input bytes to produce a digest.
const tlshMinInput = 50

type TLSHHasher struct{}

func (TLSHHasher) Name() string { return "tlsh" }

func (TLSHHasher) HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	digest, err := tlsh.HashReader(bufio.NewReader(f))
	if err != nil {
		return "", err
	}
	return digest.String(), nil
}

func (TLSHHasher) HashBytes(data []byte) (string, error) {
	if len(data) < tlshMinInput {
		return "", errShortInput
	}
	digest, err := tlsh.HashBytes(data)
	if err != nil {
		return "", err
	}
	return digest.String(), nil
}

func init() {
	Register(TLSHHasher{})
}
