// Package challenge writes the three-layer demonstration puzzle: each
// layer is an AES-256 zip holding the hint for the next password and the
// next archive.
package challenge

import (
	"fmt"
	"os"
	"path/filepath"

	"layercrack/archive"
)

const (
	Layer1Password = "start123"
	Layer2Password = "albert1921"
	Layer3Password = "parisau49!"

	OuterName = "layer1.zip"
)

const layer2Hint = `HINT FOR LAYER 2: The password is the first name of the famous physicist who developed the theory of relativity, followed by the year he won the Nobel Prize. Format: firstname+year (all lowercase)
`

const layer3Hint = `HINT FOR LAYER 3: Combine these clues:
1. The capital of France
2. The chemical symbol for Gold
3. What is 7 squared?
4. The exclamation mark
Format: city+symbol+number+punctuation (all lowercase)

Bonus: UmVtZW1iZXI6IGFsbCBsb3dlcmNhc2UsIG5vIHNwYWNlcw==
Meet me at 48.8566, 2.3522
`

const victory = `Congratulations! You reached the center of the puzzle.

All three layers are open:
  layer 1: start123
  layer 2: albert1921
  layer 3: parisau49!
`

type layer struct {
	name     string
	password string
	files    []archive.FileSpec
}

// Build writes the puzzle into dir and returns the outer archive's path.
// Archives are built innermost first, each one embedded in the next.
func Build(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	layers := []layer{
		{name: OuterName, password: Layer1Password, files: []archive.FileSpec{{Name: "readme.txt", Data: []byte(layer2Hint)}}},
		{name: "layer2.zip", password: Layer2Password, files: []archive.FileSpec{{Name: "clues.txt", Data: []byte(layer3Hint)}}},
		{name: "layer3.zip", password: Layer3Password, files: []archive.FileSpec{{Name: "victory.txt", Data: []byte(victory)}}},
	}

	scratch, err := os.MkdirTemp(dir, ".challenge-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(scratch)

	var inner *archive.FileSpec
	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]
		files := l.files
		if inner != nil {
			files = append(files, *inner)
		}
		path := filepath.Join(scratch, l.name)
		if err := archive.WriteZip(path, l.password, archive.AES256, files); err != nil {
			return "", fmt.Errorf("write %s: %w", l.name, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		inner = &archive.FileSpec{Name: l.name, Data: data}
	}

	out := filepath.Join(dir, OuterName)
	if err := os.WriteFile(out, inner.Data, 0o644); err != nil {
		return "", err
	}
	return out, nil
}
