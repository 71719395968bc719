package loader

import (
	"os"

	"github.com/pkg/errors"

	"GoRV/internal/interfaces"
)

// Device is a memory device that can be seeded from a flat image.
type Device interface {
	interfaces.Addressable
	interfaces.ImageStorage
}

// ReadImage reads a flat binary image file.
func ReadImage(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read image file")
	}

	if len(data) == 0 {
		return nil, errors.Errorf("image file %s is empty", path)
	}

	return data, nil
}

// LoadRaw copies the flat binary at path to the start of dev.
func LoadRaw(path string, dev Device) (int, error) {
	data, err := ReadImage(path)
	if err != nil {
		return 0, err
	}
	if uint64(len(data)) > dev.Size() {
		return 0, errors.Errorf("image %s is %d bytes, device holds %d", path, len(data), dev.Size())
	}
	dev.LoadImage(data)
	return len(data), nil
}
