package interfaces

// ImageStorage models a device whose contents can be seeded from, or saved
// to, a flat byte image that starts at the device's base address.
type ImageStorage interface {
	// LoadImage copies image to the start of the device.
	LoadImage(image []byte)
	// ClearImage loads an empty image.
	ClearImage()
	// SaveImage returns a copy of the device's current contents.
	SaveImage() []byte
}
