// pkg/core/image.go
package core

import "fmt"

// bytesPerPixel is the size of one BGRA pixel in a raw camera payload.
const bytesPerPixel = 4

// Image is a decoded camera payload: height x width pixels, four channels
// each (BGRA, the wire order the simulator produces).
type Image struct {
	Height int
	Width  int
	Pixels []byte
}

// DecodeImage validates a raw BGRA buffer against the expected dimensions
// and wraps it without copying.
func DecodeImage(payload []byte, height, width int) (*Image, error) {
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %dx%d", width, height)
	}
	want := height * width * bytesPerPixel
	if len(payload) != want {
		return nil, fmt.Errorf("payload is %d bytes, want %d for %dx%d BGRA", len(payload), want, width, height)
	}
	return &Image{Height: height, Width: width, Pixels: payload}, nil
}

// At returns the BGRA channels of the pixel at row y, column x.
func (im *Image) At(x, y int) [4]byte {
	off := (y*im.Width + x) * bytesPerPixel
	return [4]byte{im.Pixels[off], im.Pixels[off+1], im.Pixels[off+2], im.Pixels[off+3]}
}

// RGB returns a copy of the image with the alpha channel dropped and the
// channel order reversed to RGB.
func (im *Image) RGB() []byte {
	out := make([]byte, im.Height*im.Width*3)
	for i := 0; i < im.Height*im.Width; i++ {
		src := i * bytesPerPixel
		dst := i * 3
		out[dst] = im.Pixels[src+2]
		out[dst+1] = im.Pixels[src+1]
		out[dst+2] = im.Pixels[src]
	}
	return out
}
