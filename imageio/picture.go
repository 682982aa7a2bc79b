package imageio

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"

	"stegaimage/bitplane"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/vp8l"
	_ "golang.org/x/image/webp"
)

// Picture is a decoded carrier image. Alpha is kept in img but never exposed
// through Channels.
type Picture struct {
	img *image.NRGBA
	// Format is the name of the format the picture was decoded from.
	Format string
}

func Load(path string) (*Picture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open image %q: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Error("could not close image", "name", path, "error", closeErr)
		}
	}()

	pic, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("could not decode image %q: %w", path, err)
	}
	return pic, nil
}

func Decode(r io.Reader) (*Picture, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	return FromImage(img, format), nil
}

// FromImage copies img into an 8 bit non-premultiplied buffer.
func FromImage(img image.Image, format string) *Picture {
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Rect.Min == (image.Point{}) {
		return &Picture{img: nrgba, Format: format}
	}

	sr := img.Bounds()
	dest := image.NewNRGBA(image.Rect(0, 0, sr.Dx(), sr.Dy()))
	draw.Draw(dest, dest.Rect, img, sr.Min, draw.Src)
	return &Picture{img: dest, Format: format}
}

func (p *Picture) Image() image.Image { return p.img }

func (p *Picture) Pixels() int { return p.img.Rect.Dx() * p.img.Rect.Dy() }

// Channels returns a copy of the R, G and B values of every pixel in
// row-major order.
func (p *Picture) Channels() []uint8 {
	res := make([]uint8, 0, p.Pixels()*bitplane.ChannelsPerPixel)
	for y := range p.img.Rect.Dy() {
		row := p.img.Pix[y*p.img.Stride : y*p.img.Stride+p.img.Rect.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			res = append(res, row[i], row[i+1], row[i+2])
		}
	}
	return res
}

// Commit writes channels, laid out as returned by Channels, back into the
// picture.
func (p *Picture) Commit(channels []uint8) error {
	if want := p.Pixels() * bitplane.ChannelsPerPixel; len(channels) != want {
		return fmt.Errorf("channel count mismatch: want %d, got %d", want, len(channels))
	}

	for y := range p.img.Rect.Dy() {
		row := p.img.Pix[y*p.img.Stride : y*p.img.Stride+p.img.Rect.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			copy(row[i:i+3], channels[:3])
			channels = channels[3:]
		}
	}
	return nil
}
