package conceal

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stegaimage/bitplane"
	"stegaimage/imageio"
)

func writeCarrier(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 3), G: uint8(y * 5), B: 0x80, A: 0xFF})
		}
	}

	name := filepath.Join(dir, "carrier.png")
	f, err := os.Create(name)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return name
}

func hidden(t *testing.T, pic *imageio.Picture) []byte {
	t.Helper()
	codec, err := bitplane.Open(pic.Channels())
	if err != nil {
		t.Fatal(err)
	}
	msg, err := codec.Read()
	if err != nil {
		t.Fatal(err)
	}
	return msg
}

func TestRunPhraseToFile(t *testing.T) {
	dir := t.TempDir()
	cmd := CLICmd{
		Input:  writeCarrier(t, dir, 16, 16),
		Output: filepath.Join(dir, "out.png"),
		Phrase: "meet me at noon",
	}
	if err := cmd.Run(nil, nil); err != nil {
		t.Fatal(err)
	}

	pic, err := imageio.Load(cmd.Output)
	if err != nil {
		t.Fatal(err)
	}
	if want, got := cmd.Phrase, string(hidden(t, pic)); want != got {
		t.Errorf("want: %q, got: %q", want, got)
	}
}

func TestRunStdinToStdout(t *testing.T) {
	dir := t.TempDir()
	cmd := CLICmd{
		Input: writeCarrier(t, dir, 20, 10),
		Stdin: true,
	}
	msg := []byte{0x00, 0xFF, 'a', '\n', 0x7F}

	var out bytes.Buffer
	if err := cmd.Run(bytes.NewReader(msg), &out); err != nil {
		t.Fatal(err)
	}

	pic, err := imageio.Decode(&out)
	if err != nil {
		t.Fatal(err)
	}
	if pic.Format != "png" {
		t.Errorf("stdout format. want: png, got: %s", pic.Format)
	}
	if got := hidden(t, pic); !bytes.Equal(msg, got) {
		t.Errorf("want: %v, got: %v", msg, got)
	}
}

func TestRunFileWithTypeHint(t *testing.T) {
	dir := t.TempDir()
	msgFile := filepath.Join(dir, "secret.txt")
	if err := os.WriteFile(msgFile, []byte("from a file"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := CLICmd{
		Input:  writeCarrier(t, dir, 12, 12),
		Output: filepath.Join(dir, "out.img"),
		Type:   "bmp",
		File:   msgFile,
	}
	if err := cmd.Run(nil, nil); err != nil {
		t.Fatal(err)
	}

	pic, err := imageio.Load(cmd.Output)
	if err != nil {
		t.Fatal(err)
	}
	if pic.Format != "bmp" {
		t.Errorf("format. want: bmp, got: %s", pic.Format)
	}
	if want, got := "from a file", string(hidden(t, pic)); want != got {
		t.Errorf("want: %q, got: %q", want, got)
	}
}

func TestRunMessageTooLarge(t *testing.T) {
	dir := t.TempDir()
	cmd := CLICmd{
		Input:  writeCarrier(t, dir, 4, 4),
		Output: filepath.Join(dir, "out.png"),
		Phrase: strings.Repeat("x", 10),
	}

	err := cmd.Run(nil, nil)
	if !errors.Is(err, bitplane.ErrCapacity) {
		t.Fatalf("want ErrCapacity, got: %v", err)
	}
	if _, statErr := os.Stat(cmd.Output); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("output written for a message that does not fit")
	}
}

func TestRunImageTooSmall(t *testing.T) {
	dir := t.TempDir()
	cmd := CLICmd{Input: writeCarrier(t, dir, 3, 3)}

	if err := cmd.Run(nil, &bytes.Buffer{}); !errors.Is(err, bitplane.ErrCapacity) {
		t.Fatalf("want ErrCapacity, got: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cmd := CLICmd{Input: "in.png", Type: "webp"}
	if err := cmd.Validate(nil); err == nil {
		t.Error("want error for webp output type")
	}

	cmd = CLICmd{Input: "in.png", Output: "out.png", Type: "TIFF"}
	if err := cmd.Validate(nil); err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(cmd.Output) {
		t.Errorf("output not made absolute: %s", cmd.Output)
	}
}
