package survey

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"testing"

	"stegaimage/bitplane"
	"stegaimage/imageio"
	"stegaimage/parallel"
)

func writeImage(t *testing.T, dir, name string, w, h int, msg []byte) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	pic := imageio.FromImage(img, "png")

	if msg != nil {
		codec, err := bitplane.Open(pic.Channels())
		if err != nil {
			t.Fatal(err)
		}
		if err = codec.Write(msg); err != nil {
			t.Fatal(err)
		}
		if err = pic.Commit(codec.Channels()); err != nil {
			t.Fatal(err)
		}
	}

	if err := pic.Save(filepath.Join(dir, name), imageio.FormatFor(name, "")); err != nil {
		t.Fatal(err)
	}
}

func TestMeasure(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "big.png", 100, 10, []byte("hello"))
	writeImage(t, dir, "tiny.bmp", 2, 2, nil)

	report, err := Measure(filepath.Join(dir, "big.png"), true)
	if err != nil {
		t.Fatal(err)
	}
	if want, got := (3000-33)/8, report.Capacity; want != got {
		t.Errorf("capacity. want: %d, got: %d", want, got)
	}
	if want, got := 5, report.Hidden; want != got {
		t.Errorf("hidden. want: %d, got: %d", want, got)
	}

	report, err = Measure(filepath.Join(dir, "tiny.bmp"), true)
	if err != nil {
		t.Fatal(err)
	}
	if report.Capacity != 0 || report.Hidden != -1 || report.Format != "bmp" {
		t.Errorf("unexpected tiny report: %+v", report)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "b.png", 20, 20, nil)
	writeImage(t, dir, "a.tiff", 8, 8, []byte("xy"))
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	pool := parallel.Start(2)
	cmd := CLICmd{Scan: dir, Probe: true}
	var out bytes.Buffer
	if err := cmd.Run(pool.Do, pool.Wait, &out); err != nil {
		t.Fatal(err)
	}

	want := "a.tiff\ttiff\t19\t2\nb.png\tpng\t145\t-\n"
	if got := out.String(); want != got {
		t.Errorf("want: %q, got: %q", want, got)
	}
}

func TestRunCountsErrors(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "ok.png", 20, 20, nil)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	pool := parallel.Start(1)
	cmd := CLICmd{Scan: dir}
	var out bytes.Buffer
	if err := cmd.Run(pool.Do, pool.Wait, &out); err == nil {
		t.Fatal("want error for undecodable file")
	}
	if want, got := "ok.png\tpng\t145\n", out.String(); want != got {
		t.Errorf("want: %q, got: %q", want, got)
	}
}
