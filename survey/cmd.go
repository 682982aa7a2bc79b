package survey

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"stegaimage/bitplane"
	"stegaimage/imageio"
	"stegaimage/parallel"

	"github.com/alecthomas/kong"
)

type CLICmd struct {
	Scan  string `help:"Source folder to scan" default:"."`
	Probe bool   `help:"Also report whether each image already carries a hidden message" default:"false"`
}

// Report describes how much one image can hide.
type Report struct {
	Name   string
	Format string
	Pixels int
	// Capacity is the largest message, in bytes, the image can carry.
	Capacity int
	// Hidden is the length in bytes of the message found when probing, or -1.
	Hidden int
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	scanDir, err := filepath.Abs(c.Scan)
	var info os.FileInfo
	if err == nil {
		if info, err = os.Stat(scanDir); err == nil && !info.IsDir() {
			err = fmt.Errorf("not a directory")
		}
	}
	if err != nil {
		return fmt.Errorf("invalid scan path %q: %w", c.Scan, err)
	}
	c.Scan = scanDir
	return nil
}

func (c *CLICmd) Run(worker parallel.WorkerFunc, wait parallel.WaitFunc, stdout io.Writer) error {
	files, err := os.ReadDir(c.Scan)
	if err != nil {
		return fmt.Errorf("unable to read folder %q: %w", c.Scan, err)
	}

	var (
		mu      sync.Mutex
		reports []Report
	)
	var errCount atomic.Uint64
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		worker(func(fileName string) func() {
			return func() {
				filePath := filepath.Join(c.Scan, fileName)
				logger := slog.Default().With("file", filePath)

				report, err := Measure(filePath, c.Probe)
				if err != nil {
					errCount.Add(1)
					logger.Error("could not measure image", "error", err)
					return
				}
				report.Name = fileName
				logger.Debug("measured", "capacity", report.Capacity, "hidden", report.Hidden)

				mu.Lock()
				reports = append(reports, report)
				mu.Unlock()
			}
		}(file.Name()))
	}

	wait(true)

	slices.SortFunc(reports, func(a, b Report) int { return strings.Compare(a.Name, b.Name) })
	for _, r := range reports {
		line := fmt.Sprintf("%s\t%s\t%d", r.Name, r.Format, r.Capacity)
		if c.Probe {
			if r.Hidden < 0 {
				line += "\t-"
			} else {
				line += fmt.Sprintf("\t%d", r.Hidden)
			}
		}
		if _, err := fmt.Fprintln(stdout, line); err != nil {
			return fmt.Errorf("could not write report: %w", err)
		}
	}

	errTotal := errCount.Load()
	slog.Info("stats", "measured", len(reports), "errors", errTotal,
		"total", uint64(len(reports))+errTotal)

	if errTotal > 0 {
		return fmt.Errorf("error processing %d files", errTotal)
	}
	return nil
}

// Measure decodes the image at path and computes its capacity. Images too
// small to hold the length prefix report zero capacity instead of an error.
func Measure(path string, probe bool) (Report, error) {
	pic, err := imageio.Load(path)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		Name:   filepath.Base(path),
		Format: pic.Format,
		Pixels: pic.Pixels(),
		Hidden: -1,
	}

	codec, err := bitplane.Open(pic.Channels())
	if errors.Is(err, bitplane.ErrCapacity) {
		return report, nil
	} else if err != nil {
		return Report{}, err
	}
	report.Capacity = max(codec.MessageBitLimit(), 0) / 8

	if probe {
		msg, err := codec.Read()
		if err == nil {
			report.Hidden = len(msg)
		} else if !errors.Is(err, bitplane.ErrFraming) {
			return Report{}, err
		}
	}
	return report, nil
}
