package main

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Sample is one captured screen observation handed to the detector.
type Sample struct {
	Image   image.Image
	Raw     []byte // encoded bytes as captured, sent to the classifier
	Media   string // MIME type of Raw, e.g. "image/png"
	App     string // frontmost application name, "" when unknown
	TakenAt time.Time
}

// Capturer produces screen samples. Capture is called once per tick from the
// detector loop.
type Capturer interface {
	Capture() (*Sample, error)
}

// spoolCapturer reads the newest screenshot dropped into a spool directory by
// the platform capture helper (screencapture on macOS, grim on Wayland, etc).
type spoolCapturer struct {
	dir string
}

func NewSpoolCapturer(dir string) Capturer {
	return &spoolCapturer{dir: dir}
}

func (c *spoolCapturer) Capture() (*Sample, error) {
	path, err := newestScreenshot(c.dir)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	media := "image/png"
	if format == "jpeg" {
		media = "image/jpeg"
	}
	return &Sample{
		Image:   img,
		Raw:     data,
		Media:   media,
		App:     frontmostAppName(),
		TakenAt: time.Now(),
	}, nil
}

func newestScreenshot(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading screenshot dir: %w", err)
	}

	var newest string
	var newestMod time.Time
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".png", ".jpg", ".jpeg":
		default:
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = filepath.Join(dir, entry.Name())
			newestMod = info.ModTime()
		}
	}
	if newest == "" {
		return "", fmt.Errorf("no screenshots found in %s", dir)
	}
	return newest, nil
}

// frontmostAppName asks System Events for the active application. Requires
// Accessibility permission on macOS; returns "" anywhere it cannot tell.
func frontmostAppName() string {
	if runtime.GOOS != "darwin" {
		return ""
	}
	out, err := exec.Command("osascript", "-e",
		`tell application "System Events" to get name of first process whose frontmost is true`).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
