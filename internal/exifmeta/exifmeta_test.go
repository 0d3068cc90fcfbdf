package exifmeta

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCaptureTimeMissingFile(t *testing.T) {
	_, err := Reader{}.CaptureTime(filepath.Join(t.TempDir(), "nope.jpg"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestCaptureTimeNotAnImage(t *testing.T) {
	p := filepath.Join(t.TempDir(), "junk.jpg")
	if err := os.WriteFile(p, []byte("definitely not jpeg data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := (Reader{}).CaptureTime(p); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestCoordinatesNotAnImage(t *testing.T) {
	p := filepath.Join(t.TempDir(), "junk.jpg")
	if err := os.WriteFile(p, []byte{0xff, 0xd8, 0xff, 0x00}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := (Reader{}).Coordinates(p); err == nil {
		t.Fatal("expected decode error")
	}
}
