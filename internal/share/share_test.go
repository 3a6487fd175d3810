package share

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestVoteURL(t *testing.T) {
	url := VoteURL("http://localhost:3000", 7)
	if url != "http://localhost:3000/vote/7" {
		t.Errorf("unexpected vote URL: %s", url)
	}
}

func TestResultsURL(t *testing.T) {
	url := ResultsURL("http://localhost:3000", 7)
	if url != "http://localhost:3000/results/7" {
		t.Errorf("unexpected results URL: %s", url)
	}
}

func TestQRPNG(t *testing.T) {
	png, err := QRPNG("http://localhost:3000/vote/7", 256)
	if err != nil {
		t.Fatalf("QRPNG failed: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Error("expected PNG output")
	}
}

func TestWriteQRPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qr.png")

	if err := WriteQRPNG("http://localhost:3000/vote/7", path, 128); err != nil {
		t.Fatalf("WriteQRPNG failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written file: %v", err)
	}
	if !bytes.HasPrefix(data, pngMagic) {
		t.Error("written file is not a PNG")
	}
}
