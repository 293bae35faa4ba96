package render

import (
	"bytes"
	"fmt"
	"os/exec"
)

const rsvgConvert = "rsvg-convert"

// PDFAvailable reports whether [ToPDF] can run on this machine.
func PDFAvailable() bool {
	_, err := exec.LookPath(rsvgConvert)
	return err == nil
}

// ToPDF converts SVG bytes to PDF using rsvg-convert.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPDF(svg []byte) ([]byte, error) {
	return convert(svg, "pdf")
}

func convert(svg []byte, format string, extraArgs ...string) ([]byte, error) {
	if !PDFAvailable() {
		return nil, fmt.Errorf("%s export requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin", format)
	}

	args := append([]string{"-f", format}, extraArgs...)
	cmd := exec.Command(rsvgConvert, args...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %v: %s", rsvgConvert, err, errBuf.String())
	}
	return out.Bytes(), nil
}
