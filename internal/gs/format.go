// Package gs assembles and executes Ghostscript invocations.
package gs

import (
	"errors"
	"fmt"
	"strings"
)

// Format selects the Ghostscript output device.
type Format string

const (
	FormatJPEG     Format = "jpeg"
	FormatPNGAlpha Format = "pngalpha"
)

// ErrUnsupportedFormat is returned for formats outside the two supported devices.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// ParseFormat maps a user-facing format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "pngalpha", "png":
		return FormatPNGAlpha, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, s)
}

// Device returns the -sDEVICE value for the format.
func (f Format) Device() (string, error) {
	switch f {
	case FormatJPEG:
		return "jpeg", nil
	case FormatPNGAlpha:
		return "pngalpha", nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, string(f))
}

// Ext returns the output file extension for the format.
func (f Format) Ext() string {
	if f == FormatPNGAlpha {
		return "png"
	}
	return "jpg"
}
