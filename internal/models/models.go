package models

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
)

var (
	// ErrEmptyImage is returned when an upload carries no bytes.
	ErrEmptyImage = errors.New("image is empty")
	// ErrUnsupportedFormat is returned for anything other than JPEG or PNG.
	ErrUnsupportedFormat = errors.New("unsupported image format (supported: jpeg, png)")
)

// Image is an uploaded product photo. It is immutable once constructed;
// accessors hand out copies so entries never alias each other's bytes.
type Image struct {
	data     []byte
	format   string // "jpeg" or "png"
	filename string
	width    int
	height   int
}

// ImageInfo is the display metadata of an Image.
type ImageInfo struct {
	Filename string `json:"filename" yaml:"filename"`
	Format   string `json:"format" yaml:"format"`
	MIMEType string `json:"mime_type" yaml:"mimetype"`
	Width    int    `json:"width" yaml:"width"`
	Height   int    `json:"height" yaml:"height"`
	Size     int    `json:"size_bytes" yaml:"sizebytes"`
	Checksum string `json:"checksum" yaml:"checksum"`
}

// NewImage validates data as a JPEG or PNG raster and copies it.
func NewImage(data []byte, filename string) (Image, error) {
	if len(data) == 0 {
		return Image{}, ErrEmptyImage
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if format != "jpeg" && format != "png" {
		return Image{}, fmt.Errorf("%w: got %s", ErrUnsupportedFormat, format)
	}

	return Image{
		data:     bytes.Clone(data),
		format:   format,
		filename: filename,
		width:    cfg.Width,
		height:   cfg.Height,
	}, nil
}

// IsZero reports whether the image is absent.
func (i Image) IsZero() bool {
	return len(i.data) == 0
}

// Data returns a copy of the raw bytes.
func (i Image) Data() []byte {
	return bytes.Clone(i.data)
}

func (i Image) Format() string {
	return i.format
}

func (i Image) Filename() string {
	return i.filename
}

func (i Image) MIMEType() string {
	switch i.format {
	case "png":
		return "image/png"
	case "jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}

// Checksum is the hex MD5 of the image bytes.
func (i Image) Checksum() string {
	sum := md5.Sum(i.data)
	return hex.EncodeToString(sum[:])
}

// Clone returns an Image backed by its own copy of the bytes.
func (i Image) Clone() Image {
	c := i
	c.data = bytes.Clone(i.data)
	return c
}

func (i Image) Info() ImageInfo {
	return ImageInfo{
		Filename: i.filename,
		Format:   i.format,
		MIMEType: i.MIMEType(),
		Width:    i.width,
		Height:   i.height,
		Size:     len(i.data),
		Checksum: i.Checksum(),
	}
}
