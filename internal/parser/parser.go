package parser

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/dgallion1/manuscript/internal/segment"
	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrUnsupportedFormat is returned before any decoding when the input is
	// neither DOCX nor RTF.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrCorruptContainer is returned when the file claims a supported format
	// but its container or body cannot be read.
	ErrCorruptContainer = errors.New("corrupt container")
)

// Parser converts raw document bytes into an ordered paragraph stream.
type Parser interface {
	Parse(r io.Reader, filename string) ([]segment.RawParagraph, error)
}

// Format identifies a supported input format.
type Format int

const (
	Unknown Format = iota
	DOCX
	RTF
)

const (
	MediaTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MediaTypeRTF  = "application/rtf"
)

func (f Format) String() string {
	switch f {
	case DOCX:
		return "DOCX"
	case RTF:
		return "RTF"
	default:
		return "Unknown"
	}
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]Format{
	".docx": DOCX,
	".rtf":  RTF,
}

var supportedMediaTypes = map[string]Format{
	MediaTypeDOCX: DOCX,
	MediaTypeRTF:  RTF,
	"text/rtf":    RTF,
}

// Detect picks the input format from the filename extension, then the
// declared media type, then the leading bytes of the content. It never
// decodes the content.
func Detect(filename, mediaType string, head []byte) (Format, error) {
	if f, ok := SupportedExtensions[strings.ToLower(filepath.Ext(filename))]; ok {
		return f, nil
	}
	if mediaType != "" {
		mt, _, err := mime.ParseMediaType(mediaType)
		if err == nil {
			if f, ok := supportedMediaTypes[strings.ToLower(mt)]; ok {
				return f, nil
			}
		}
	}
	if len(head) > 0 {
		m := mimetype.Detect(head)
		switch {
		case m.Is(MediaTypeDOCX):
			return DOCX, nil
		case m.Is("text/rtf"), m.Is(MediaTypeRTF):
			return RTF, nil
		}
	}
	return Unknown, fmt.Errorf("%w: %q (%s)", ErrUnsupportedFormat, filename, mediaTypeOrNone(mediaType))
}

// ForFormat returns the decoder for a detected format.
func ForFormat(f Format) (Parser, error) {
	switch f {
	case DOCX:
		return &DOCXParser{}, nil
	case RTF:
		return &RTFParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	f, err := Detect(filename, "", nil)
	if err != nil {
		return nil, err
	}
	return ForFormat(f)
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	_, ok := SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}

func mediaTypeOrNone(mt string) string {
	if mt == "" {
		return "no media type"
	}
	return mt
}
