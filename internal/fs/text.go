package fs

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	// TextSampleSize is the number of leading bytes sniffed to classify a file.
	TextSampleSize               = 4096
	nonPrintableThresholdPercent = 30
)

type unicodeEncoding int

const (
	encodingUnknown unicodeEncoding = iota
	encodingUTF8BOM
	encodingUTF16LE
	encodingUTF16BE
)

var binaryExtensions = map[string]struct{}{
	".7z":    {},
	".a":     {},
	".apk":   {},
	".avi":   {},
	".bin":   {},
	".bmp":   {},
	".bz2":   {},
	".class": {},
	".dat":   {},
	".dll":   {},
	".doc":   {},
	".docx":  {},
	".dylib": {},
	".exe":   {},
	".flac":  {},
	".gif":   {},
	".gz":    {},
	".ico":   {},
	".iso":   {},
	".jar":   {},
	".jpeg":  {},
	".jpg":   {},
	".lib":   {},
	".mkv":   {},
	".mov":   {},
	".mp3":   {},
	".mp4":   {},
	".o":     {},
	".obj":   {},
	".ogg":   {},
	".otf":   {},
	".pdf":   {},
	".png":   {},
	".ppt":   {},
	".pptx":  {},
	".psd":   {},
	".rar":   {},
	".so":    {},
	".svg":   {},
	".tar":   {},
	".tgz":   {},
	".ttf":   {},
	".wav":   {},
	".wasm":  {},
	".webp":  {},
	".woff":  {},
	".woff2": {},
	".xls":   {},
	".xlsx":  {},
	".xz":    {},
	".zip":   {},
}

// IsTextFile determines if content is text or binary.
// The path (if provided) is used to short-circuit obvious binary extensions before sniffing.
func IsTextFile(path string, content []byte) bool {
	if LooksBinaryByExtension(path) {
		return false
	}

	if len(content) == 0 {
		return true
	}

	sample := content
	if len(sample) > TextSampleSize {
		sample = sample[:TextSampleSize]
	}

	if enc := detectUnicodeEncoding(sample); enc != encodingUnknown {
		return true
	}

	if bytes.IndexByte(sample, 0x00) != -1 {
		return false
	}

	if utf8.Valid(trimPartialRune(sample)) {
		return true
	}

	printable := 0
	nonPrintable := 0
	for _, b := range sample {
		if isCommonTextByte(b) {
			printable++
		} else {
			nonPrintable++
		}
	}

	if printable == 0 {
		return false
	}

	return nonPrintable*100/len(sample) < nonPrintableThresholdPercent
}

// LooksBinaryByExtension reports whether the file extension alone marks path as binary.
func LooksBinaryByExtension(path string) bool {
	if path == "" {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := binaryExtensions[ext]
	return ok
}

// NewTextReader wraps r so that BOM-prefixed content (UTF-8 or UTF-16) comes out
// as plain UTF-8. sample must be the leading bytes of r; content without a BOM is
// returned untouched so byte offsets stay those of the file.
func NewTextReader(r io.Reader, sample []byte) io.Reader {
	if detectUnicodeEncoding(sample) == encodingUnknown {
		return r
	}
	return transform.NewReader(r, unicode.BOMOverride(transform.Nop))
}

// trimPartialRune drops a rune cut in half by the sample boundary so a valid
// UTF-8 file is not misreported because of where the sample ended.
func trimPartialRune(sample []byte) []byte {
	for i := 1; i < utf8.UTFMax && i <= len(sample); i++ {
		b := sample[len(sample)-i]
		if b < utf8.RuneSelf {
			return sample
		}
		if utf8.RuneStart(b) {
			if !utf8.FullRune(sample[len(sample)-i:]) {
				return sample[:len(sample)-i]
			}
			return sample
		}
	}
	return sample
}

func isCommonTextByte(b byte) bool {
	switch {
	case b == 0x09 || b == 0x0A || b == 0x0D:
		return true
	case b >= 0x20 && b <= 0x7E:
		return true
	case b == 0x1B:
		return true
	case b >= 0x80:
		return true
	default:
		return false
	}
}

func detectUnicodeEncoding(sample []byte) unicodeEncoding {
	if len(sample) >= 3 && sample[0] == 0xEF && sample[1] == 0xBB && sample[2] == 0xBF {
		return encodingUTF8BOM
	}
	if len(sample) >= 2 {
		switch {
		case sample[0] == 0xFF && sample[1] == 0xFE:
			return encodingUTF16LE
		case sample[0] == 0xFE && sample[1] == 0xFF:
			return encodingUTF16BE
		}
	}
	return encodingUnknown
}
