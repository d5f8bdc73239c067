package memory

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Magic bytes for format detection
var (
	magicZIP    = []byte{0x50, 0x4B, 0x03, 0x04}
	magicZIPEnd = []byte{0x50, 0x4B, 0x05, 0x06} // empty zip
	magic7z     = []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}
	magicGzip   = []byte{0x1F, 0x8B}
	magicRAR    = []byte{0x52, 0x61, 0x72, 0x21} // "Rar!"
)

// Maximum dump size (16MB safety limit)
const maxDumpSize = 16 * 1024 * 1024

// DumpExtensions are the file extensions looked for inside archives.
var DumpExtensions = []string{".bin", ".ram", ".mem", ".dmp", ".dump", ".sav", ".srm"}

// ErrNoDumpFile is returned when no memory dump is found in an archive
var ErrNoDumpFile = errors.New("no memory dump found in archive")

// ErrFileTooLarge is returned when extracted content exceeds size limit
var ErrFileTooLarge = errors.New("file exceeds maximum size limit")

// formatType represents the detected file format
type formatType int

const (
	formatRaw formatType = iota
	formatZIP
	format7z
	formatGzip
	formatRAR
)

// Load reads a memory dump from path. Compressed archives are detected by
// magic bytes and the first entry with a dump extension is extracted; any
// other file is read as raw bytes.
//
// Returns the dump data, the entry name (basename only, for display), and
// any error.
func Load(path string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	// Read header for magic byte detection
	header := make([]byte, 16)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		return nil, "", fmt.Errorf("failed to read file header: %w", err)
	}
	header = header[:n]

	format := detectFormat(header, path)

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, "", fmt.Errorf("failed to seek file: %w", err)
	}

	switch format {
	case formatZIP:
		return extractFromZIP(path)
	case format7z:
		return extractFrom7z(path)
	case formatGzip:
		return extractFromGzip(path)
	case formatRAR:
		return extractFromRAR(path)
	}

	data, err := limitedRead(f)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read dump: %w", err)
	}
	return data, filepath.Base(path), nil
}

// LoadImage loads a dump into an image of size bytes (0 = dump length).
func LoadImage(path string, size int) (*Image, string, error) {
	data, name, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return FromBytes(data, size), name, nil
}

// detectFormat determines the file format based on magic bytes and extension.
func detectFormat(header []byte, path string) formatType {
	// Check magic bytes first (more reliable)
	if len(header) >= 4 {
		if bytes.HasPrefix(header, magicZIP) || bytes.HasPrefix(header, magicZIPEnd) {
			return formatZIP
		}
		if bytes.HasPrefix(header, magicRAR) {
			return formatRAR
		}
	}
	if len(header) >= 6 && bytes.HasPrefix(header, magic7z) {
		return format7z
	}
	if len(header) >= 2 && bytes.HasPrefix(header, magicGzip) {
		return formatGzip
	}

	// Empty files still dispatch on their extension so the archive reader
	// reports the error.
	if len(header) == 0 {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".zip":
			return formatZIP
		case ".7z":
			return format7z
		case ".gz", ".tgz":
			return formatGzip
		case ".rar":
			return formatRAR
		}
	}
	return formatRaw
}

// isDumpFile checks if a filename has a dump extension (case-insensitive)
func isDumpFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range DumpExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// limitedRead reads from r up to maxDumpSize bytes, returning an error if exceeded
func limitedRead(r io.Reader) ([]byte, error) {
	lr := io.LimitReader(r, maxDumpSize+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if len(data) > maxDumpSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}
