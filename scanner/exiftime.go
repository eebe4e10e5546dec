package scanner

import (
	"fmt"
	"time"

	"github.com/barasher/go-exiftool"

	"imagededup/logging"
)

// exifTimeFormat is how exiftool renders DateTimeOriginal
const exifTimeFormat = "2006:01:02 15:04:05"

// TimeSource resolves the age of a file from its metadata. It exists so the
// oldest-keeper policy can prefer the capture time over the filesystem
// modification time.
type TimeSource interface {
	FileTime(path string) (time.Time, error)
	Close()
}

// ExifTimeSource reads DateTimeOriginal through a long-lived exiftool
// session, one child process for the whole scan
type ExifTimeSource struct {
	et *exiftool.Exiftool
}

// NewExifTimeSource starts an exiftool session. It fails when the exiftool
// binary is not installed; callers are expected to fall back to mtime.
func NewExifTimeSource() (*ExifTimeSource, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize exiftool: %v", err)
	}
	return &ExifTimeSource{et: et}, nil
}

// FileTime extracts the capture time of the image at path
func (s *ExifTimeSource) FileTime(path string) (time.Time, error) {
	fileInfos := s.et.ExtractMetadata(path)
	if len(fileInfos) == 0 {
		return time.Time{}, fmt.Errorf("no metadata extracted from %s", path)
	}

	fileInfo := fileInfos[0]
	if fileInfo.Err != nil {
		return time.Time{}, fileInfo.Err
	}

	raw, err := fileInfo.GetString("DateTimeOriginal")
	if err != nil {
		return time.Time{}, fmt.Errorf("no DateTimeOriginal in %s", path)
	}

	captured, err := time.ParseInLocation(exifTimeFormat, raw, time.Local)
	if err != nil {
		logging.Debugf("unparseable DateTimeOriginal %q in %s: %v", raw, path, err)
		return time.Time{}, err
	}

	return captured, nil
}

// Close shuts down the exiftool session
func (s *ExifTimeSource) Close() {
	s.et.Close()
}
