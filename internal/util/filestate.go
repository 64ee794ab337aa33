package util

import (
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"syscall"
)

// FileState identifies one version of a file on disk.
type FileState struct {
	ModTime     int64  // Last modification time, unix seconds
	Size        int64  // File size in bytes
	Inode       uint64 // Inode number on Unix-like systems
	Fingerprint string // CRC32 of the whole content
}

// StatFile reads the state of path, including its content fingerprint.
func StatFile(path string) (*FileState, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	sysStat, ok := stat.Sys().(*syscall.Stat_t)
	if !ok {
		return nil, fmt.Errorf("failed to get file system information: %s", path)
	}

	fingerprint, err := CalculateFileFingerprint(path)
	if err != nil {
		return nil, err
	}

	return &FileState{
		ModTime:     stat.ModTime().Unix(),
		Size:        stat.Size(),
		Inode:       sysStat.Ino,
		Fingerprint: fingerprint,
	}, nil
}

// SameContent reports whether two states most likely hold identical bytes.
// Inode and mtime are ignored so atomic rewrites of equal content compare equal.
func (s *FileState) SameContent(other *FileState) bool {
	if s == nil || other == nil {
		return false
	}
	return s.Size == other.Size && s.Fingerprint == other.Fingerprint
}

// CalculateFileFingerprint calculates the CRC32 of the whole file. Trace
// files are rewritten in place, so an edit can land anywhere.
func CalculateFileFingerprint(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := crc32.NewIEEE()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("%08x", hash.Sum32()), nil
}
