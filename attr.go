package ext2

import (
	"io/fs"
	"time"
)

// fileInfo adapts an Inode to io/fs.FileInfo, the shape Mount.Stat,
// DirEntry.Info and the CLI's io/fs.FS wrapper return. The FUSE bridge's
// Getattr uses Attr (via GetAttr) instead.
type fileInfo struct {
	name string
	ino  *Inode
}

var _ fs.FileInfo = (*fileInfo)(nil)

func (fi *fileInfo) Name() string       { return fi.name }
func (fi *fileInfo) Size() int64        { return int64(fi.ino.Size) }
func (fi *fileInfo) Mode() fs.FileMode  { return fi.ino.FileMode() }
func (fi *fileInfo) IsDir() bool        { return fi.ino.IsDir() }
func (fi *fileInfo) Sys() any           { return fi.ino }
func (fi *fileInfo) ModTime() time.Time { return time.Unix(int64(fi.ino.MTime), 0) }

// Attr is the subset of inode metadata the FUSE bridge's Getattr callback
// needs, named after the fields go-fuse/v2/fuse.Attr expects rather than
// raw ext2 field names.
type Attr struct {
	Size   uint64
	Blocks uint64
	Mode   fs.FileMode
	Links  uint32
	Atime  time.Time
	Mtime  time.Time
	Ctime  time.Time
}

// Stat resolves path and returns its metadata, or ErrNotFound /
// ErrNotDirectory.
func (m *Mount) Stat(path string) (fs.FileInfo, error) {
	ino, err := m.Resolve(path)
	if err != nil {
		return nil, err
	}
	return &fileInfo{name: baseName(path), ino: ino}, nil
}

// GetAttr returns the go-fuse-facing attribute view of an already-resolved
// inode.
func (m *Mount) GetAttr(ino *Inode) Attr {
	return Attr{
		Size:   ino.Size,
		Blocks: uint64(ino.Blocks),
		Mode:   ino.FileMode(),
		Links:  uint32(ino.LinksCount),
		Atime:  time.Unix(int64(ino.ATime), 0),
		Mtime:  time.Unix(int64(ino.MTime), 0),
		Ctime:  time.Unix(int64(ino.CTime), 0),
	}
}

// baseName returns the final slash-separated component of path, matching
// path.Base without pulling in the path package's extra dot-handling (ext2
// names never contain '.' segments beyond the literal entries "." and ".."
// a directory's own data already carries).
func baseName(p string) string {
	if p == "" {
		return "."
	}
	i := len(p) - 1
	for i >= 0 && p[i] == '/' {
		i--
	}
	end := i + 1
	for i >= 0 && p[i] != '/' {
		i--
	}
	start := i + 1
	if start >= end {
		return "/"
	}
	return p[start:end]
}

// The following operations exist solely to satisfy a read-only
// filesystem's mutating surface; every one of them returns ErrReadOnly
// unconditionally, matching original_source/10-ext2-fuse/solution.c's
// ext2_mknod/ext2_mkdir/ext2_write, which return -EROFS without even
// inspecting their arguments.

// Mknod always fails: the filesystem never accepts writes.
func (m *Mount) Mknod() error { return ErrReadOnly }

// Mkdir always fails: the filesystem never accepts writes.
func (m *Mount) Mkdir() error { return ErrReadOnly }

// Write always fails: the filesystem never accepts writes.
func (m *Mount) Write() error { return ErrReadOnly }
