package fsnode

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"syscall"
	"testing"

	"github.com/hanwen/go-fuse/v2/fuse"
	"golang.org/x/sys/unix"

	"github.com/go-ext2fs/ext2fs"
)

func TestToErrno(t *testing.T) {
	cases := []struct {
		err  error
		want syscall.Errno
	}{
		{nil, 0},
		{ext2fs.ErrNotFound, syscall.ENOENT},
		{ext2fs.ErrNotDirectory, syscall.ENOTDIR},
		{ext2fs.ErrIsDirectory, syscall.EISDIR},
		{ext2fs.ErrReadOnly, syscall.EROFS},
		{errors.New("something else"), syscall.EIO},
	}
	for _, c := range cases {
		if got := toErrno(c.err); got != c.want {
			t.Errorf("toErrno(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestFileModeTypeToSyscallMatchesDirEntryMapping(t *testing.T) {
	// Mirrors dir.go's DirEntry.Type() 7-way mapping (dirTypeDir,
	// dirTypeSymlink, dirTypeCharDev, dirTypeBlockDev, dirTypeFIFO,
	// dirTypeSocket, and the regular/unknown default), so that readdir
	// never collapses device/FIFO/socket/symlink entries to S_IFREG.
	cases := []struct {
		mode fs.FileMode
		want uint32
	}{
		{fs.ModeDir, syscall.S_IFDIR},
		{fs.ModeSymlink, syscall.S_IFLNK},
		{fs.ModeDevice | fs.ModeCharDevice, syscall.S_IFCHR},
		{fs.ModeDevice, syscall.S_IFBLK},
		{fs.ModeNamedPipe, syscall.S_IFIFO},
		{fs.ModeSocket, syscall.S_IFSOCK},
		{0, syscall.S_IFREG},
	}
	for _, c := range cases {
		if got := fileModeTypeToSyscall(c.mode); got != c.want {
			t.Errorf("fileModeTypeToSyscall(%v) = %#o, want %#o", c.mode, got, c.want)
		}
	}
}

func TestRootOpensFixtureImage(t *testing.T) {
	// A minimal valid superblock is enough to exercise Root(): it only
	// needs to load the root inode, not a full directory tree.
	img := make([]byte, 8192)
	// s_inodes_per_group must be non-zero or Root's loadInode divides by zero.
	le32(img[1024+40:], 32)
	le16(img[1024+88:], 128)

	m, err := ext2fs.New(bytes.NewReader(img))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	root, err := Root(m)
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if root.ino.Number != 2 {
		t.Fatalf("root inode number = %d, want 2", root.ino.Number)
	}
}

// buildMinimalImage builds the same minimal single-inode image
// TestRootOpensFixtureImage uses, with inode 2's mode field set to mode, so
// Open's directory-vs-O_DIRECTORY check can be exercised against a root
// inode of a controlled type.
func buildMinimalImage(t *testing.T, mode uint16) *ext2fs.Mount {
	t.Helper()
	img := make([]byte, 8192)
	le32(img[1024+40:], 32)
	le16(img[1024+88:], 128)
	le16(img[128:], mode) // inode 2's i_mode, at offset 0 of its 128-byte record

	m, err := ext2fs.New(bytes.NewReader(img))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestOpenDirectoryWithoutODirectoryFails(t *testing.T) {
	m := buildMinimalImage(t, 0040755)
	root, err := Root(m)
	if err != nil {
		t.Fatalf("Root: %v", err)
	}

	_, _, errno := root.Open(context.Background(), 0)
	if errno != syscall.EISDIR {
		t.Fatalf("Open(dir, flags=0) errno = %v, want EISDIR", errno)
	}
}

func TestOpenDirectoryWithODirectorySucceeds(t *testing.T) {
	m := buildMinimalImage(t, 0040755)
	root, err := Root(m)
	if err != nil {
		t.Fatalf("Root: %v", err)
	}

	_, _, errno := root.Open(context.Background(), unix.O_DIRECTORY)
	if errno != 0 {
		t.Fatalf("Open(dir, O_DIRECTORY) errno = %v, want 0", errno)
	}
}

func TestOpenDirectoryTakesPrecedenceOverWriteFlags(t *testing.T) {
	m := buildMinimalImage(t, 0040755)
	root, err := Root(m)
	if err != nil {
		t.Fatalf("Root: %v", err)
	}

	// O_DIRECTORY is absent and O_WRONLY is set: the directory check must
	// still win, reporting EISDIR rather than EROFS, matching
	// ext2_open's check ordering.
	_, _, errno := root.Open(context.Background(), unix.O_WRONLY)
	if errno != syscall.EISDIR {
		t.Fatalf("Open(dir, O_WRONLY) errno = %v, want EISDIR", errno)
	}
}

func TestOpenRegularFileRejectsWrite(t *testing.T) {
	m := buildMinimalImage(t, 0100644)
	root, err := Root(m)
	if err != nil {
		t.Fatalf("Root: %v", err)
	}

	_, _, errno := root.Open(context.Background(), unix.O_WRONLY)
	if errno != syscall.EROFS {
		t.Fatalf("Open(file, O_WRONLY) errno = %v, want EROFS", errno)
	}
}

func TestOpenRegularFileReadOnlySucceeds(t *testing.T) {
	m := buildMinimalImage(t, 0100644)
	root, err := Root(m)
	if err != nil {
		t.Fatalf("Root: %v", err)
	}

	_, _, errno := root.Open(context.Background(), 0)
	if errno != 0 {
		t.Fatalf("Open(file, flags=0) errno = %v, want 0", errno)
	}
}

func TestGetattrPopulatesBlocks(t *testing.T) {
	img := make([]byte, 8192)
	le32(img[1024+40:], 32)
	le16(img[1024+88:], 128)
	le16(img[128:], 0040755) // inode 2's i_mode
	le32(img[128+28:], 6)    // inode 2's i_blocks_lo: 6 sectors

	m, err := ext2fs.New(bytes.NewReader(img))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	root, err := Root(m)
	if err != nil {
		t.Fatalf("Root: %v", err)
	}

	var out fuse.AttrOut
	if errno := root.Getattr(context.Background(), nil, &out); errno != 0 {
		t.Fatalf("Getattr errno = %v, want 0", errno)
	}
	if out.Blocks != 6 {
		t.Fatalf("Getattr out.Blocks = %d, want 6", out.Blocks)
	}
}

func le32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func le16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}
