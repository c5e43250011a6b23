// Package fsnode bridges an ext2.Mount to github.com/hanwen/go-fuse/v2/fs,
// the modern InodeEmbedder-based node API. It discovers the tree lazily
// through Lookup/Readdir rather than building it eagerly, matching how a
// real filesystem can outgrow memory; the teacher's own FUSE bridge
// predates this API and builds against the legacy raw nodeId interface
// instead (see DESIGN.md).
package fsnode

import (
	"context"
	"errors"
	iofs "io/fs"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"golang.org/x/sys/unix"

	"github.com/go-ext2fs/ext2fs"
)

// Node is one directory or file in the FUSE tree, backed by an ext2 inode.
type Node struct {
	fs.Inode

	mount *ext2fs.Mount
	ino   *ext2fs.Inode
}

var (
	_ fs.InodeEmbedder = (*Node)(nil)
	_ fs.NodeLookuper  = (*Node)(nil)
	_ fs.NodeGetattrer = (*Node)(nil)
	_ fs.NodeOpener    = (*Node)(nil)
	_ fs.NodeReader    = (*Node)(nil)
	_ fs.NodeOpendirer = (*Node)(nil)
	_ fs.NodeReaddirer = (*Node)(nil)
	_ fs.NodeMkdirer   = (*Node)(nil)
	_ fs.NodeMknoder   = (*Node)(nil)
)

// stableAttrFor derives the fs.StableAttr (inode number, type bits) the
// go-fuse tree-node cache keys nodes on.
func stableAttrFor(ino *ext2fs.Inode) fs.StableAttr {
	return fs.StableAttr{
		Ino:  uint64(ino.Number),
		Mode: modeTypeToSyscall(ino),
	}
}

// modeTypeToSyscall maps an inode's type to the S_IFxxx constant go-fuse
// expects in StableAttr.Mode's top bits.
func modeTypeToSyscall(ino *ext2fs.Inode) uint32 {
	return fileModeTypeToSyscall(ino.FileMode().Type())
}

// fileModeTypeToSyscall maps an io/fs type bit pattern to its S_IFxxx
// constant. The case set mirrors dir.go's DirEntry.Type(), the 7-way
// on-disk file_type mapping (unknown/regular collapse to the same
// S_IFREG default both there and here).
func fileModeTypeToSyscall(t iofs.FileMode) uint32 {
	switch t {
	case iofs.ModeDir:
		return syscall.S_IFDIR
	case iofs.ModeSymlink:
		return syscall.S_IFLNK
	case iofs.ModeDevice | iofs.ModeCharDevice:
		return syscall.S_IFCHR
	case iofs.ModeDevice:
		return syscall.S_IFBLK
	case iofs.ModeNamedPipe:
		return syscall.S_IFIFO
	case iofs.ModeSocket:
		return syscall.S_IFSOCK
	default:
		return syscall.S_IFREG
	}
}

// Root constructs the root node of the tree for fs.Mount.
func Root(m *ext2fs.Mount) (*Node, error) {
	rootIno, err := m.Root()
	if err != nil {
		return nil, err
	}
	return &Node{mount: m, ino: rootIno}, nil
}

// fillAttrOut populates out from ino's attributes, including the caller's
// uid/gid taken from the FUSE request context: ext2 inodes here never carry
// stored ownership (ext2fs.Inode has no uid/gid fields), mirroring
// original_source/10-ext2-fuse/solution.c's use of fuse_get_context()'s
// uid/gid rather than any on-disk field.
func fillAttrOut(ctx context.Context, m *ext2fs.Mount, ino *ext2fs.Inode, out *fuse.AttrOut) {
	a := m.GetAttr(ino)
	out.Ino = uint64(ino.Number)
	out.Size = a.Size
	out.Blocks = a.Blocks
	out.Mode = uint32(a.Mode.Perm()) | modeTypeToSyscall(ino)
	out.Nlink = a.Links
	out.SetTimes(&a.Atime, &a.Mtime, &a.Ctime)
	if caller, ok := fuse.FromContext(ctx); ok {
		out.Owner = caller.Owner
	}
}

// Getattr populates out from the backing inode's attributes.
func (n *Node) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	fillAttrOut(ctx, n.mount, n.ino, out)
	return 0
}

// Lookup resolves a single child name within this directory node.
func (n *Node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	child, err := n.mount.Lookup(n.ino, name)
	if err != nil {
		return nil, toErrno(err)
	}
	fillAttrOut(ctx, n.mount, child, out)
	childNode := &Node{mount: n.mount, ino: child}
	return n.NewInode(ctx, childNode, stableAttrFor(child)), 0
}

// Open allows reading an already-resolved regular file. The image is
// read-only so the kernel may freely cache opened file contents. Mirrors
// original_source/10-ext2-fuse/solution.c's ext2_open: the directory check
// runs before the write-intent check, so opening a directory without
// O_DIRECTORY reports EISDIR even if O_WRONLY/O_RDWR is also set.
func (n *Node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if n.ino.IsDir() && flags&unix.O_DIRECTORY == 0 {
		return nil, 0, syscall.EISDIR
	}
	if flags&(unix.O_WRONLY|unix.O_RDWR) != 0 {
		return nil, 0, syscall.EROFS
	}
	return nil, fuse.FOPEN_KEEP_CACHE, 0
}

// Read serves a positional read directly from the backing image via the
// core package's EOF-clamped read service.
func (n *Node) Read(ctx context.Context, f fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	read, err := n.mount.ReadAt(n.ino, uint64(off), dest)
	if err != nil {
		return nil, toErrno(err)
	}
	return fuse.ReadResultData(dest[:read]), 0
}

// Opendir allows opening any directory node for Readdir; no further
// permission check is made beyond ext2's own type bit.
func (n *Node) Opendir(ctx context.Context) syscall.Errno {
	if !n.ino.IsDir() {
		return syscall.ENOTDIR
	}
	return 0
}

// Readdir lists this directory's entries in on-disk order, including the
// "." and ".." records the directory data itself carries.
func (n *Node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	entries, err := n.mount.ReadDir(n.ino, 0)
	if err != nil {
		return nil, toErrno(err)
	}
	return newDirStream(entries), 0
}

// Mkdir always fails: the filesystem never accepts writes.
func (n *Node) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	return nil, syscall.EROFS
}

// Mknod always fails: the filesystem never accepts writes.
func (n *Node) Mknod(ctx context.Context, name string, mode, dev uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	return nil, syscall.EROFS
}

// dirStream adapts a []*ext2fs.DirEntry slice to fs.DirStream.
type dirStream struct {
	entries []*ext2fs.DirEntry
	pos     int
}

func newDirStream(entries []*ext2fs.DirEntry) *dirStream {
	return &dirStream{entries: entries}
}

func (s *dirStream) HasNext() bool {
	return s.pos < len(s.entries)
}

func (s *dirStream) Next() (fuse.DirEntry, syscall.Errno) {
	e := s.entries[s.pos]
	s.pos++
	mode := fileModeTypeToSyscall(e.Type())
	return fuse.DirEntry{Ino: uint64(e.InodeNumber()), Name: e.Name(), Mode: mode}, 0
}

func (s *dirStream) Close() {}

// toErrno translates a core sentinel error to the syscall.Errno go-fuse
// expects; this translation happens only at this boundary (DESIGN.md).
func toErrno(err error) syscall.Errno {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ext2fs.ErrNotFound):
		return syscall.ENOENT
	case errors.Is(err, ext2fs.ErrNotDirectory):
		return syscall.ENOTDIR
	case errors.Is(err, ext2fs.ErrIsDirectory):
		return syscall.EISDIR
	case errors.Is(err, ext2fs.ErrReadOnly):
		return syscall.EROFS
	default:
		return syscall.EIO
	}
}
