package ext2

import (
	"io"
	"os"
)

// Mount is an opened ext2 image: the superblock and the backing handle,
// set once and never mutated afterward. It is the opaque context every
// other operation in this package is a method of, replacing the
// module-level globals original_source/10-ext2-fuse keeps for the same
// three values (superblock, block size, image handle).
type Mount struct {
	r  io.ReaderAt
	sb *Superblock

	closer io.Closer
}

// New opens an ext2 image from r, reading just enough of the superblock to
// serve every later operation. r is never written to.
func New(r io.ReaderAt) (*Mount, error) {
	sb, err := LoadSuperblock(r)
	if err != nil {
		return nil, err
	}
	return &Mount{r: r, sb: sb}, nil
}

// Open opens the image file at path and constructs a Mount over it. The
// returned Mount's Close releases the underlying file descriptor.
func Open(path string) (*Mount, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	m, err := New(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	m.closer = f
	return m, nil
}

// Close releases the image handle, if Open (rather than New) created it.
func (m *Mount) Close() error {
	if m.closer == nil {
		return nil
	}
	return m.closer.Close()
}

// Superblock returns the mount's decoded superblock.
func (m *Mount) Superblock() *Superblock { return m.sb }

// Root returns the filesystem's root directory inode.
func (m *Mount) Root() (*Inode, error) {
	return loadInode(m.r, m.sb, rootInodeNumber)
}

// Resolve walks path from the root and returns the inode it names, or
// ErrNotFound / ErrNotDirectory.
func (m *Mount) Resolve(path string) (*Inode, error) {
	return resolvePath(m.r, m.sb, path)
}

// ReadAt reads up to len(dst) bytes of inode's logical data starting at
// offset, clamped to the inode's size. See readFile for the EOF contract.
func (m *Mount) ReadAt(inode *Inode, offset uint64, dst []byte) (int, error) {
	return readFile(m.r, m.sb, inode, offset, dst)
}

// ReadDir lists up to n entries of a directory inode (all of them if
// n <= 0). It returns ErrNotDirectory if inode is not a directory.
func (m *Mount) ReadDir(inode *Inode, n int) ([]*DirEntry, error) {
	if !inode.IsDir() {
		return nil, ErrNotDirectory
	}
	return readDir(m.r, m.sb, inode, n)
}

// Lookup resolves one child name within a directory inode.
func (m *Mount) Lookup(dir *Inode, name string) (*Inode, error) {
	return lookupChild(m.r, m.sb, dir, name)
}

// Inode loads an inode by number directly, bypassing path resolution.
func (m *Mount) Inode(ino uint32) (*Inode, error) {
	return loadInode(m.r, m.sb, ino)
}
