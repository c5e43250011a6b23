package ext2

import (
	"io"
	"io/fs"
)

// Directory entry file-type tags (ext2_dir_entry_2.file_type), valid when
// the filesystem carries the incompat feature advertising typed entries.
// This reader trusts the byte unconditionally, as spec.md's directory
// component does not gate on the incompat feature bit.
const (
	dirTypeUnknown  = 0
	dirTypeRegular  = 1
	dirTypeDir      = 2
	dirTypeCharDev  = 3
	dirTypeBlockDev = 4
	dirTypeFIFO     = 5
	dirTypeSocket   = 6
	dirTypeSymlink  = 7
)

// dirEntryHeaderSize is the fixed leading portion of one ext2_dir_entry_2
// record, before the variable-length name: inode(4) + rec_len(2) +
// name_len(1) + file_type(1).
const dirEntryHeaderSize = 8

// DirEntry is one decoded directory record. It implements io/fs.DirEntry.
type DirEntry struct {
	name     string
	ino      uint32
	fileType uint8

	r  io.ReaderAt
	sb *Superblock
}

var _ fs.DirEntry = (*DirEntry)(nil)

// Info loads the entry's inode and returns its fs.FileInfo, satisfying
// fs.DirEntry. Unlike Name/IsDir/Type, this performs an image read.
func (e *DirEntry) Info() (fs.FileInfo, error) {
	ino, err := loadInode(e.r, e.sb, e.ino)
	if err != nil {
		return nil, err
	}
	return &fileInfo{name: e.name, ino: ino}, nil
}

// Name returns the entry's file name.
func (e *DirEntry) Name() string { return e.name }

// InodeNumber returns the inode this entry refers to.
func (e *DirEntry) InodeNumber() uint32 { return e.ino }

// IsDir reports whether the entry's on-disk type tag marks it a directory.
func (e *DirEntry) IsDir() bool { return e.fileType == dirTypeDir }

// Type returns the io/fs type bits derivable from the directory record
// alone (no inode load required), satisfying fs.DirEntry.
func (e *DirEntry) Type() fs.FileMode {
	switch e.fileType {
	case dirTypeDir:
		return fs.ModeDir
	case dirTypeSymlink:
		return fs.ModeSymlink
	case dirTypeCharDev:
		return fs.ModeDevice | fs.ModeCharDevice
	case dirTypeBlockDev:
		return fs.ModeDevice
	case dirTypeFIFO:
		return fs.ModeNamedPipe
	case dirTypeSocket:
		return fs.ModeSocket
	default:
		return 0
	}
}

// dirIter scans the directory records of one inode's data blocks in
// sequence, block by block, the lazy sequence both path resolution and
// readdir consume (spec.md §9's "shared scan" design note).
type dirIter struct {
	r     io.ReaderAt
	sb    *Superblock
	inode *Inode

	walker *blockWalker

	block     []byte // current logical block's raw bytes
	blockPos  int     // read offset within block
	lb        uint64  // next logical block index to load
	totalSize uint64  // inode.Size, the scan's upper bound
	done      bool
}

// newDirIter starts a fresh scan of inode's directory entries.
func newDirIter(r io.ReaderAt, sb *Superblock, inode *Inode) *dirIter {
	return &dirIter{
		r:         r,
		sb:        sb,
		inode:     inode,
		walker:    newBlockWalker(r, sb, inode),
		totalSize: inode.Size,
	}
}

// loadNextBlock pulls the next logical data block into it.block, or
// reports io.EOF once the directory's logical size is exhausted.
func (it *dirIter) loadNextBlock() error {
	blockSize := uint64(it.sb.BlockSize())
	if it.lb*blockSize >= it.totalSize {
		return io.EOF
	}
	ref, err := it.walker.at(it.lb)
	if err != nil {
		return err
	}
	block, err := readDataBlock(it.r, it.sb, ref)
	if err != nil {
		return err
	}
	it.block = block
	it.blockPos = 0
	it.lb++
	return nil
}

// next returns the next non-deleted directory record, or io.EOF once the
// directory has been fully scanned.
func (it *dirIter) next() (*DirEntry, error) {
	if it.done {
		return nil, io.EOF
	}
	for {
		if it.block == nil || it.blockPos+dirEntryHeaderSize > len(it.block) {
			if err := it.loadNextBlock(); err != nil {
				it.done = true
				return nil, err
			}
		}

		b := it.block
		p := it.blockPos

		ino := le32(b[p:])
		recLen := le16(b[p+4:])
		nameLen := int(b[p+6])
		fileType := b[p+7]

		// rec_len == 0 marks the end of this block's records. A rec_len
		// shorter than the fixed header is never valid either; treat it
		// the same way rather than trusting a corrupt stride.
		if recLen == 0 || int(recLen) < dirEntryHeaderSize {
			it.block = nil
			continue
		}

		nameStart := p + dirEntryHeaderSize
		nameEnd := nameStart + nameLen
		if nameEnd > len(b) {
			// A name trailing off the end of the block is corrupt input;
			// stop scanning this block rather than read out of bounds.
			it.block = nil
			continue
		}
		name := string(b[nameStart:nameEnd])

		it.blockPos = p + int(recLen)

		if ino == 0 {
			// Deleted entry: skip it and keep scanning.
			continue
		}

		return &DirEntry{name: name, ino: ino, fileType: fileType, r: it.r, sb: it.sb}, nil
	}
}

// readDir collects up to n entries (all of them, if n <= 0) from inode's
// directory data.
func readDir(r io.ReaderAt, sb *Superblock, inode *Inode, n int) ([]*DirEntry, error) {
	it := newDirIter(r, sb, inode)
	var res []*DirEntry
	for {
		entry, err := it.next()
		if err != nil {
			if err == io.EOF {
				return res, nil
			}
			return res, err
		}
		res = append(res, entry)
		if n > 0 && len(res) >= n {
			return res, nil
		}
	}
}

// lookupInDir scans inode's directory data for name, returning its entry
// or ErrNotFound.
func lookupInDir(r io.ReaderAt, sb *Superblock, inode *Inode, name string) (*DirEntry, error) {
	it := newDirIter(r, sb, inode)
	for {
		entry, err := it.next()
		if err != nil {
			if err == io.EOF {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if entry.name == name {
			return entry, nil
		}
	}
}

func le16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
