package ext2

import (
	"bytes"
	"encoding/binary"
	"io"
	"io/fs"
)

// Unix file-type bits found in i_mode's upper nibble (S_IFMT and friends).
const (
	modeTypeMask = 0xF000
	modeFIFO     = 0x1000
	modeCharDev  = 0x2000
	modeDir      = 0x4000
	modeBlockDev = 0x6000
	modeRegular  = 0x8000
	modeSymlink  = 0xA000
	modeSocket   = 0xC000
)

// directBlockCount is the number of direct block pointers in i_block (indices 0-11).
const directBlockCount = 12

// Indices into i_block for the indirect, double-indirect and (unsupported)
// triple-indirect pointers.
const (
	indirectIndex       = 12
	doubleIndirectIndex = 13
	tripleIndirectIndex = 14
)

// rawInode mirrors the leading 116 bytes of an on-disk ext2 inode record —
// everything up to and including i_faddr. The OS-dependent osd2 tail is
// never read.
type rawInode struct {
	Mode       uint16
	UID        uint16
	SizeLow    uint32
	ATime      uint32
	CTime      uint32
	MTime      uint32
	DTime      uint32
	GID        uint16
	LinksCount uint16
	BlocksLow  uint32
	Flags      uint32
	OSD1       uint32
	Block      [15]uint32
	Generation uint32
	FileACL    uint32
	SizeHigh   uint32
	FragAddr   uint32
}

// Inode is a fully-materialised ext2 inode record: the fields the read
// service, path resolver and attribute surface need.
type Inode struct {
	Number     uint32
	Mode       uint16
	LinksCount uint16
	Size       uint64
	ATime      uint32
	MTime      uint32
	CTime      uint32
	Blocks     uint32
	Block      [15]uint32
}

// loadInode materialises inode number ino (1-based) by locating its block
// group's inode table and reading the fixed-size record at the computed offset.
func loadInode(r io.ReaderAt, sb *Superblock, ino uint32) (*Inode, error) {
	group, index := sb.groupAndIndex(ino)

	gd, err := loadGroupDescriptor(r, sb, group)
	if err != nil {
		return nil, err
	}

	offset := int64(gd.InodeTable)*int64(sb.BlockSize()) + int64(index)*int64(sb.InodeSize())

	buf := make([]byte, binary.Size(rawInode{}))
	n, err := readExactAt(r, buf, offset)
	if err != nil {
		return nil, err
	}
	if n != len(buf) {
		return nil, io.ErrUnexpectedEOF
	}

	var raw rawInode
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &raw); err != nil {
		return nil, err
	}

	size := uint64(raw.SizeLow)
	// i_size_high / i_dir_acl only contributes to the logical size for
	// regular files; for every other type that word means something else
	// (e.g. the ACL block for directories) and must not be folded in.
	if raw.Mode&modeTypeMask == modeRegular {
		size |= uint64(raw.SizeHigh) << 32
	}

	return &Inode{
		Number:     ino,
		Mode:       raw.Mode,
		LinksCount: raw.LinksCount,
		Size:       size,
		ATime:      raw.ATime,
		MTime:      raw.MTime,
		CTime:      raw.CTime,
		Blocks:     raw.BlocksLow,
		Block:      raw.Block,
	}, nil
}

// IsDir reports whether the inode describes a directory.
func (i *Inode) IsDir() bool {
	return i.Mode&modeTypeMask == modeDir
}

// IsRegular reports whether the inode describes a regular file.
func (i *Inode) IsRegular() bool {
	return i.Mode&modeTypeMask == modeRegular
}

// FileMode returns the standard library's io/fs.FileMode for this inode,
// combining the ext2 type bits, permission bits and the set-uid/set-gid/
// sticky bits.
func (i *Inode) FileMode() fs.FileMode {
	return unixModeToFileMode(uint32(i.Mode))
}
