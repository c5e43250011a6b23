package ext2

import (
	"bytes"
	"encoding/binary"
	"io"
)

// SuperblockOffset is the fixed absolute byte offset of the ext2 superblock.
const SuperblockOffset = 1024

// superblockRecordSize is sizeof(struct ext2_super_block) on disk: the
// superblock record is always padded to fill a 1024-byte region, regardless
// of how many of its trailing fields this reader actually decodes. The
// group descriptor table immediately follows at this stride (spec.md §6).
const superblockRecordSize = 1024

// rootInodeNumber is the inode number of the filesystem root, by convention.
const rootInodeNumber = 2

// rawSuperblock mirrors the leading 0x68 bytes of the on-disk ext2
// superblock, little-endian, in wire order. Fields past
// s_feature_ro_compat are never read: this reader performs no
// magic-number or revision-level validation (per spec) and needs nothing
// beyond block size, inode layout and the two bookkeeping counts Probe
// reports.
type rawSuperblock struct {
	InodesCount     uint32
	BlocksCount     uint32
	ReservedBlocks  uint32
	FreeBlocksCount uint32
	FreeInodesCount uint32
	FirstDataBlock  uint32
	LogBlockSize    uint32
	LogFragSize     uint32
	BlocksPerGroup  uint32
	FragsPerGroup   uint32
	InodesPerGroup  uint32
	MountTime       uint32
	WriteTime       uint32
	MountCount      uint16
	MaxMountCount   uint16
	Magic           uint16
	State           uint16
	Errors          uint16
	MinorRevLevel   uint16
	LastCheck       uint32
	CheckInterval   uint32
	CreatorOS       uint32
	RevLevel        uint32
	DefResuid       uint16
	DefResgid       uint16
	FirstIno        uint32
	InodeSize       uint16
	BlockGroupNr    uint16
	FeatureCompat   uint32
	FeatureIncompat uint32
	FeatureROCompat uint32
}

// Superblock holds the ext2 global parameters materialised once at mount.
// It is immutable after LoadSuperblock and safe to share across concurrent requests.
type Superblock struct {
	inodesCount    uint32
	blocksCount    uint32
	logBlockSize   uint32
	inodesPerGroup uint32
	inodeSize      uint32
}

// LoadSuperblock reads and decodes the superblock at its fixed offset.
func LoadSuperblock(r io.ReaderAt) (*Superblock, error) {
	buf := make([]byte, binary.Size(rawSuperblock{}))
	n, err := readExactAt(r, buf, SuperblockOffset)
	if err != nil {
		return nil, err
	}
	if n != len(buf) {
		return nil, io.ErrUnexpectedEOF
	}

	var raw rawSuperblock
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &raw); err != nil {
		return nil, err
	}

	return &Superblock{
		inodesCount:    raw.InodesCount,
		blocksCount:    raw.BlocksCount,
		logBlockSize:   raw.LogBlockSize,
		inodesPerGroup: raw.InodesPerGroup,
		inodeSize:      uint32(raw.InodeSize),
	}, nil
}

// BlockSize returns the filesystem block size in bytes: 1024 << s_log_block_size.
func (sb *Superblock) BlockSize() uint32 {
	return 1024 << sb.logBlockSize
}

// InodeSize returns the on-disk stride of one inode record.
func (sb *Superblock) InodeSize() uint32 {
	return sb.inodeSize
}

// groupAndIndex splits a 1-based inode number into its block group index
// and the inode's local (0-based) index within that group's inode table.
func (sb *Superblock) groupAndIndex(ino uint32) (group, index uint32) {
	group = (ino - 1) / sb.inodesPerGroup
	index = (ino - 1) % sb.inodesPerGroup
	return
}
