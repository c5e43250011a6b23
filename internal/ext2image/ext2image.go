// Package ext2image builds small, synthetic in-memory ext2 images for use
// as test fixtures: byte-exact superblocks, group descriptors, inodes and
// directory blocks, assembled the way the package's own tests need them
// rather than by reading a real checked-in image (none is available in this
// exercise), mirroring the teacher's own hand-built fixture style in
// mock_test.go / squashfs_components_test.go.
package ext2image

import "encoding/binary"

const (
	// BlockSize is the fixed block size every builder-produced image uses.
	// 1024 is the smallest legal ext2 block size and keeps fixtures small.
	BlockSize = 1024

	superblockOffset = 1024
	groupDescSize    = 32
	inodeSize        = 128

	// Fixed block layout: block 0 is the unused boot block, block 1 holds
	// the superblock, block 2 the (single) group descriptor, block 3 the
	// inode table. Data blocks are allocated starting at block
	// firstDataBlock plus the inode table's length in blocks (see New).
	blockBoot      = 0
	blockSuper     = 1
	blockGroupDesc = 2
	blockInodeTable = 3
	firstDataBlock  = 4
)

// Builder assembles one single-group ext2 image.
type Builder struct {
	inodesPerGroup uint32
	inodeTableBlocks uint32

	blocks map[uint32][]byte
	next   uint32

	inodesCount uint32
}

// New starts a builder for an image with room for inodesPerGroup inodes in
// its single block group.
func New(inodesPerGroup uint32) *Builder {
	inodeTableBytes := inodesPerGroup * inodeSize
	inodeTableBlocks := (inodeTableBytes + BlockSize - 1) / BlockSize

	return &Builder{
		inodesPerGroup:   inodesPerGroup,
		inodeTableBlocks: inodeTableBlocks,
		blocks:           make(map[uint32][]byte),
		next:             firstDataBlock + inodeTableBlocks,
		inodesCount:      inodesPerGroup,
	}
}

// AllocBlock reserves the next free data block and returns its number. The
// block starts zero-filled; use SetBlock to fill it.
func (b *Builder) AllocBlock() uint32 {
	n := b.next
	b.next++
	return n
}

// SetBlock records the raw content of block n, padding with zeros up to
// BlockSize.
func (b *Builder) SetBlock(n uint32, data []byte) {
	buf := make([]byte, BlockSize)
	copy(buf, data)
	b.blocks[n] = buf
}

// WriteInode writes inode record number ino (1-based) into the inode
// table. mode, size, the 512-byte-sector block count and the 15-entry
// block pointer array are the only fields this reader's tests need to
// control; the rest of the record is left zero.
func (b *Builder) WriteInode(ino uint32, mode uint16, linksCount uint16, size uint64, blocks512 uint32, block [15]uint32) {
	rec := make([]byte, inodeSize)
	binary.LittleEndian.PutUint16(rec[0:], mode)
	binary.LittleEndian.PutUint32(rec[4:], uint32(size)) // i_size_lo
	binary.LittleEndian.PutUint16(rec[26:], linksCount)
	binary.LittleEndian.PutUint32(rec[28:], blocks512) // i_blocks_lo
	for i, ptr := range block {
		binary.LittleEndian.PutUint32(rec[40+i*4:], ptr)
	}
	binary.LittleEndian.PutUint32(rec[108:], uint32(size>>32)) // i_size_high

	index := ino - 1 // single group: local index == (ino-1) % inodesPerGroup == ino-1
	offset := index * inodeSize

	tableBlock := offset / BlockSize
	tableOffset := offset % BlockSize

	buf, ok := b.blocks[blockInodeTable+tableBlock]
	if !ok {
		buf = make([]byte, BlockSize)
	}
	copy(buf[tableOffset:], rec)
	b.blocks[blockInodeTable+tableBlock] = buf
}

// DirEntry is one record to pack into a directory data block via PackDir.
type DirEntry struct {
	Inode    uint32
	Name     string
	FileType uint8
}

// PackDir encodes entries as a sequence of ext2_dir_entry_2 records filling
// exactly one block, the last entry's rec_len stretching to the block's
// end the way mkfs does.
func PackDir(entries []DirEntry) []byte {
	buf := make([]byte, BlockSize)
	pos := 0
	for i, e := range entries {
		nameLen := len(e.Name)
		recLen := 8 + nameLen
		recLen = (recLen + 3) &^ 3 // 4-byte align, as ext2 requires
		if i == len(entries)-1 {
			recLen = BlockSize - pos
		}

		binary.LittleEndian.PutUint32(buf[pos:], e.Inode)
		binary.LittleEndian.PutUint16(buf[pos+4:], uint16(recLen))
		buf[pos+6] = uint8(nameLen)
		buf[pos+7] = e.FileType
		copy(buf[pos+8:], e.Name)

		pos += recLen
	}
	return buf
}

// PackIndirect encodes an indirect (or double-indirect outer/inner) block's
// pointer table: one little-endian uint32 per slot, entries absent from
// refs left zero (a hole).
func PackIndirect(refs map[int]uint32) []byte {
	buf := make([]byte, BlockSize)
	for i, ref := range refs {
		off := i * 4
		binary.LittleEndian.PutUint32(buf[off:], ref)
	}
	return buf
}

// Superblock fields the tests sometimes need to override from their
// single-group defaults.
type SuperblockOverrides struct {
	BlocksCount *uint32
}

// Bytes assembles the final image: superblock, the single group
// descriptor, and every block recorded via SetBlock or WriteInode.
func (b *Builder) Bytes() []byte {
	maxBlock := b.next - 1
	for n := range b.blocks {
		if n > maxBlock {
			maxBlock = n
		}
	}

	img := make([]byte, (maxBlock+1)*BlockSize)

	sb := make([]byte, 104)
	binary.LittleEndian.PutUint32(sb[0:], b.inodesCount)  // s_inodes_count
	binary.LittleEndian.PutUint32(sb[4:], b.next*4)       // s_blocks_count, generous upper bound
	binary.LittleEndian.PutUint32(sb[24:], 0)             // s_log_block_size: 1024 << 0 == 1024
	binary.LittleEndian.PutUint32(sb[40:], b.inodesPerGroup) // s_inodes_per_group
	binary.LittleEndian.PutUint16(sb[88:], inodeSize)     // s_inode_size
	copy(img[superblockOffset:], sb)

	gd := make([]byte, groupDescSize)
	binary.LittleEndian.PutUint32(gd[8:], blockInodeTable) // bg_inode_table
	copy(img[blockGroupDesc*BlockSize:], gd)

	for n, data := range b.blocks {
		copy(img[n*BlockSize:], data)
	}

	return img
}
