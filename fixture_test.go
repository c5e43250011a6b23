package ext2

import (
	"bytes"

	"github.com/go-ext2fs/ext2fs/internal/ext2image"
)

// Inode numbers used throughout the package tests' shared fixture image.
const (
	fixtureRootIno   = 2
	fixtureHelloIno  = 11
	fixtureSubdirIno = 12
	fixtureBigIno    = 13
	fixtureEmptyIno  = 14
	fixtureSparseIno = 15
)

const fixtureHelloContent = "hello, world!\n"

// sectorsFor returns the i_blocks value (512-byte sectors) for a file made
// of n whole filesystem blocks, matching what a real mkfs would record.
func sectorsFor(n int) uint32 {
	return uint32(n) * (ext2image.BlockSize / 512)
}

// fixtureBlockByte returns the fill byte used to mark data block n's
// content, so tests can assert which block ended up where without
// hardcoding raw bytes everywhere.
func fixtureBlockByte(n int) byte { return byte('A' + n) }

// buildFixtureImage assembles a small, multi-directory, multi-region image:
// a root directory containing a regular file, a subdirectory and an empty
// directory; a "big" file exercising the direct, hole and single-indirect
// regions together; and a "sparse" file reaching into the double-indirect
// region with holes at both the indirect-pointer and double-indirect-entry
// granularity. Every inode and block layout decision mirrors the on-disk
// offsets loadInode/loadGroupDescriptor/block.go actually decode, so the
// fixture doubles as a cross-check of those offsets without needing a real
// checked-in ext2 image.
func buildFixtureImage() []byte {
	b := ext2image.New(32)

	rootBlock := b.AllocBlock()
	b.SetBlock(rootBlock, ext2image.PackDir([]ext2image.DirEntry{
		{Inode: fixtureRootIno, Name: ".", FileType: 2},
		{Inode: fixtureRootIno, Name: "..", FileType: 2},
		{Inode: fixtureHelloIno, Name: "hello.txt", FileType: 1},
		{Inode: fixtureSubdirIno, Name: "sub", FileType: 2},
		{Inode: fixtureEmptyIno, Name: "empty", FileType: 2},
		{Inode: fixtureBigIno, Name: "big.bin", FileType: 1},
		{Inode: fixtureSparseIno, Name: "sparse.bin", FileType: 1},
	}))

	var rootBlocks [15]uint32
	rootBlocks[0] = rootBlock
	b.WriteInode(fixtureRootIno, 0040755, 2, ext2image.BlockSize, sectorsFor(1), rootBlocks)

	helloBlock := b.AllocBlock()
	helloData := make([]byte, ext2image.BlockSize)
	copy(helloData, fixtureHelloContent)
	b.SetBlock(helloBlock, helloData)

	var helloBlocks [15]uint32
	helloBlocks[0] = helloBlock
	b.WriteInode(fixtureHelloIno, 0100644, 1, uint64(len(fixtureHelloContent)), sectorsFor(1), helloBlocks)

	subBlock := b.AllocBlock()
	b.SetBlock(subBlock, ext2image.PackDir([]ext2image.DirEntry{
		{Inode: fixtureSubdirIno, Name: ".", FileType: 2},
		{Inode: fixtureRootIno, Name: "..", FileType: 2},
	}))
	var subBlocks [15]uint32
	subBlocks[0] = subBlock
	b.WriteInode(fixtureSubdirIno, 0040755, 2, ext2image.BlockSize, sectorsFor(1), subBlocks)

	emptyBlock := b.AllocBlock()
	b.SetBlock(emptyBlock, ext2image.PackDir([]ext2image.DirEntry{
		{Inode: fixtureEmptyIno, Name: ".", FileType: 2},
		{Inode: fixtureRootIno, Name: "..", FileType: 2},
	}))
	var emptyBlocks [15]uint32
	emptyBlocks[0] = emptyBlock
	b.WriteInode(fixtureEmptyIno, 0040755, 2, ext2image.BlockSize, sectorsFor(1), emptyBlocks)

	// "big.bin": 12 direct blocks (index 1 left as a hole), plus two more
	// blocks reached through a single indirect block (indices 12, 13).
	var bigBlocks [15]uint32
	allocated := 0
	for i := 0; i < directBlockCount; i++ {
		if i == 1 {
			continue // hole: leave bigBlocks[1] == 0
		}
		blk := b.AllocBlock()
		data := bytes.Repeat([]byte{fixtureBlockByte(i)}, ext2image.BlockSize)
		b.SetBlock(blk, data)
		bigBlocks[i] = blk
		allocated++
	}

	indirectRefs := map[int]uint32{}
	for _, i := range []int{12, 13} {
		blk := b.AllocBlock()
		data := bytes.Repeat([]byte{fixtureBlockByte(i)}, ext2image.BlockSize)
		b.SetBlock(blk, data)
		indirectRefs[i-directBlockCount] = blk
		allocated++
	}
	indirectBlock := b.AllocBlock()
	b.SetBlock(indirectBlock, ext2image.PackIndirect(indirectRefs))
	bigBlocks[indirectIndex] = indirectBlock
	allocated++ // the indirect block itself also occupies a block

	bigSize := uint64(14 * ext2image.BlockSize)
	b.WriteInode(fixtureBigIno, 0100644, 1, bigSize, sectorsFor(allocated), bigBlocks)

	// "sparse.bin": entirely holes through the direct and indirect regions
	// (Block[indirectIndex] == 0, so that whole pointer table is never
	// read), then logical blocks reached through double-indirection: one
	// real data block and one hole left by a zero entry in the same inner
	// table, plus a hole left by a zero outer-table entry, so both the
	// "entry is a hole" and "whole inner table is a hole" cases are covered.
	var sparseBlocks [15]uint32

	n := pointersPerBlock(ext2image.BlockSize)
	doubleStart := uint64(directBlockCount) + uint64(n)

	sparseDataBlock := b.AllocBlock()
	b.SetBlock(sparseDataBlock, bytes.Repeat([]byte{'S'}, ext2image.BlockSize))

	innerBlock := b.AllocBlock()
	b.SetBlock(innerBlock, ext2image.PackIndirect(map[int]uint32{0: sparseDataBlock}))
	// outer[1] is left absent: the whole second inner table is a hole.
	outerBlock := b.AllocBlock()
	b.SetBlock(outerBlock, ext2image.PackIndirect(map[int]uint32{0: innerBlock}))
	sparseBlocks[doubleIndirectIndex] = outerBlock

	// lb(doubleStart)   -> outer[0], inner[0] -> sparseDataBlock (real data)
	// lb(doubleStart+1) -> outer[0], inner[1] -> hole (absent from innerBlock's table)
	// lb(doubleStart+n) -> outer[1]           -> hole (absent from outerBlock's table)
	sparseSize := (doubleStart + uint64(n) + 1) * uint64(ext2image.BlockSize)
	b.WriteInode(fixtureSparseIno, 0100644, 1, sparseSize, sectorsFor(3), sparseBlocks)

	return b.Bytes()
}

func openFixture() (*Mount, error) {
	img := buildFixtureImage()
	return New(bytes.NewReader(img))
}
