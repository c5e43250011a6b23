package ext2

import "io"

// readFile reads up to len(dst) bytes from inode's logical data starting at
// offset, clamping to the inode's i_size. This is the POSIX-style
// read-past-EOF convention spec.md §9 resolves in favor of: a read starting
// at or past EOF returns (0, nil), and a read crossing EOF returns only the
// bytes that exist, never a buffer padded out with synthetic zeros beyond
// i_size. Holes strictly inside the file still read as zero, via block.go.
func readFile(r io.ReaderAt, sb *Superblock, inode *Inode, offset uint64, dst []byte) (int, error) {
	if offset >= inode.Size {
		return 0, nil
	}

	want := uint64(len(dst))
	if remaining := inode.Size - offset; want > remaining {
		want = remaining
	}

	if err := readLogicalRange(r, sb, inode, offset, dst[:want]); err != nil {
		return 0, err
	}
	return int(want), nil
}
