package ext2

import (
	"io"
	"strings"
)

// resolvePath walks path (an absolute or relative slash-separated name)
// from the root inode, one component at a time. Interior components must
// be directories; the final component may be anything. Matching is exact
// and case-sensitive, per spec.md.
//
// This is an explicit loop over components rather than the recursive walk
// original_source/10-ext2-fuse/ext2wrappers.c's find_inode_by_path performs,
// per spec.md §9's design note preferring iteration to recursion for path
// resolution.
func resolvePath(r io.ReaderAt, sb *Superblock, path string) (*Inode, error) {
	cur, err := loadInode(r, sb, rootInodeNumber)
	if err != nil {
		return nil, err
	}

	name := path
	for {
		if len(name) == 0 {
			return cur, nil
		}

		pos := strings.IndexByte(name, '/')
		if pos == 0 {
			// Skip a leading or repeated slash.
			name = name[1:]
			continue
		}
		if pos == -1 {
			return lookupChild(r, sb, cur, name)
		}

		component := name[:pos]
		next, err := lookupChild(r, sb, cur, component)
		if err != nil {
			return nil, err
		}
		cur = next
		name = name[pos+1:]
	}
}

// lookupChild resolves one path component against a directory inode.
func lookupChild(r io.ReaderAt, sb *Superblock, dir *Inode, name string) (*Inode, error) {
	if !dir.IsDir() {
		return nil, ErrNotDirectory
	}
	entry, err := lookupInDir(r, sb, dir, name)
	if err != nil {
		return nil, err
	}
	return loadInode(r, sb, entry.InodeNumber())
}
