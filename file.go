package ext2

import (
	"io"
	"io/fs"
)

// FS adapts a Mount to io/fs.FS, letting the CLI's ls/cat/dump subcommands
// (and anything else that only needs read access) use the standard
// library's fs helpers instead of calling Mount's own methods directly.
type FS struct {
	m *Mount
}

var _ fs.FS = (*FS)(nil)
var _ fs.StatFS = (*FS)(nil)

// NewFS wraps m as an io/fs.FS.
func NewFS(m *Mount) *FS { return &FS{m: m} }

// Open implements fs.FS. The returned value implements fs.ReadDirFile when
// name names a directory.
func (f *FS) Open(name string) (fs.File, error) {
	ino, err := f.m.Resolve(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	if ino.IsDir() {
		return &dirFile{m: f.m, name: name, ino: ino}, nil
	}
	return &regularFile{m: f.m, name: name, ino: ino}, nil
}

// Stat implements fs.StatFS.
func (f *FS) Stat(name string) (fs.FileInfo, error) {
	fi, err := f.m.Stat(name)
	if err != nil {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: err}
	}
	return fi, nil
}

// regularFile is an fs.File view over a regular-file inode, tracking a
// read cursor the way os.File does.
type regularFile struct {
	m    *Mount
	name string
	ino  *Inode
	pos  uint64
}

var _ fs.File = (*regularFile)(nil)

func (rf *regularFile) Stat() (fs.FileInfo, error) {
	return &fileInfo{name: baseName(rf.name), ino: rf.ino}, nil
}

func (rf *regularFile) Read(p []byte) (int, error) {
	n, err := rf.m.ReadAt(rf.ino, rf.pos, p)
	rf.pos += uint64(n)
	if err == nil && n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, err
}

func (rf *regularFile) Close() error { return nil }

// dirFile is an fs.ReadDirFile view over a directory inode.
type dirFile struct {
	m    *Mount
	name string
	ino  *Inode
	it   *dirIter
}

var _ fs.ReadDirFile = (*dirFile)(nil)

func (df *dirFile) Stat() (fs.FileInfo, error) {
	return &fileInfo{name: baseName(df.name), ino: df.ino}, nil
}

func (df *dirFile) Read([]byte) (int, error) {
	return 0, fs.ErrInvalid
}

func (df *dirFile) Close() error {
	df.it = nil
	return nil
}

func (df *dirFile) ReadDir(n int) ([]fs.DirEntry, error) {
	if df.it == nil {
		df.it = newDirIter(df.m.r, df.m.sb, df.ino)
	}
	var res []fs.DirEntry
	for {
		entry, err := df.it.next()
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
