// Command ext2fuse mounts a read-only ext2 image over FUSE, and provides a
// handful of inspection subcommands that work without mounting anything.
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	fusefs "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/go-ext2fs/ext2fs"
	"github.com/go-ext2fs/ext2fs/fsnode"
)

const usage = `ext2fuse - read-only ext2 image tool

Usage:
  ext2fuse mount <image> <mountpoint>   mount the image read-only (foreground)
  ext2fuse info <image>                 print superblock/group summary
  ext2fuse ls <image> [path]            list a directory (no mount required)
  ext2fuse cat <image> <path>           dump a file's contents to stdout
  ext2fuse dump <image> <path> <out>    copy a file out of the image via WriteExact
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}

	var err error
	switch args[0] {
	case "mount":
		err = runMount(args[1:])
	case "info":
		err = runInfo(args[1:])
	case "ls":
		err = runLs(args[1:])
	case "cat":
		err = runCat(args[1:])
	case "dump":
		err = runDump(args[1:])
	default:
		flag.Usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "ext2fuse: %s\n", err)
		os.Exit(1)
	}
}

func runMount(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: ext2fuse mount <image> <mountpoint>")
	}
	image, mountpoint := args[0], args[1]

	m, err := ext2fs.Open(image)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer m.Close()

	root, err := fsnode.Root(m)
	if err != nil {
		return fmt.Errorf("read root inode: %w", err)
	}

	server, err := fusefs.Mount(mountpoint, root, &fusefs.Options{
		MountOptions: fuse.MountOptions{
			FsName:     image,
			Name:       "ext2fuse",
			ReadOnly:   true,
			AllowOther: false,
		},
	})
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}

	slog.Info("mounted", "image", image, "mountpoint", mountpoint)
	server.Wait()
	slog.Info("unmounted", "mountpoint", mountpoint)
	return nil
}

func runInfo(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: ext2fuse info <image>")
	}

	m, err := ext2fs.Open(args[0])
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer m.Close()

	info := m.Info()

	fmt.Println("ext2 image information")
	fmt.Println("=======================")
	fmt.Printf("Block size:        %d bytes\n", info.BlockSize)
	fmt.Printf("Inode size:        %d bytes\n", info.InodeSize)
	fmt.Printf("Inode count:       %d\n", info.InodesCount)
	fmt.Printf("Block count:       %d\n", info.BlocksCount)
	fmt.Printf("Inodes per group:  %d\n", info.InodesPerGroup)
	fmt.Printf("Block groups:      %d\n", info.GroupCount)
	return nil
}

func runLs(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: ext2fuse ls <image> [path]")
	}
	image := args[0]
	dir := "."
	if len(args) > 1 {
		dir = args[1]
	}

	m, err := ext2fs.Open(image)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer m.Close()

	fsys := ext2fs.NewFS(m)

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read directory %q: %w", dir, err)
	}

	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: stat %q: %s\n", entry.Name(), err)
			continue
		}
		printFileInfo(entry.Name(), info)
	}
	return nil
}

func runCat(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: ext2fuse cat <image> <path>")
	}

	m, err := ext2fs.Open(args[0])
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer m.Close()

	data, err := fs.ReadFile(ext2fs.NewFS(m), args[1])
	if err != nil {
		return fmt.Errorf("read file %q: %w", args[1], err)
	}
	_, err = os.Stdout.Write(data)
	return err
}

func runDump(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: ext2fuse dump <image> <path> <out>")
	}
	image, path, out := args[0], args[1], args[2]

	m, err := ext2fs.Open(image)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer m.Close()

	f, err := fs.ReadFile(ext2fs.NewFS(m), path)
	if err != nil {
		return fmt.Errorf("read file %q: %w", path, err)
	}

	outFile, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %q: %w", out, err)
	}
	defer outFile.Close()

	if _, err := ext2fs.WriteExact(outFile, f); err != nil {
		return fmt.Errorf("write %q: %w", out, err)
	}
	return nil
}

// printFileInfo prints one ls-style line, in the teacher's column layout.
func printFileInfo(name string, info fs.FileInfo) {
	typeChar := "-"
	if info.IsDir() {
		typeChar = "d"
	} else if info.Mode()&fs.ModeSymlink != 0 {
		typeChar = "l"
	}

	permissions := info.Mode().String()[1:]

	size := fmt.Sprintf("%8d", info.Size())
	if info.IsDir() {
		size = "       -"
	}

	fmt.Printf("%s%s %s %s\n", typeChar, permissions, size, name)
}
