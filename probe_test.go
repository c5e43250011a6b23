package ext2

import (
	"bytes"
	"testing"
)

func TestProbeAndMountInfoAgree(t *testing.T) {
	img := buildFixtureImage()

	probed, err := Probe(bytes.NewReader(img))
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}

	m, err := New(bytes.NewReader(img))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mounted := m.Info()

	if *probed != *mounted {
		t.Fatalf("Probe() = %+v, Mount.Info() = %+v", probed, mounted)
	}

	if probed.BlockSize != 1024 {
		t.Fatalf("BlockSize = %d, want 1024", probed.BlockSize)
	}
	if probed.InodeSize != 128 {
		t.Fatalf("InodeSize = %d, want 128", probed.InodeSize)
	}
	if probed.GroupCount != 1 {
		t.Fatalf("GroupCount = %d, want 1 (single-group fixture)", probed.GroupCount)
	}
}
