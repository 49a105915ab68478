package minifat

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
)

func newTestAllocator(t *testing.T, cfg Config) clusterAllocator {
	t.Helper()
	layout, err := NewLayout(cfg)
	if err != nil {
		t.Fatal(err)
	}
	disk := make([]byte, layout.Size)
	table := newAllocationTable(disk, layout)
	if err := table.markAllocated(rootDirCluster); err != nil {
		t.Fatal(err)
	}
	return clusterAllocator{
		disk:   disk,
		table:  table,
		layout: layout,
		log:    logrus.StandardLogger(),
	}
}

func Test_clusterAllocator_findFree(t *testing.T) {
	tests := []struct {
		name      string
		allocated []uint32
		want      uint32
		wantOk    bool
	}{
		{name: "empty table starts after the root directory", want: 3, wantOk: true},
		{name: "lowest free index wins", allocated: []uint32{3, 4, 6}, want: 5, wantOk: true},
		{name: "last backed cluster", allocated: []uint32{3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, want: 13, wantOk: true},
		// 16 clusters of 512 bytes: data starts at 576, so only clusters 0..13 fit into the image.
		{name: "unbacked clusters are never returned", allocated: []uint32{3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}, wantOk: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAllocator(t, Config{Size: 16 * 512, ClusterSize: 512})
			for _, c := range tt.allocated {
				if err := a.table.markAllocated(c); err != nil {
					t.Fatal(err)
				}
			}

			got, ok := a.findFree()
			if ok != tt.wantOk {
				t.Fatalf("clusterAllocator.findFree() ok = %v, want %v", ok, tt.wantOk)
			}
			if ok && got != tt.want {
				t.Errorf("clusterAllocator.findFree() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_clusterAllocator_allocate(t *testing.T) {
	a := newTestAllocator(t, Config{Size: 16 * 512, ClusterSize: 512})

	// Leave some garbage in cluster 3 which has to be gone after the allocation.
	copy(a.data(3), "stale")

	cluster, err := a.allocate()
	if err != nil {
		t.Fatalf("clusterAllocator.allocate() error = %v", err)
	}
	if cluster != 3 {
		t.Errorf("clusterAllocator.allocate() = %v, want 3", cluster)
	}
	for i, b := range a.data(cluster) {
		if b != 0 {
			t.Fatalf("allocated cluster not zeroed at byte %d", i)
		}
	}
	entry, _ := a.table.readEntry(cluster)
	if !entry.IsEOF() {
		t.Errorf("allocated cluster has table entry %#x", entry.Value())
	}

	// Use up the rest.
	for {
		if _, err := a.allocate(); err != nil {
			if !errors.Is(err, ErrNoSpace) {
				t.Fatalf("clusterAllocator.allocate() error = %v, wantErr %v", err, ErrNoSpace)
			}
			break
		}
	}
	if used, _ := a.usage(); used != 11 {
		t.Errorf("clusterAllocator.usage() used = %v, want 11", used)
	}
}

func Test_clusterAllocator_release(t *testing.T) {
	tests := []struct {
		name    string
		cluster uint32
		wantErr error
	}{
		{name: "file cluster", cluster: 3},
		{name: "reserved cluster 0", cluster: 0, wantErr: ErrOutOfRange},
		{name: "reserved cluster 1", cluster: 1, wantErr: ErrOutOfRange},
		{name: "root directory", cluster: rootDirCluster, wantErr: ErrOutOfRange},
		{name: "unbacked cluster", cluster: 14, wantErr: ErrOutOfRange},
		{name: "past the table", cluster: 100, wantErr: ErrOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAllocator(t, Config{Size: 16 * 512, ClusterSize: 512})
			cluster, err := a.allocate()
			if err != nil {
				t.Fatal(err)
			}
			copy(a.data(cluster), "content")

			err = a.release(tt.cluster)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("clusterAllocator.release() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}

			entry, _ := a.table.readEntry(tt.cluster)
			if !entry.IsFree() {
				t.Errorf("released cluster has table entry %#x", entry.Value())
			}
			for i, b := range a.data(tt.cluster) {
				if b != 0 {
					t.Fatalf("released cluster not zeroed at byte %d", i)
				}
			}
		})
	}
}

func Test_clusterAllocator_usage(t *testing.T) {
	a := newTestAllocator(t, Config{})

	used, total := a.usage()
	if used != 0 || total != 2046 {
		t.Errorf("clusterAllocator.usage() = (%v, %v), want (0, 2046)", used, total)
	}

	for i := 0; i < 3; i++ {
		if _, err := a.allocate(); err != nil {
			t.Fatal(err)
		}
	}
	used, total = a.usage()
	if used != 3 || total != 2046 {
		t.Errorf("clusterAllocator.usage() = (%v, %v), want (3, 2046)", used, total)
	}
}
