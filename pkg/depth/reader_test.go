package depth

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"gopkg.in/fatih/set.v0"

	"github.com/asmqc/depthmontage/pkg/window"
)

func writeDepthFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSynchronizedReaderUnion(t *testing.T) {
	pathA := writeDepthFile(t, "a.depth", ">chr1\n1\n2\n>chr2\n3\n4\n")
	pathB := writeDepthFile(t, "b.depth", ">chr2\n5\n6\n>chr3\n7\n8\n")

	r := &SynchronizedReader{PathA: pathA, PathB: pathB}
	seqs, err := r.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	ids := make([]string, len(seqs))
	for i, s := range seqs {
		ids[i] = s.ID
	}
	if want := []string{"chr1", "chr2", "chr3"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("IDs = %v, want %v", ids, want)
	}

	// chr1 carries an empty B-array, chr3 an empty A-array.
	if len(seqs[0].A) == 0 || len(seqs[0].B) != 0 {
		t.Errorf("chr1: A=%v B=%v, want non-empty A and empty B", seqs[0].A, seqs[0].B)
	}
	if got, want := seqs[1].A, []int32{3, 4}; !reflect.DeepEqual(got, want) {
		t.Errorf("chr2 A = %v, want %v", got, want)
	}
	if got, want := seqs[1].B, []int32{5, 6}; !reflect.DeepEqual(got, want) {
		t.Errorf("chr2 B = %v, want %v", got, want)
	}
	if len(seqs[2].A) != 0 || len(seqs[2].B) == 0 {
		t.Errorf("chr3: A=%v B=%v, want empty A and non-empty B", seqs[2].A, seqs[2].B)
	}
}

func TestSynchronizedReaderMissingSourceDegrades(t *testing.T) {
	pathA := writeDepthFile(t, "a.depth", ">chr1\n1\n")

	r := &SynchronizedReader{
		PathA: pathA,
		PathB: filepath.Join(t.TempDir(), "nonexistent.depth"),
	}
	seqs, err := r.Read(context.Background())
	if err != nil {
		t.Fatalf("Read should not fail when one source is missing: %v", err)
	}
	if len(seqs) != 1 || seqs[0].ID != "chr1" {
		t.Fatalf("seqs = %+v, want just chr1", seqs)
	}
	if len(seqs[0].B) != 0 {
		t.Errorf("failed source should degrade to empty arrays, got %v", seqs[0].B)
	}
}

func TestSynchronizedReaderTargetsYieldAllEmpty(t *testing.T) {
	pathA := writeDepthFile(t, "a.depth", ">chr1\n1\n")

	targets := set.New(set.NonThreadSafe)
	targets.Add("chr1", "chrZ")

	r := &SynchronizedReader{PathA: pathA, Targets: targets}
	seqs, err := r.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(seqs) != 2 {
		t.Fatalf("got %d sequences, want 2 (targets are yielded even when data is absent)", len(seqs))
	}
	if !seqs[1].Empty() {
		t.Errorf("chrZ should be all-empty, got %+v", seqs[1])
	}
	if seqs[0].Empty() {
		t.Errorf("chr1 should carry data")
	}
}

func TestSynchronizedReaderRegionFilter(t *testing.T) {
	pathA := writeDepthFile(t, "a.depth", ">chr1\n1\n>chr2\n2\n")

	r := &SynchronizedReader{
		PathA:   pathA,
		Regions: map[string][]window.Interval{"chr2": {{Start: 0, End: 0}}},
	}
	seqs, err := r.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(seqs) != 1 || seqs[0].ID != "chr2" {
		t.Errorf("region filter should yield only chr2, got %+v", seqs)
	}
	// The region mapping filters sequences; it does not slice arrays.
	if len(seqs[0].A) != 1 {
		t.Errorf("arrays must not be sliced by the region filter, got %v", seqs[0].A)
	}
}
