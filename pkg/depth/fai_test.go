package depth

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseFAIStrict(t *testing.T) {
	// Full samtools faidx format: name, length, offset, basesPerLine,
	// bytesPerLine.
	path := writeFile(t, "ref.fa.fai", "chr2\t2000\t6\t60\t61\nchr1\t1000\t2043\t60\t61\n")

	got, err := ParseFAI(path)
	if err != nil {
		t.Fatalf("ParseFAI: %v", err)
	}
	want := []SeqLength{{ID: "chr2", Length: 2000}, {ID: "chr1", Length: 1000}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseFAI = %v, want %v (file order preserved)", got, want)
	}
}

func TestParseFAILenientFallback(t *testing.T) {
	// Two-column index files fall back to a lenient parse.
	path := writeFile(t, "ref.fa.fai", "chrA\t500\nchrB\t300\n\nbroken-line\nchrC\tx\n")

	got, err := ParseFAI(path)
	if err != nil {
		t.Fatalf("ParseFAI: %v", err)
	}
	want := []SeqLength{{ID: "chrA", Length: 500}, {ID: "chrB", Length: 300}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseFAI = %v, want %v", got, want)
	}
}

func TestParseFAIMissingFile(t *testing.T) {
	if _, err := ParseFAI(filepath.Join(t.TempDir(), "absent.fai")); err == nil {
		t.Error("expected an error for a missing index file")
	}
}
