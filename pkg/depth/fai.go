package depth

import (
	"bufio"
	"bytes"
	"os"
	"strconv"
	"strings"

	"github.com/biogo/hts/fai"

	"github.com/asmqc/depthmontage/pkg/errors"
)

// SeqLength is one FAI index entry: a sequence ID and its length in bases.
type SeqLength struct {
	ID     string
	Length int
}

// ParseFAI reads an FAI-style index and returns the sequences in file
// order. A full five-column samtools faidx file is parsed strictly; files
// carrying only the first two columns (ID, length) fall back to a lenient
// tab-separated parse.
func ParseFAI(path string) ([]SeqLength, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceMissing, err, "open FAI index %s", path)
	}

	idx, err := fai.ReadFrom(bytes.NewReader(data))
	if err == nil {
		return orderedLengths(data, idx), nil
	}
	return lenientFAI(data)
}

// orderedLengths rebuilds file order for a strict index, since fai.Index is
// an unordered map.
func orderedLengths(data []byte, idx fai.Index) []SeqLength {
	var out []SeqLength
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		fields := strings.SplitN(sc.Text(), "\t", 2)
		if rec, ok := idx[fields[0]]; ok {
			out = append(out, SeqLength{ID: rec.Name, Length: rec.Length})
		}
	}
	return out
}

// lenientFAI parses just the first two tab-separated columns of each line.
// Lines with fewer than two columns or a malformed length are skipped.
func lenientFAI(data []byte) ([]SeqLength, error) {
	var out []SeqLength
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		out = append(out, SeqLength{ID: fields[0], Length: n})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceMissing, err, "read FAI index")
	}
	return out, nil
}
