package chunker

import (
	"errors"
	"strings"
	"testing"
)

func TestSplitOverlapWindow(t *testing.T) {
	chunks, err := Split("abcdef", 4, 2)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	want := []string{"abcd", "cdef"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %v", len(want), len(chunks), chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestSplitRoundTrip(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 500)

	cases := []struct {
		chunkSize int
		overlap   int
	}{
		{20000, 1000},
		{15000, 0},
		{1000, 200},
		{7, 3},
		{1, 0},
	}

	for _, tc := range cases {
		chunks, err := Split(text, tc.chunkSize, tc.overlap)
		if err != nil {
			t.Fatalf("split(%d,%d) failed: %v", tc.chunkSize, tc.overlap, err)
		}

		var sb strings.Builder
		for i, c := range chunks {
			if i == 0 {
				sb.WriteString(c)
				continue
			}
			if len(c) < tc.overlap {
				t.Fatalf("split(%d,%d): chunk %d shorter than overlap", tc.chunkSize, tc.overlap, i)
			}
			if prev := chunks[i-1]; prev[len(prev)-tc.overlap:] != c[:tc.overlap] {
				t.Fatalf("split(%d,%d): chunks %d/%d do not share %d characters", tc.chunkSize, tc.overlap, i-1, i, tc.overlap)
			}
			sb.WriteString(c[tc.overlap:])
		}
		if sb.String() != text {
			t.Errorf("split(%d,%d): round trip does not reconstruct input", tc.chunkSize, tc.overlap)
		}
	}
}

func TestSplitShortInput(t *testing.T) {
	chunks, err := Split("short", 20000, 1000)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if len(chunks) != 1 || chunks[0] != "short" {
		t.Fatalf("expected single chunk, got %v", chunks)
	}
}

func TestSplitChunkCount(t *testing.T) {
	// 80000 characters at 20000/1000 steps by 19000: starts at 0, 19000,
	// 38000, 57000, 76000.
	text := strings.Repeat("x", 80000)
	chunks, err := Split(text, 20000, 1000)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if len(chunks) != 5 {
		t.Fatalf("expected 5 chunks, got %d", len(chunks))
	}
}

func TestSplitInvalidArguments(t *testing.T) {
	cases := []struct {
		name      string
		chunkSize int
		overlap   int
	}{
		{"zero chunk size", 0, 0},
		{"negative chunk size", -1, 0},
		{"negative overlap", 10, -1},
		{"overlap equals chunk size", 10, 10},
		{"overlap exceeds chunk size", 10, 11},
	}
	for _, tc := range cases {
		if _, err := Split("text", tc.chunkSize, tc.overlap); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%s: expected ErrInvalidArgument, got %v", tc.name, err)
		}
	}
}

func TestSplitEmptyInput(t *testing.T) {
	chunks, err := Split("", 10, 2)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if chunks != nil {
		t.Fatalf("expected no chunks for empty input, got %v", chunks)
	}
}
