package chunker

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned for chunking parameters that cannot
// produce a terminating sequence of chunks.
var ErrInvalidArgument = errors.New("invalid chunking parameters")

// Split cuts text into overlapping fixed-size character segments.
// Consecutive chunks share exactly overlap characters and the last chunk
// may be shorter than chunkSize. Concatenating the first chunk with every
// subsequent chunk stripped of its leading overlap reconstructs text.
func Split(text string, chunkSize, overlap int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidArgument, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap must be in [0, chunk size), got %d", ErrInvalidArgument, overlap)
	}
	if text == "" {
		return nil, nil
	}

	step := chunkSize - overlap
	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + chunkSize
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
	}
	return chunks, nil
}
