// Package batcher partitions an ordered sequence of strings into contiguous
// batches bounded by element count and combined size, so that each batch can
// be submitted as one request to a translation service with per-request
// limits. Batches record the index range they cover in the original sequence.
package batcher

import (
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/nodewee/doc-translate-prep/pkg/types"
	"github.com/nodewee/doc-translate-prep/pkg/utils"
)

// SizeFunc measures the combined size of a group of items
type SizeFunc func(items []string) int

// RuneSize counts the characters (runes) of the concatenated items
func RuneSize(items []string) int {
	n := 0
	for _, s := range items {
		n += utf8.RuneCountInString(s)
	}
	return n
}

// UTF16Size counts UTF-16 code units, the unit most translation APIs bill by
func UTF16Size(items []string) int {
	n := 0
	for _, s := range items {
		for _, r := range s {
			if l := utf16.RuneLen(r); l > 0 {
				n += l
			} else {
				n++
			}
		}
	}
	return n
}

// ByteSize counts UTF-8 bytes
func ByteSize(items []string) int {
	n := 0
	for _, s := range items {
		n += len(s)
	}
	return n
}

// Metric names accepted by MetricByName
const (
	MetricRunes = "runes"
	MetricUTF16 = "utf16"
	MetricBytes = "bytes"
)

// MetricByName returns the SizeFunc registered under name
func MetricByName(name string) (SizeFunc, error) {
	switch name {
	case "", MetricRunes:
		return RuneSize, nil
	case MetricUTF16:
		return UTF16Size, nil
	case MetricBytes:
		return ByteSize, nil
	default:
		return nil, utils.NewValidationError(fmt.Sprintf("unknown size metric: %q", name), nil)
	}
}

type options struct {
	size SizeFunc
}

// Option customises Split
type Option func(*options)

// WithSize replaces the default rune-count size metric
func WithSize(fn SizeFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.size = fn
		}
	}
}

// Split greedily groups items, left to right, into batches of at most
// groupSize items whose combined size stays below maxSize. A group that is
// too large loses items from its end until it fits; an item that alone
// reaches maxSize still forms its own batch. Items are never reordered,
// dropped or split.
func Split(items []string, groupSize, maxSize int, opts ...Option) ([]types.Batch, error) {
	if groupSize < 1 {
		return nil, utils.NewValidationError(fmt.Sprintf("group size must be positive, got %d", groupSize), nil)
	}
	if maxSize < 1 {
		return nil, utils.NewValidationError(fmt.Sprintf("max size must be positive, got %d", maxSize), nil)
	}

	o := options{size: RuneSize}
	for _, opt := range opts {
		opt(&o)
	}

	var batches []types.Batch
	start := 0
	for start < len(items) {
		count := min(groupSize, len(items)-start)
		size := o.size(items[start : start+count])
		for size >= maxSize && count > 1 {
			count--
			size = o.size(items[start : start+count])
		}

		group := make([]string, count)
		copy(group, items[start:start+count])
		batches = append(batches, types.Batch{
			Items: group,
			Start: start,
			End:   start + count,
			Size:  size,
		})
		start += count
	}
	return batches, nil
}

// Reassemble scatters per-batch results back into a sequence of total
// positions, using each batch's index range. results[i] must hold exactly
// one string per item of batches[i], and the batches must cover every
// position exactly once.
func Reassemble(total int, batches []types.Batch, results [][]string) ([]string, error) {
	if total < 0 {
		return nil, utils.NewValidationError(fmt.Sprintf("total must not be negative, got %d", total), nil)
	}
	if len(results) != len(batches) {
		return nil, utils.NewValidationError(
			fmt.Sprintf("got %d result groups for %d batches", len(results), len(batches)), nil)
	}

	out := make([]string, total)
	filled := make([]bool, total)
	for i, b := range batches {
		if b.Start < 0 || b.End > total || b.Start > b.End {
			return nil, utils.NewValidationError(
				fmt.Sprintf("batch %d range [%d,%d) outside [0,%d)", i, b.Start, b.End, total), nil)
		}
		if len(results[i]) != b.End-b.Start {
			return nil, utils.NewValidationError(
				fmt.Sprintf("batch %d expects %d results, got %d", i, b.End-b.Start, len(results[i])), nil)
		}
		for j, s := range results[i] {
			pos := b.Start + j
			if filled[pos] {
				return nil, utils.NewValidationError(fmt.Sprintf("position %d covered twice", pos), nil)
			}
			out[pos] = s
			filled[pos] = true
		}
	}
	for pos, ok := range filled {
		if !ok {
			return nil, utils.NewValidationError(fmt.Sprintf("position %d not covered by any batch", pos), nil)
		}
	}
	return out, nil
}
