package batcher

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/nodewee/doc-translate-prep/pkg/types"
	"github.com/nodewee/doc-translate-prep/pkg/utils"
)

func flatten(batches []types.Batch) []string {
	var out []string
	for _, b := range batches {
		out = append(out, b.Items...)
	}
	return out
}

func TestSplitExamples(t *testing.T) {
	cases := []struct {
		name      string
		items     []string
		groupSize int
		maxSize   int
		want      [][]string
	}{
		{
			name:      "group size bound",
			items:     []string{"a", "b", "c", "d", "e"},
			groupSize: 2,
			maxSize:   100,
			want:      [][]string{{"a", "b"}, {"c", "d"}, {"e"}},
		},
		{
			name:      "size bound shrinks from end",
			items:     []string{"aaaa", "bbbb", "cc"},
			groupSize: 10,
			maxSize:   9,
			want:      [][]string{{"aaaa", "bbbb"}, {"cc"}},
		},
		{
			name:      "oversized item stands alone",
			items:     []string{strings.Repeat("x", 12), "y"},
			groupSize: 5,
			maxSize:   10,
			want:      [][]string{{strings.Repeat("x", 12)}, {"y"}},
		},
		{
			name:      "empty input",
			items:     nil,
			groupSize: 3,
			maxSize:   10,
			want:      nil,
		},
		{
			name:      "exact max size is too large",
			items:     []string{"abc", "de"},
			groupSize: 5,
			maxSize:   5,
			want:      [][]string{{"abc"}, {"de"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			batches, err := Split(tc.items, tc.groupSize, tc.maxSize)
			if err != nil {
				t.Fatalf("Split returned error: %v", err)
			}
			var got [][]string
			for _, b := range batches {
				got = append(got, b.Items)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSplitInvariants(t *testing.T) {
	items := []string{
		"Hello", "world", "这是一段较长的中文文本", "short", "",
		strings.Repeat("z", 40), "mid-length string", "é", "🙂🙂", "tail",
	}

	for groupSize := 1; groupSize <= 6; groupSize++ {
		for _, maxSize := range []int{1, 5, 12, 30, 1000} {
			batches, err := Split(items, groupSize, maxSize)
			if err != nil {
				t.Fatalf("Split(%d,%d): %v", groupSize, maxSize, err)
			}

			if got := flatten(batches); !reflect.DeepEqual(got, items) {
				t.Fatalf("Split(%d,%d) did not conserve items: %q", groupSize, maxSize, got)
			}

			next := 0
			for i, b := range batches {
				if len(b.Items) == 0 {
					t.Fatalf("Split(%d,%d) batch %d is empty", groupSize, maxSize, i)
				}
				if len(b.Items) > groupSize {
					t.Fatalf("Split(%d,%d) batch %d has %d items", groupSize, maxSize, i, len(b.Items))
				}
				if len(b.Items) > 1 && RuneSize(b.Items) >= maxSize {
					t.Fatalf("Split(%d,%d) batch %d has size %d", groupSize, maxSize, i, RuneSize(b.Items))
				}
				if b.Start != next || b.End != b.Start+len(b.Items) {
					t.Fatalf("Split(%d,%d) batch %d range [%d,%d) not contiguous", groupSize, maxSize, i, b.Start, b.End)
				}
				if b.Size != RuneSize(b.Items) {
					t.Fatalf("Split(%d,%d) batch %d size %d, want %d", groupSize, maxSize, i, b.Size, RuneSize(b.Items))
				}
				next = b.End
			}
			if next != len(items) {
				t.Fatalf("Split(%d,%d) covered %d of %d items", groupSize, maxSize, next, len(items))
			}
		}
	}
}

func TestSplitDoesNotAliasInput(t *testing.T) {
	items := []string{"a", "b", "c"}
	batches, err := Split(items, 3, 100)
	if err != nil {
		t.Fatal(err)
	}
	batches[0].Items[0] = "changed"
	if items[0] != "a" {
		t.Fatalf("input was modified through batch: %q", items)
	}
}

func TestSplitRejectsInvalidLimits(t *testing.T) {
	for _, tc := range []struct{ groupSize, maxSize int }{{0, 10}, {-1, 10}, {5, 0}, {5, -3}} {
		_, err := Split([]string{"a"}, tc.groupSize, tc.maxSize)
		if err == nil {
			t.Fatalf("Split(%d,%d) expected error", tc.groupSize, tc.maxSize)
		}
		if utils.GetErrorType(err) != utils.ErrorTypeValidation {
			t.Fatalf("Split(%d,%d) error type = %s", tc.groupSize, tc.maxSize, utils.GetErrorType(err))
		}
	}
}

func TestSizeMetrics(t *testing.T) {
	items := []string{"aé", "🙂"}
	if got := RuneSize(items); got != 3 {
		t.Errorf("RuneSize = %d, want 3", got)
	}
	if got := UTF16Size(items); got != 4 {
		t.Errorf("UTF16Size = %d, want 4", got)
	}
	if got := ByteSize(items); got != 7 {
		t.Errorf("ByteSize = %d, want 7", got)
	}

	// One emoji costs two UTF-16 units, so a limit of 2 forces singletons.
	batches, err := Split([]string{"🙂", "a"}, 5, 3, WithSize(UTF16Size))
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 2 {
		t.Fatalf("got %d batches with UTF16Size, want 2", len(batches))
	}
}

func TestMetricByName(t *testing.T) {
	for _, name := range []string{"", MetricRunes, MetricUTF16, MetricBytes} {
		if _, err := MetricByName(name); err != nil {
			t.Errorf("MetricByName(%q): %v", name, err)
		}
	}
	if _, err := MetricByName("words"); err == nil {
		t.Error("MetricByName(words) expected error")
	}
}

func TestReassemble(t *testing.T) {
	items := []string{"one", "two", "three", "four", "five"}
	batches, err := Split(items, 2, 100)
	if err != nil {
		t.Fatal(err)
	}

	results := make([][]string, len(batches))
	for i, b := range batches {
		for _, s := range b.Items {
			results[i] = append(results[i], strings.ToUpper(s))
		}
	}

	got, err := Reassemble(len(items), batches, results)
	if err != nil {
		t.Fatalf("Reassemble: %v", err)
	}
	want := []string{"ONE", "TWO", "THREE", "FOUR", "FIVE"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestReassembleRejectsMismatch(t *testing.T) {
	batches := []types.Batch{{Start: 0, End: 2}, {Start: 2, End: 3}}

	if _, err := Reassemble(3, batches, [][]string{{"a", "b"}}); err == nil {
		t.Error("expected error for missing result group")
	}
	if _, err := Reassemble(3, batches, [][]string{{"a"}, {"c"}}); err == nil {
		t.Error("expected error for short result group")
	}
	if _, err := Reassemble(4, batches, [][]string{{"a", "b"}, {"c"}}); err == nil {
		t.Error("expected error for uncovered position")
	}

	var appErr *utils.AppError
	_, err := Reassemble(2, batches, [][]string{{"a", "b"}, {"c"}})
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError for out-of-range batch, got %v", err)
	}
}

func TestReassembleRejectsNegativeTotal(t *testing.T) {
	_, err := Reassemble(-1, nil, nil)
	if utils.GetErrorType(err) != utils.ErrorTypeValidation {
		t.Fatalf("error = %v, want validation", err)
	}
}
