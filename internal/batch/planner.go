// Package batch partitions a document's page range into contiguous batches.
package batch

// Range is one contiguous span of pages handled by a single invocation.
// Index is 1-based in batched plans and 0 for the single unbatched range.
type Range struct {
	Index int
	First int
	Last  int
}

// Batched reports whether the range belongs to a batched plan.
func (r Range) Batched() bool { return r.Index > 0 }

// Pages returns how many pages the range spans.
func (r Range) Pages() int { return r.Last - r.First + 1 }

// Plan splits the pages after startPage into ranges of at most batchSize pages.
// batchSize 0 keeps the whole document in one unbatched range. A document whose
// pages are exhausted by startPage yields an empty plan; callers treat that as
// a no-op success.
func Plan(totalPages, startPage, batchSize int) []Range {
	if totalPages <= startPage {
		return nil
	}
	if batchSize <= 0 {
		return []Range{{Index: 0, First: startPage, Last: totalPages}}
	}

	var ranges []Range
	index := 1
	for first := startPage + 1; first <= totalPages; first += batchSize {
		last := first + batchSize - 1
		if last > totalPages {
			last = totalPages
		}
		ranges = append(ranges, Range{Index: index, First: first, Last: last})
		index++
	}
	return ranges
}
