package index

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/inodb/bedindex/internal/bed"
)

// Region is a half-open query interval on one chromosome.
type Region struct {
	Chrom string
	Start int32
	End   int32
}

func (r Region) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Chrom, r.Start, r.End)
}

// QueryItem is a region waiting to be queried.
type QueryItem struct {
	Seq    int
	Region Region
}

// QueryResult holds the records found for a single region.
type QueryResult struct {
	Seq     int
	Region  Region
	Records []bed.Record
	Err     error
}

// ParallelQuery runs FindContained for each item using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use OrderedCollect to consume results in sequence-number order.
// If workers is 0, runtime.NumCPU() is used.
//
// Every query opens its own index and source handles, so workers never share
// file state.
func ParallelQuery(idx Index, sourcePath string, items <-chan QueryItem, workers int) <-chan QueryResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan QueryResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				r := item.Region
				records, err := FindContained(idx, sourcePath, r.Chrom, r.Start, r.End)
				results <- QueryResult{
					Seq:     item.Seq,
					Region:  r,
					Records: records,
					Err:     err,
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func OrderedCollect(results <-chan QueryResult, fn func(QueryResult) error) error {
	pending := make(map[int]QueryResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}

// QueryBatch queries every region in parallel and calls fn with the results
// in the order of regions.
func QueryBatch(idx Index, sourcePath string, regions []Region, workers int, fn func(QueryResult) error) error {
	items := make(chan QueryItem, len(regions))
	for i, r := range regions {
		items <- QueryItem{Seq: i, Region: r}
	}
	close(items)

	return OrderedCollect(ParallelQuery(idx, sourcePath, items, workers), fn)
}
