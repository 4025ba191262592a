package index

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func makeRegions(n int) []Region {
	regions := make([]Region, n)
	for i := range regions {
		regions[i] = Region{Chrom: fmt.Sprint(i % 5), Start: int32(i), End: int32(i + 300)}
	}
	return regions
}

func TestQueryBatch_OrderPreservation(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := writeSource(t, randomBED(5, 400, 5, 1000))
	regions := makeRegions(200)

	for name, idx := range indexVariants(t, src) {
		t.Run(name, func(t *testing.T) {
			var collected []int
			err := QueryBatch(idx, src, regions, 8, func(r QueryResult) error {
				require.NoError(t, r.Err)
				assert.Equal(t, regions[r.Seq], r.Region)

				expected, err := FindContained(idx, src, r.Region.Chrom, r.Region.Start, r.Region.End)
				require.NoError(t, err)
				assert.Equal(t, recordStrings(expected), recordStrings(r.Records))

				collected = append(collected, r.Seq)
				return nil
			})
			require.NoError(t, err)

			assert.Len(t, collected, 200)
			for i, seq := range collected {
				assert.Equal(t, i, seq, "result %d out of order", i)
			}
		})
	}
}

func TestQueryBatch_SingleWorker(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := writeSource(t, smallBED)
	idx := indexVariants(t, src)["memory"]

	var counts []int
	err := QueryBatch(idx, src, []Region{
		{"chr1", 18, 52},
		{"chr3", 1, 100},
		{"chr2", 10, 30},
	}, 1, func(r QueryResult) error {
		counts = append(counts, len(r.Records))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 0, 2}, counts)
}

func TestQueryBatch_PerRegionErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := writeSource(t, smallBED)
	idx := indexVariants(t, src)["file"]

	var errs []error
	err := QueryBatch(idx, src, []Region{
		{"chr1", 0, 100},
		{"chr1", 50, 10},
	}, 2, func(r QueryResult) error {
		errs = append(errs, r.Err)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, errs, 2)
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], ErrInvalidRange)
}

func TestQueryBatch_CallbackErrorStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := writeSource(t, randomBED(5, 400, 5, 1000))
	idx := indexVariants(t, src)["file"]
	stop := errors.New("stop")

	calls := 0
	err := QueryBatch(idx, src, makeRegions(100), 4, func(r QueryResult) error {
		calls++
		if r.Seq == 10 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 11, calls)
}

func TestQueryBatch_EmptyInput(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := writeSource(t, smallBED)
	idx := indexVariants(t, src)["memory"]

	called := false
	err := QueryBatch(idx, src, nil, 0, func(QueryResult) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestRegion_String(t *testing.T) {
	assert.Equal(t, "chr1:10-20", Region{Chrom: "chr1", Start: 10, End: 20}.String())
}
