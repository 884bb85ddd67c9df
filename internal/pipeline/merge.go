package pipeline

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"

	"github.com/couchcryptid/seismic-cluster-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/seismic-cluster-etl/internal/adapter/parquet"
	"github.com/couchcryptid/seismic-cluster-etl/internal/domain"
)

// writeSidecars writes the optional merged outputs after all events ran: the
// sorted index as CSV and Parquet, and the matched P/S pairs.
func writeSidecars(base string, entries []domain.IndexEntry, pairs []domain.MatchedPair, opts Options, sum *Summary) error {
	if opts.Sorted || opts.Parquet {
		entries = domain.SortIndex(entries)
		sum.IndexEntries = len(entries)
	}

	if opts.Sorted {
		path := csvfile.SidecarPath(base, "sorted", "csv")
		records := make([][]string, len(entries))
		for i, e := range entries {
			records[i] = e.Record()
		}
		if err := csvfile.WriteRecords(path, records); err != nil {
			return fmt.Errorf("write sorted index: %w", err)
		}
		sum.Files = append(sum.Files, path)
	}

	if opts.Parquet {
		path := csvfile.SidecarPath(base, "sorted", "parquet")
		if err := writeParquet(path, entries); err != nil {
			return fmt.Errorf("write parquet index: %w", err)
		}
		sum.Files = append(sum.Files, path)
	}

	if opts.Matched {
		path := csvfile.SidecarPath(base, "matched", "csv")
		records := make([][]string, len(pairs))
		for i, p := range pairs {
			records[i] = p.Record()
		}
		if err := csvfile.WriteRecords(path, records); err != nil {
			return fmt.Errorf("write matched pairs: %w", err)
		}
		sum.MatchedPairs = len(pairs)
		sum.Files = append(sum.Files, path)
	}
	return nil
}

func writeParquet(path string, entries []domain.IndexEntry) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()
	return parquet.WriteIndex(f, entries)
}
