// Package parquet exports the sorted grid index as a Parquet file.
package parquet

import (
	"fmt"
	"io"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/couchcryptid/seismic-cluster-etl/internal/domain"
)

// IndexRecord is the Parquet row schema of a domain.IndexEntry. Times are
// microseconds since the Unix epoch, matching the CSV precision.
type IndexRecord struct {
	GridIndex  int64  `parquet:"name=grid_index, type=INT64"`
	DepthBin   int64  `parquet:"name=depth_bin, type=INT64"`
	Phase      string `parquet:"name=phase, type=BYTE_ARRAY, convertedtype=UTF8"`
	Station    string `parquet:"name=station, type=BYTE_ARRAY, convertedtype=UTF8"`
	PickTime   int64  `parquet:"name=pick_time, type=INT64, convertedtype=TIMESTAMP_MICROS"`
	OriginTime int64  `parquet:"name=origin_time, type=INT64, convertedtype=TIMESTAMP_MICROS"`
}

// NewIndexRecord converts an index entry to its Parquet row.
func NewIndexRecord(e domain.IndexEntry) IndexRecord {
	return IndexRecord{
		GridIndex:  e.GridIndex,
		DepthBin:   e.DepthBin,
		Phase:      e.Phase,
		Station:    e.Station,
		PickTime:   e.PickTime.UnixMicro(),
		OriginTime: e.OriginTime.UnixMicro(),
	}
}

// WriteIndex writes entries to w as a Snappy-compressed Parquet file.
func WriteIndex(w io.Writer, entries []domain.IndexEntry) (err error) {
	pw, err := writer.NewParquetWriterFromWriter(w, new(IndexRecord), 1)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, e := range entries {
		if err := pw.Write(NewIndexRecord(e)); err != nil {
			return fmt.Errorf("write parquet row: %w", err)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("finalize parquet file: %v", r)
		}
	}()
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finalize parquet file: %w", err)
	}
	return nil
}
