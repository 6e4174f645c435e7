// Package export writes pipeline tables to CSV or JSON files, optionally
// zstd-compressed.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/nutricluster/internal/dataset"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

const zstdExt = ".zst"

// Header lists the output columns of t in order: identity columns, the
// table's columns, then the cluster id once clusters are assigned.
func Header(t *dataset.Table) []string {
	header := make([]string, 0, len(t.Columns)+3)
	header = append(header, dataset.IdentityColumns...)
	header = append(header, t.Columns...)
	if t.Stage >= dataset.StageClustered {
		header = append(header, dataset.ColCluster)
	}
	return header
}

// WriteCSV writes t with a header row. Undefined values are empty cells.
func WriteCSV(w io.Writer, t *dataset.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(t)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	clustered := t.Stage >= dataset.StageClustered
	for _, row := range t.Rows {
		rec := make([]string, 0, len(t.Columns)+3)
		rec = append(rec, row.FoodName, row.Category)
		for _, v := range row.Values {
			if dataset.IsUndefined(v) {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if clustered {
			rec = append(rec, strconv.Itoa(row.Cluster))
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %q: %w", row.FoodName, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes t as an array of objects. Undefined values are null.
func WriteJSON(w io.Writer, t *dataset.Table) error {
	if err := sonic.ConfigStd.NewEncoder(w).Encode(t.Records()); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	return nil
}

// Write encodes t in format f.
func Write(w io.Writer, f Format, t *dataset.Table) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatJSON:
		return WriteJSON(w, t)
	}
	return dataset.ValidationErrorf("unsupported export format %q", f)
}

// FormatForPath picks the format from the file extension, ignoring a trailing
// .zst, and reports whether the output is compressed.
func FormatForPath(path string) (Format, bool, error) {
	lower := strings.ToLower(path)
	compressed := strings.HasSuffix(lower, zstdExt)
	lower = strings.TrimSuffix(lower, zstdExt)

	switch filepath.Ext(lower) {
	case ".csv":
		return FormatCSV, compressed, nil
	case ".json":
		return FormatJSON, compressed, nil
	}
	return "", false, dataset.ValidationErrorf("cannot infer export format from %q, expected .csv or .json", path)
}

// Save writes t to path in the format implied by its extension.
func Save(path string, t *dataset.Table) (err error) {
	format, compressed, err := FormatForPath(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if compressed {
		encoder, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		if err := Write(encoder, format, t); err != nil {
			encoder.Close()
			return err
		}
		if err := encoder.Close(); err != nil {
			return fmt.Errorf("failed to finalize compression: %w", err)
		}
	} else if err := Write(f, format, t); err != nil {
		return err
	}

	log.Info().Str("path", path).Str("format", string(format)).Bool("zstd", compressed).
		Int("rows", t.Len()).Msg("table exported")
	return nil
}
