package source

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/theirongolddev/zonerisk/internal/model"
)

// TripReader streams trip rows from an opened CSV or TSV source. The
// delimiter and header are resolved when the reader is created, so a
// source that cannot be opened fails before any row is consumed.
type TripReader struct {
	r      *csv.Reader
	idx    map[string]int
	empty  bool
	closer io.Closer
}

// OpenTrips opens a trip file and reads its header.
func OpenTrips(path string) (*TripReader, error) {
	f, err := os.Open(path) //nolint:gosec // path is chosen by the local user
	if err != nil {
		return nil, err
	}
	tr, err := NewTripReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	tr.closer = f
	return tr, nil
}

// NewTripReader sniffs the delimiter of r and reads its header line.
func NewTripReader(r io.Reader) (*TripReader, error) {
	br := bufio.NewReaderSize(r, sniffBytes)
	delim, err := peekDelimiter(br)
	if err != nil {
		return nil, err
	}

	tr := &TripReader{r: newReader(br, delim)}
	header, err := tr.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			tr.empty = true
			return tr, nil
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}
	tr.idx = headerIndex(header)
	return tr, nil
}

// Each calls fn for every row that has a pickup zone. Rows without one are
// counted and dropped. Records the CSV parser rejects are skipped; any other
// read error ends the scan.
func (tr *TripReader) Each(fn func(model.TripRecord) error) (ReadStats, error) {
	var stats ReadStats
	if tr.empty {
		return stats, nil
	}

	idx := tr.idx
	for {
		rec, err := tr.r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if !isParseError(err) {
				return stats, fmt.Errorf("reading row %d: %w", stats.Rows+1, err)
			}
			stats.Rows++
			stats.Malformed++
			continue
		}
		stats.Rows++

		zone, ok := parseInt(field(rec, idx, colPickupZone))
		if !ok {
			stats.MissingZone++
			continue
		}

		rawAmount := field(rec, idx, colAmount)
		amount := parseFloat(rawAmount)
		if amount == nil && strings.TrimSpace(rawAmount) != "" {
			stats.BadAmount++
		}

		stats.Kept++
		if err := fn(model.TripRecord{
			PickupRaw:   strings.TrimSpace(field(rec, idx, colPickup)),
			DropoffRaw:  strings.TrimSpace(field(rec, idx, colDropoff)),
			ZoneID:      zone,
			TotalAmount: amount,
		}); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// Close releases the underlying file, if any.
func (tr *TripReader) Close() error {
	if tr.closer == nil {
		return nil
	}
	return tr.closer.Close()
}

// ReadTrips streams a CSV or TSV trip file through fn.
func ReadTrips(path string, fn func(model.TripRecord) error) (ReadStats, error) {
	tr, err := OpenTrips(path)
	if err != nil {
		return ReadStats{}, err
	}
	defer func() { _ = tr.Close() }()
	return tr.Each(fn)
}

// ReadZones reads a taxi zone lookup file (LocationID,Borough,Zone,service_zone).
// Rows with a non-numeric id are skipped.
func ReadZones(path string) ([]model.Zone, error) {
	f, err := os.Open(path) //nolint:gosec // path is chosen by the local user
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	br := bufio.NewReaderSize(f, sniffBytes)
	delim, err := peekDelimiter(br)
	if err != nil {
		return nil, err
	}
	r := newReader(br, delim)
	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	var zones []model.Zone
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if !isParseError(err) {
				return nil, err
			}
			continue
		}
		if len(rec) < 4 {
			continue
		}
		id, ok := parseInt(rec[0])
		if !ok {
			continue
		}
		zones = append(zones, model.Zone{
			ZoneID:      id,
			Borough:     strings.TrimSpace(rec[1]),
			Name:        strings.TrimSpace(rec[2]),
			ServiceZone: strings.TrimSpace(rec[3]),
		})
	}
	return zones, nil
}

func newReader(r io.Reader, delim rune) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	return cr
}

// headerIndex maps canonical column names to positions. The first header
// that maps to a column wins.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		col, ok := columnAliases[h]
		if !ok {
			col = h
		}
		if _, seen := idx[col]; !seen {
			idx[col] = i
		}
	}
	return idx
}

func field(rec []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// parseFloat returns nil for blank, non-numeric and non-finite input.
func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// parseInt accepts integral and float spellings ("132", "132.0") within the
// int32 range.
func parseInt(s string) (int, bool) {
	f := parseFloat(s)
	if f == nil || *f < math.MinInt32 || *f > math.MaxInt32 {
		return 0, false
	}
	return int(*f), true
}

func isParseError(err error) bool {
	var pe *csv.ParseError
	return errors.As(err, &pe)
}
