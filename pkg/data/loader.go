package data

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"albumrank/pkg/album"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// ErrDataUnavailable is returned when the source cannot be fetched or parsed.
var ErrDataUnavailable = errors.New("data: source unavailable")

// MissingMarkers are the cell values read as missing.
var MissingMarkers = []string{"", "NA", "NaN"}

// DefaultSource is the published Rolling Stone 500 table.
const DefaultSource = "https://raw.githubusercontent.com/rfordatascience/tidytuesday/master/data/2024/2024-05-07/rolling_stone.csv"

type loader struct {
	client  *http.Client
	timeout time.Duration
}

// Option configures Load.
type Option func(*loader)

// WithHTTPClient replaces the client used for http(s) sources.
func WithHTTPClient(c *http.Client) Option { return func(l *loader) { l.client = c } }

// WithTimeout bounds the fetch. Zero disables the bound.
func WithTimeout(d time.Duration) Option { return func(l *loader) { l.timeout = d } }

// Load reads the CSV at source into a frame. Sources starting with http://
// or https:// are fetched with a single GET; anything else is a file path.
// No rows are modified: only column types are inferred.
func Load(ctx context.Context, source string, opts ...Option) (dataframe.DataFrame, error) {
	l := &loader{client: http.DefaultClient, timeout: 30 * time.Second}
	for _, o := range opts {
		o(l)
	}

	var (
		body []byte
		err  error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		body, err = l.fetch(ctx, source)
	} else {
		body, err = os.ReadFile(source)
	}
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %s: %v", ErrDataUnavailable, source, err)
	}
	return Read(bytes.NewReader(body))
}

// Read parses CSV with a header row. A cell in a numeric source column that
// is neither a missing marker nor a number fails the read instead of
// becoming NaN.
func Read(r io.Reader) (dataframe.DataFrame, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: read csv: %v", ErrDataUnavailable, err)
	}
	if err := checkNumeric(raw); err != nil {
		return dataframe.DataFrame{}, err
	}
	df := dataframe.ReadCSV(bytes.NewReader(raw),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(MissingMarkers),
		dataframe.WithTypes(album.SourceTypes()),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: parse csv: %v", ErrDataUnavailable, df.Err)
	}
	if df.Nrow() == 0 || df.Ncol() == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("%w: no rows", ErrDataUnavailable)
	}
	return df, nil
}

// checkNumeric reads raw as text and verifies every column pinned to float.
// Rows are numbered from 1, not counting the header.
func checkNumeric(raw []byte) error {
	df := dataframe.ReadCSV(bytes.NewReader(raw),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.NaNValues(MissingMarkers),
	)
	if df.Err != nil {
		return nil // reported by the typed parse
	}
	types := album.SourceTypes()
	for _, name := range df.Names() {
		if types[name] != series.Float {
			continue
		}
		col := df.Col(name)
		for i := 0; i < col.Len(); i++ {
			el := col.Elem(i)
			if album.IsMissing(el) {
				continue
			}
			if _, err := strconv.ParseFloat(el.String(), 64); err != nil {
				return fmt.Errorf("%w: column %s row %d: %q is not a number",
					ErrDataUnavailable, name, i+1, el.String())
			}
		}
	}
	return nil
}

func (l *loader) fetch(ctx context.Context, url string) ([]byte, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty body")
	}
	return body, nil
}
