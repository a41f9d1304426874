package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// ErrLoad wraps every failure to obtain or parse the dataset document.
// Callers treat it as terminal for the session.
var ErrLoad = errors.New("dataset load failed")

var httpClient = &http.Client{Timeout: 30 * time.Second}

// IsRemote reports whether source should be fetched over HTTP.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Load reads the dataset document from a local path or an http(s) URL and
// returns it default-filled.
func Load(ctx context.Context, source string) (*Dataset, error) {
	if source == "" {
		return nil, fmt.Errorf("%w: no dataset source configured", ErrLoad)
	}

	body, err := open(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer body.Close()

	ds, err := Decode(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, source, err)
	}
	return ds, nil
}

// Decode parses a dataset document and normalizes it.
func Decode(r io.Reader) (*Dataset, error) {
	var ds Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}
	return ds.Normalize(), nil
}

// Write encodes the dataset as indented JSON without escaping CJK or HTML
// characters.
func Write(w io.Writer, ds *Dataset) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ds); err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}
	return nil
}

// Save writes the dataset document to path.
func Save(path string, ds *Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Write(f, ds); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func open(ctx context.Context, source string) (io.ReadCloser, error) {
	if !IsRemote(source) {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open dataset: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dataset: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch dataset: bad status: %s", resp.Status)
	}
	return resp.Body, nil
}
