// Package catalog loads the NASA Earthdata dataset catalog, a
// tab-separated table of collections published by the opengeos project.
package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultURL is the published catalog location.
const DefaultURL = "https://github.com/opengeos/NASA-Earth-Data/raw/main/nasa_earth_data.tsv"

// DefaultMaxAge is how long a cached catalog file stays valid.
const DefaultMaxAge = 7 * 24 * time.Hour

const cacheFileName = "nasa_earth_data.tsv"

// Dataset is one catalog row. Columns beyond the two the UI needs are
// preserved in Extra keyed by header name.
type Dataset struct {
	ShortName  string
	EntryTitle string
	Extra      map[string]string
}

// Catalog is an immutable, ordered set of datasets.
type Catalog struct {
	datasets []Dataset
}

// Datasets returns all rows in file order.
func (c *Catalog) Datasets() []Dataset { return c.datasets }

// Len returns the number of datasets.
func (c *Catalog) Len() int { return len(c.datasets) }

// ShortNames returns every dataset short name, in file order.
func (c *Catalog) ShortNames() []string {
	names := make([]string, 0, len(c.datasets))
	for _, d := range c.datasets {
		names = append(names, d.ShortName)
	}
	return names
}

// FilterByKeyword returns the short names of datasets whose short name or
// entry title contains the keyword, case-insensitively. An empty keyword
// matches nothing.
func (c *Catalog) FilterByKeyword(keyword string) []string {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return nil
	}
	var matches []string
	for _, d := range c.datasets {
		if strings.Contains(strings.ToLower(d.ShortName), keyword) ||
			strings.Contains(strings.ToLower(d.EntryTitle), keyword) {
			matches = append(matches, d.ShortName)
		}
	}
	return matches
}

// Title returns the entry title for a short name, or "" when unknown.
func (c *Catalog) Title(shortName string) string {
	for _, d := range c.datasets {
		if d.ShortName == shortName {
			return d.EntryTitle
		}
	}
	return ""
}

// Service fetches the catalog over HTTP and keeps a disk cache so the
// application starts without a network round trip most of the time.
type Service struct {
	url        string
	cacheDir   string
	maxAge     time.Duration
	httpClient *http.Client
	log        zerolog.Logger
}

// NewService builds a catalog service. cacheDir may be "" to disable the
// disk cache entirely.
func NewService(url, cacheDir string, maxAge time.Duration, log zerolog.Logger) *Service {
	if url == "" {
		url = DefaultURL
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Service{
		url:      url,
		cacheDir: cacheDir,
		maxAge:   maxAge,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("component", "catalog").Logger(),
	}
}

// Load returns the catalog, preferring a fresh disk cache unless
// forceRefresh is set. A successful download rewrites the cache file.
func (s *Service) Load(ctx context.Context, forceRefresh bool) (*Catalog, error) {
	if !forceRefresh {
		if cat, ok := s.loadFromCache(); ok {
			s.log.Debug().Int("datasets", cat.Len()).Msg("catalog loaded from cache")
			return cat, nil
		}
	}

	data, err := s.download(ctx)
	if err != nil {
		// A stale cache beats no catalog at all when the network is down.
		if cat, ok := s.loadFromCacheIgnoringAge(); ok {
			s.log.Warn().Err(err).Msg("catalog download failed, using stale cache")
			return cat, nil
		}
		return nil, err
	}

	cat, err := Parse(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	s.writeCache(data)
	s.log.Info().Int("datasets", cat.Len()).Msg("catalog downloaded")
	return cat, nil
}

func (s *Service) cachePath() string {
	if s.cacheDir == "" {
		return ""
	}
	return filepath.Join(s.cacheDir, cacheFileName)
}

func (s *Service) loadFromCache() (*Catalog, bool) {
	path := s.cachePath()
	if path == "" {
		return nil, false
	}
	info, err := os.Stat(path)
	if err != nil || time.Since(info.ModTime()) >= s.maxAge {
		return nil, false
	}
	return s.readCacheFile(path)
}

func (s *Service) loadFromCacheIgnoringAge() (*Catalog, bool) {
	path := s.cachePath()
	if path == "" {
		return nil, false
	}
	if _, err := os.Stat(path); err != nil {
		return nil, false
	}
	return s.readCacheFile(path)
}

func (s *Service) readCacheFile(path string) (*Catalog, bool) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()
	cat, err := Parse(f)
	if err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("discarding unreadable catalog cache")
		return nil, false
	}
	return cat, true
}

func (s *Service) writeCache(data []byte) {
	path := s.cachePath()
	if path == "" {
		return
	}
	if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
		s.log.Warn().Err(err).Msg("cannot create catalog cache dir")
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("cannot write catalog cache")
	}
}

func (s *Service) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download catalog: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read catalog body: %w", err)
	}
	return data, nil
}

// Parse reads a tab-separated catalog with a header row. Rows missing a
// ShortName are skipped; ragged rows are tolerated.
func Parse(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	shortIdx, titleIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case "ShortName":
			shortIdx = i
		case "EntryTitle":
			titleIdx = i
		}
	}
	if shortIdx < 0 {
		return nil, fmt.Errorf("catalog has no ShortName column")
	}

	var datasets []Dataset
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if shortIdx >= len(record) || strings.TrimSpace(record[shortIdx]) == "" {
			continue
		}
		d := Dataset{
			ShortName: strings.TrimSpace(record[shortIdx]),
			Extra:     make(map[string]string, len(header)),
		}
		if titleIdx >= 0 && titleIdx < len(record) {
			d.EntryTitle = strings.TrimSpace(record[titleIdx])
		}
		for i, col := range header {
			if i == shortIdx || i == titleIdx || i >= len(record) {
				continue
			}
			if v := strings.TrimSpace(record[i]); v != "" {
				d.Extra[strings.TrimSpace(col)] = v
			}
		}
		datasets = append(datasets, d)
	}
	return &Catalog{datasets: datasets}, nil
}
