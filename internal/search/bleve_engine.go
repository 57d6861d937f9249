package search

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/pixa/internal/debuglog"
	"github.com/pders01/pixa/internal/storage"
)

// BleveEngine indexes the download ledger. The store stays the source of
// truth; the index only maps text to download IDs.
type BleveEngine struct {
	store *storage.Store
	idx   bleve.Index
	log   *debuglog.FieldLogger
}

// NewBleveEngine creates or opens a Bleve index at indexPath and indexes current data.
func NewBleveEngine(store *storage.Store, indexPath string) (*BleveEngine, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	idx, err := bleve.Open(indexPath)
	if err != nil {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating index: %w", err)
		}
	}

	be := &BleveEngine{
		store: store,
		idx:   idx,
		log:   debuglog.WithFields(map[string]interface{}{"component": "search"}),
	}
	if err := be.reindexAll(); err != nil {
		_ = idx.Close()
		return nil, err
	}
	return be, nil
}

// NewMemoryBleveEngine builds a throwaway in-memory index.
func NewMemoryBleveEngine(store *storage.Store) (*BleveEngine, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, err
	}
	be := &BleveEngine{
		store: store,
		idx:   idx,
		log:   debuglog.WithFields(map[string]interface{}{"component": "search"}),
	}
	if err := be.reindexAll(); err != nil {
		return nil, err
	}
	return be, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	tags := bleve.NewTextFieldMapping()
	tags.Analyzer = standard.Name
	tags.IncludeTermVectors = true

	user := bleve.NewTextFieldMapping()
	user.Analyzer = standard.Name

	kind := bleve.NewTextFieldMapping()
	kind.Analyzer = keyword.Name

	pageURL := bleve.NewTextFieldMapping()
	pageURL.Analyzer = standard.Name

	dm.AddFieldMappingsAt("tags", tags)
	dm.AddFieldMappingsAt("user", user)
	dm.AddFieldMappingsAt("type", kind)
	dm.AddFieldMappingsAt("url", pageURL)

	im.DefaultMapping = dm
	return im
}

func document(d *storage.Download) map[string]any {
	return map[string]any{
		"tags": d.Image.Tags,
		"user": d.Image.User,
		"type": d.Image.Type,
		"url":  d.Image.PageURL,
	}
}

func docID(id int) string { return "download:" + strconv.Itoa(id) }

func (b *BleveEngine) reindexAll() error {
	downloads, err := b.store.GetAllDownloads()
	if err != nil {
		return err
	}
	batch := b.idx.NewBatch()
	for _, d := range downloads {
		if err := batch.Index(docID(d.Image.ID), document(d)); err != nil {
			return err
		}
	}
	return b.idx.Batch(batch)
}

func (b *BleveEngine) Search(query string, limit int) ([]*Result, error) {
	if len([]rune(strings.TrimSpace(query))) < MinQueryLength {
		return []*Result{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	// OR of per-term matches and prefixes, weighted by field
	var qs []bleveQuery.Query
	boosts := []struct {
		field string
		exact float64
		pfx   float64
	}{
		{"tags", 4.0, 3.5},
		{"user", 2.0, 1.8},
		{"url", 0.5, 0.3},
	}
	for _, tok := range tokenize(query) {
		for _, f := range boosts {
			m := bleve.NewMatchQuery(tok)
			m.SetField(f.field)
			m.SetBoost(f.exact)
			p := bleve.NewPrefixQuery(tok)
			p.SetField(f.field)
			p.SetBoost(f.pfx)
			qs = append(qs, m, p)
		}
		t := bleve.NewTermQuery(tok)
		t.SetField("type")
		qs = append(qs, t)
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	res, err := b.idx.Search(req)
	if err != nil {
		return nil, err
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, err := strconv.Atoi(strings.TrimPrefix(h.ID, "download:"))
		if err != nil {
			continue
		}
		d, err := b.store.GetDownload(id)
		if err != nil {
			// Index entry outlived its download.
			b.log.Debugf("dropping orphaned index entry %s: %v", h.ID, err)
			_ = b.idx.Delete(h.ID)
			continue
		}
		out = append(out, &Result{Download: d, Score: h.Score})
	}
	return out, nil
}

// OnDownloaded indexes a new or updated download.
func (b *BleveEngine) OnDownloaded(d *storage.Download) {
	if d == nil {
		return
	}
	if err := b.idx.Index(docID(d.Image.ID), document(d)); err != nil {
		b.log.Warnf("indexing download %d: %v", d.Image.ID, err)
	}
}

// OnDeleted removes a download from the index.
func (b *BleveEngine) OnDeleted(id int) {
	if err := b.idx.Delete(docID(id)); err != nil {
		b.log.Warnf("removing download %d from index: %v", id, err)
	}
}

// DocCount reports total documents in the index.
func (b *BleveEngine) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	return int(n), err
}

func (b *BleveEngine) Close() error {
	return b.idx.Close()
}
