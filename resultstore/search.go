package resultstore

import (
	"os"
	"path/filepath"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/vinayprograms/speckit/errors"
)

// indexDirName is the bleve index location inside the results directory.
const indexDirName = "transcripts.bleve"

// transcriptDocument is the indexed shape of one bundle.
type transcriptDocument struct {
	RunID      string    `json:"run_id"`
	SpecKey    string    `json:"spec_key"`
	Status     string    `json:"status"`
	Transcript string    `json:"transcript"`
	Timestamp  time.Time `json:"timestamp"`
}

// SearchHit is one transcript matching a search query.
type SearchHit struct {
	RunID   string
	SpecKey string
	Status  string
	Score   float64
}

// TranscriptIndex is a full-text index over persisted transcripts.
type TranscriptIndex struct {
	index bleve.Index
}

// openTranscriptIndex opens the index in dir, creating it on first use.
func openTranscriptIndex(dir string) (*TranscriptIndex, error) {
	indexPath := filepath.Join(dir, indexDirName)

	var index bleve.Index
	var err error
	if _, statErr := os.Stat(indexPath); os.IsNotExist(statErr) {
		index, err = bleve.New(indexPath, buildIndexMapping())
	} else {
		index, err = bleve.Open(indexPath)
	}
	if err != nil {
		return nil, errors.Internal("opening transcript index", errors.WithCause(err))
	}
	return &TranscriptIndex{index: index}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name

	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	dateFieldMapping := bleve.NewDateTimeFieldMapping()

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("transcript", textFieldMapping)
	docMapping.AddFieldMappingsAt("spec_key", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("status", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("timestamp", dateFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name
	return indexMapping
}

// Add indexes one bundle, replacing any previous document for the run.
func (t *TranscriptIndex) Add(summary Summary, transcript string) error {
	doc := transcriptDocument{
		RunID:      summary.RunID,
		SpecKey:    summary.SpecKey,
		Status:     string(summary.Status),
		Transcript: transcript,
		Timestamp:  summary.Timestamp,
	}
	if err := t.index.Index(summary.RunID, doc); err != nil {
		return errors.Internal("indexing transcript", errors.WithCause(err))
	}
	return nil
}

// Search runs a full-text query over transcripts.
func (t *TranscriptIndex) Search(query string, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = 10
	}

	matchQuery := bleve.NewMatchQuery(query)
	searchReq := bleve.NewSearchRequest(matchQuery)
	searchReq.Size = limit
	searchReq.Fields = []string{"spec_key", "status"}

	result, err := t.index.Search(searchReq)
	if err != nil {
		return nil, errors.Internal("searching transcripts", errors.WithCause(err))
	}

	var hits []SearchHit
	for _, hit := range result.Hits {
		h := SearchHit{RunID: hit.ID, Score: hit.Score}
		if v, ok := hit.Fields["spec_key"].(string); ok {
			h.SpecKey = v
		}
		if v, ok := hit.Fields["status"].(string); ok {
			h.Status = v
		}
		hits = append(hits, h)
	}
	return hits, nil
}

// Close releases the underlying index.
func (t *TranscriptIndex) Close() error {
	return t.index.Close()
}
