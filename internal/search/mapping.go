package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for book documents.
//
// Titles and authors are stemmed English text with term vectors for
// highlighting. owner_id and status are keywords so they can act as
// exact filters.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	textField := func(store, vectors bool) *mapping.FieldMapping {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = en.AnalyzerName
		fm.Store = store
		fm.IncludeTermVectors = vectors
		return fm
	}
	keywordField := func(store bool) *mapping.FieldMapping {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		fm.Store = store
		return fm
	}
	numericField := func() *mapping.FieldMapping {
		fm := bleve.NewNumericFieldMapping()
		fm.Store = true
		return fm
	}

	docMapping.AddFieldMappingsAt("title", textField(true, true))
	docMapping.AddFieldMappingsAt("authors", textField(true, true))
	// Description and review text are searchable but too large to store.
	docMapping.AddFieldMappingsAt("description", textField(false, false))
	docMapping.AddFieldMappingsAt("review_text", textField(false, false))

	docMapping.AddFieldMappingsAt("id", keywordField(false))
	docMapping.AddFieldMappingsAt("owner_id", keywordField(false))
	docMapping.AddFieldMappingsAt("status", keywordField(true))
	docMapping.AddFieldMappingsAt("title_sort", keywordField(false))

	docMapping.AddFieldMappingsAt("publish_year", numericField())
	docMapping.AddFieldMappingsAt("overall", numericField())
	docMapping.AddFieldMappingsAt("created_at", numericField())
	docMapping.AddFieldMappingsAt("updated_at", numericField())

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}
