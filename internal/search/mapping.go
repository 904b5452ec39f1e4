package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for summary documents.
// Text fields use English stemming; platform and difficulty are exact
// keywords for filtering.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	text := func(store, vectors bool) *mapping.FieldMapping {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = en.AnalyzerName
		fm.Store = store
		fm.IncludeTermVectors = vectors
		return fm
	}
	exact := func() *mapping.FieldMapping {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		fm.Store = true
		return fm
	}

	docMapping.AddFieldMappingsAt("title", text(true, true))
	docMapping.AddFieldMappingsAt("topics", text(true, true))
	docMapping.AddFieldMappingsAt("takeaways", text(false, false))
	// The summary template repeats across videos; not worth storing.
	docMapping.AddFieldMappingsAt("quick_summary", text(false, false))

	docMapping.AddFieldMappingsAt("url", exact())
	docMapping.AddFieldMappingsAt("platform", exact())
	docMapping.AddFieldMappingsAt("difficulty", exact())

	generatedAt := bleve.NewNumericFieldMapping()
	generatedAt.Store = true
	docMapping.AddFieldMappingsAt("generated_at", generatedAt)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
