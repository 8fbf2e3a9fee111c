package domain

import "context"

// Extractor fetches metadata for one URL of its declared kind. Extractors
// never mutate graph state; they return a record or a tagged error from the
// taxonomy in errors.go.
type Extractor interface {
	Kind() JobKind
	Extract(ctx context.Context, url string) (ExtractionRecord, error)
}

// GraphStore is the markdown collaborator: it parses outline files into
// documents and serializes them back. Implementations own the on-disk
// format; the pipeline only sees documents and nodes.
type GraphStore interface {
	Load(path string) (*Document, error)
	Save(doc *Document) error
	Render(doc *Document) []byte
}

// Prober answers content-type questions about a URL, used when path
// patterns alone cannot classify it.
type Prober interface {
	ContentType(ctx context.Context, url string) (string, error)
}
