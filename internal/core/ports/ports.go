package ports

import (
	"time"

	"autoinject/internal/data/cache"
	"autoinject/internal/engine/inject"
)

// SourceTransformer rewrites one file identified by id (filename[?query]).
type SourceTransformer interface {
	Transform(code, id string) *inject.Result
}

// ResultCache stores transform outcomes keyed by path and content.
type ResultCache interface {
	Get(key cache.Key) (cache.Entry, bool)
	Put(key cache.Key, entry cache.Entry)
}

// BuildStore records build runs and the imports injected per file.
type BuildStore interface {
	BeginRun(started time.Time) (string, error)
	FinishRun(run cache.Run) error
	ReplaceDependencies(path, runID string, imports []inject.PendingImport) error
}
