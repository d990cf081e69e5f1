package ports

import "context"

// GeneSetSource delivers gene-set collections from an external database
// as a set-name -> member-identifiers mapping. Loading and caching live
// behind this interface; the engine only consumes the mapping.
type GeneSetSource interface {
	Sets(ctx context.Context) (map[string][]string, error)
}
