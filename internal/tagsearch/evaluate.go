package tagsearch

import (
	"context"
	"sort"

	"github.com/selimcan/tagsense/internal/tagstore"
)

// Engine evaluates tag predicates against the tag store. Evaluation is
// set-theoretic and side-effect-free.
type Engine struct {
	store *tagstore.Store
}

// NewEngine creates a boolean search engine over the given store.
func NewEngine(store *tagstore.Store) *Engine {
	return &Engine{store: store}
}

// Evaluate returns the file paths satisfying the predicate, in lexical
// order. A nil predicate returns every tagged file. An unknown tag ID
// evaluates to the empty set; it is not an error, since tags may be
// deleted between selection and evaluation.
func (e *Engine) Evaluate(ctx context.Context, p *Predicate) ([]string, error) {
	set, err := e.evaluate(ctx, p)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(set))
	for path := range set {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

func (e *Engine) evaluate(ctx context.Context, p *Predicate) (map[string]bool, error) {
	if p == nil {
		all, err := e.store.AllFiles(ctx)
		if err != nil {
			return nil, err
		}
		return toSet(all), nil
	}

	switch p.op {
	case opHas:
		paths, err := e.store.FilesWithTag(ctx, p.tagID)
		if err != nil {
			return nil, err
		}
		return toSet(paths), nil

	case opAnd:
		left, err := e.evaluate(ctx, p.left)
		if err != nil {
			return nil, err
		}
		if len(left) == 0 {
			return left, nil
		}
		right, err := e.evaluate(ctx, p.right)
		if err != nil {
			return nil, err
		}
		return intersect(left, right), nil

	case opOr:
		left, err := e.evaluate(ctx, p.left)
		if err != nil {
			return nil, err
		}
		right, err := e.evaluate(ctx, p.right)
		if err != nil {
			return nil, err
		}
		return union(left, right), nil
	}
	return map[string]bool{}, nil
}

func toSet(paths []string) map[string]bool {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return set
}

func intersect(a, b map[string]bool) map[string]bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	out := make(map[string]bool)
	for p := range a {
		if b[p] {
			out[p] = true
		}
	}
	return out
}

func union(a, b map[string]bool) map[string]bool {
	out := make(map[string]bool, len(a)+len(b))
	for p := range a {
		out[p] = true
	}
	for p := range b {
		out[p] = true
	}
	return out
}
