package tagsearch

import (
	"context"
	"reflect"
	"testing"

	"github.com/selimcan/tagsense/internal/db"
	"github.com/selimcan/tagsense/internal/tagstore"
)

// fixture builds a store with three tags and three files:
//
//	/a.txt: finance, 2024
//	/b.txt: finance
//	/c.txt: personal
func fixture(t *testing.T) (*Engine, map[string]int64) {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	store := tagstore.NewStore(d)
	ctx := context.Background()

	ids := map[string]int64{}
	for _, name := range []string{"finance", "2024", "personal"} {
		tag, err := store.CreateTag(ctx, name, "")
		if err != nil {
			t.Fatalf("CreateTag(%s) error: %v", name, err)
		}
		ids[name] = tag.ID
	}
	for path, tags := range map[string][]string{
		"/a.txt": {"finance", "2024"},
		"/b.txt": {"finance"},
		"/c.txt": {"personal"},
	} {
		for _, name := range tags {
			if err := store.TagFile(ctx, path, ids[name]); err != nil {
				t.Fatalf("TagFile(%s, %s) error: %v", path, name, err)
			}
		}
	}
	return NewEngine(store), ids
}

func TestEvaluateHas(t *testing.T) {
	e, ids := fixture(t)
	got, err := e.Evaluate(context.Background(), Has(ids["finance"]))
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	want := []string{"/a.txt", "/b.txt"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Evaluate(has finance) = %v, want %v", got, want)
	}
}

func TestEvaluateAndOr(t *testing.T) {
	e, ids := fixture(t)
	ctx := context.Background()

	got, _ := e.Evaluate(ctx, And(Has(ids["finance"]), Has(ids["2024"])))
	if !reflect.DeepEqual(got, []string{"/a.txt"}) {
		t.Errorf("AND = %v, want [/a.txt]", got)
	}

	got, _ = e.Evaluate(ctx, Or(Has(ids["2024"]), Has(ids["personal"])))
	if !reflect.DeepEqual(got, []string{"/a.txt", "/c.txt"}) {
		t.Errorf("OR = %v, want [/a.txt /c.txt]", got)
	}

	got, _ = e.Evaluate(ctx, And(Has(ids["2024"]), Has(ids["personal"])))
	if len(got) != 0 {
		t.Errorf("disjoint AND = %v, want empty", got)
	}
}

func TestEvaluateNilPredicate(t *testing.T) {
	e, _ := fixture(t)
	got, err := e.Evaluate(context.Background(), nil)
	if err != nil {
		t.Fatalf("Evaluate(nil) error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"/a.txt", "/b.txt", "/c.txt"}) {
		t.Errorf("Evaluate(nil) = %v, want all files", got)
	}
}

func TestEvaluateUnknownTag(t *testing.T) {
	e, ids := fixture(t)
	ctx := context.Background()

	got, err := e.Evaluate(ctx, Has(9999))
	if err != nil {
		t.Fatalf("Evaluate(unknown) error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("unknown tag = %v, want empty set", got)
	}

	// Unknown tag inside OR leaves the other branch intact.
	got, _ = e.Evaluate(ctx, Or(Has(9999), Has(ids["personal"])))
	if !reflect.DeepEqual(got, []string{"/c.txt"}) {
		t.Errorf("OR with unknown = %v, want [/c.txt]", got)
	}
}

func TestEvaluateIdempotentLaws(t *testing.T) {
	e, ids := fixture(t)
	ctx := context.Background()

	p := Has(ids["finance"])
	base, _ := e.Evaluate(ctx, p)

	andSelf, _ := e.Evaluate(ctx, And(p, p))
	if !reflect.DeepEqual(andSelf, base) {
		t.Errorf("AND(P,P) = %v, want %v", andSelf, base)
	}
	orSelf, _ := e.Evaluate(ctx, Or(p, p))
	if !reflect.DeepEqual(orSelf, base) {
		t.Errorf("OR(P,P) = %v, want %v", orSelf, base)
	}
}

func TestMatchesSnapshot(t *testing.T) {
	p := And(Has(1), Or(Has(2), Has(3)))

	cases := []struct {
		name string
		set  map[int64]bool
		want bool
	}{
		{"both branches", map[int64]bool{1: true, 2: true}, true},
		{"other or branch", map[int64]bool{1: true, 3: true}, true},
		{"missing and branch", map[int64]bool{2: true, 3: true}, false},
		{"empty set", map[int64]bool{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.Matches(tc.set); got != tc.want {
				t.Errorf("Matches(%v) = %v, want %v", tc.set, got, tc.want)
			}
		})
	}

	// Nil predicate matches everything, including the empty set.
	var nilPred *Predicate
	if !nilPred.Matches(map[int64]bool{}) {
		t.Error("nil predicate should match the empty set")
	}
}

func TestAllAnyBuilders(t *testing.T) {
	if All() != nil {
		t.Error("All() with no args should be nil")
	}
	if Any() != nil {
		t.Error("Any() with no args should be nil")
	}
	set := map[int64]bool{1: true, 2: true}
	if !All(Has(1), Has(2)).Matches(set) {
		t.Error("All(1,2) should match {1,2}")
	}
	if All(Has(1), Has(3)).Matches(set) {
		t.Error("All(1,3) should not match {1,2}")
	}
	if !Any(Has(3), Has(2)).Matches(set) {
		t.Error("Any(3,2) should match {1,2}")
	}
}
