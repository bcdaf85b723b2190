// Package nested implements the one-edge-deep entity expansion behind
// GET /entities/{id} and /entities/{id}/adjacent: resolve outgoing
// entity-typed property values and incoming references one hop out,
// expanding again through edge-schema entities (Sanction, Payment)
// without recursing past their far side, breaking cycles with a
// visited-ID set. Edges are derived on demand from a flat
// {id -> entity} map; entities never hold back-references.
package nested

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/sentryscreen/sentryscreen/internal/apierr"
	"github.com/sentryscreen/sentryscreen/internal/entity"
	"github.com/sentryscreen/sentryscreen/internal/indexstore"
)

// Fetched is the result of resolving one entity plus its one-hop
// neighborhood: the root, every outgoing reference target, and every
// incoming reference source, each resolved as far as an edge-schema
// boundary allows.
type Fetched struct {
	Root     *entity.Entity
	Entities map[string]*entity.Entity // every resolved entity by id, including Root
	Outgoing map[string][]string       // root property name -> referenced ids
	Incoming []string                  // ids of entities that reference Root
}

// Resolver fetches entities from an alias and expands their neighborhood.
type Resolver struct {
	store *indexstore.Store
	alias string
}

// NewResolver builds a Resolver bound to one alias.
func NewResolver(store *indexstore.Store, alias string) *Resolver {
	return &Resolver{store: store, alias: alias}
}

// Get fetches a single entity by id, or the canonical id it redirects to
// if id is a referent stub.
func (r *Resolver) Get(ctx context.Context, id string) (e *entity.Entity, canonicalID string, err error) {
	result, err := r.store.Search(ctx, r.alias, bleve.NewDocIDQuery([]string{id}), indexstore.SearchOptions{Size: 1})
	if err != nil {
		return nil, "", err
	}
	if len(result.Hits) == 0 {
		return nil, "", apierr.NotFound(fmt.Sprintf("entity %q not found", id))
	}
	return indexstore.EntityFromFields(result.Hits[0].Fields)
}

// Resolve fetches root and expands its neighborhood one edge deep:
// outgoing entity-typed property values and incoming references,
// expanding again through any edge-schema entity on the far side without
// recursing past it, never revisiting an id already on the current
// traversal path.
func (r *Resolver) Resolve(ctx context.Context, root *entity.Entity, nested bool) (*Fetched, error) {
	out := &Fetched{
		Root:     root,
		Entities: map[string]*entity.Entity{root.ID: root},
		Outgoing: map[string][]string{},
	}
	if !nested {
		return out, nil
	}

	visited := map[string]bool{root.ID: true}
	if err := r.expandOutgoing(ctx, root, out, visited); err != nil {
		return nil, err
	}
	if err := r.expandIncoming(ctx, root, out, visited); err != nil {
		return nil, err
	}
	return out, nil
}

// expandOutgoing resolves every entity-typed property value on e,
// recording the property -> referenced-ids mapping and fetching each
// referenced entity. One hop only, except that an edge-schema target
// (Sanction, Payment) is passed through: its own far side is fetched
// one further hop and expansion stops there.
func (r *Resolver) expandOutgoing(ctx context.Context, e *entity.Entity, out *Fetched, visited map[string]bool) error {
	for prop, vals := range e.Properties {
		pt, ok := entity.PropertyTypeOf(e.Schema, prop)
		if !ok || pt != entity.PropEntity {
			continue
		}
		for _, v := range vals {
			if v.Ref == "" || visited[v.Ref] {
				continue
			}
			out.Outgoing[prop] = append(out.Outgoing[prop], v.Ref)
			visited[v.Ref] = true

			ref, err := r.fetch(ctx, v.Ref)
			if err != nil {
				return err
			}
			if ref == nil {
				continue
			}
			out.Entities[ref.ID] = ref
			if entity.Edge(ref.Schema) {
				if err := r.expandEdge(ctx, ref, out, visited); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// fetch resolves an id to its entity, following a referent stub's
// canonical redirect once. A missing entity is nil, not an error:
// dangling references in source data must not fail a whole fetch.
func (r *Resolver) fetch(ctx context.Context, id string) (*entity.Entity, error) {
	e, canonical, err := r.Get(ctx, id)
	if err != nil {
		if apierr.KindOf(err) == apierr.KindNotFound {
			return nil, nil
		}
		return nil, err
	}
	if e == nil && canonical != "" {
		e, _, err = r.Get(ctx, canonical)
		if err != nil {
			if apierr.KindOf(err) == apierr.KindNotFound {
				return nil, nil
			}
			return nil, err
		}
	}
	return e, nil
}

// expandEdge fetches the far side of an edge-schema entity: every
// entity-typed property value on the edge is resolved one further hop,
// and expansion stops there regardless of what sits on the far side.
func (r *Resolver) expandEdge(ctx context.Context, edge *entity.Entity, out *Fetched, visited map[string]bool) error {
	for prop, vals := range edge.Properties {
		pt, ok := entity.PropertyTypeOf(edge.Schema, prop)
		if !ok || pt != entity.PropEntity {
			continue
		}
		for _, v := range vals {
			if v.Ref == "" || visited[v.Ref] {
				continue
			}
			visited[v.Ref] = true
			far, err := r.fetch(ctx, v.Ref)
			if err != nil {
				return err
			}
			if far == nil {
				continue
			}
			out.Entities[far.ID] = far
		}
	}
	return nil
}

// expandIncoming finds every entity whose entity-typed property points
// at e (a "reverse edge"), the same distance-one expansion applied in
// the other direction. An incoming edge-schema entity is passed through
// like an outgoing one: a Payment pointing at e also yields the payer
// or payee on its other side.
func (r *Resolver) expandIncoming(ctx context.Context, e *entity.Entity, out *Fetched, visited map[string]bool) error {
	tq := query.NewTermQuery(e.ID)
	tq.SetField(indexstore.FieldEntityRefs)

	result, err := r.store.Search(ctx, r.alias, tq, indexstore.SearchOptions{Size: 200})
	if err != nil {
		if apierr.KindOf(err) == apierr.KindIndexNotReady {
			return nil
		}
		return err
	}

	for _, hit := range result.Hits {
		src, _, err := indexstore.EntityFromFields(hit.Fields)
		if err != nil || src == nil || visited[src.ID] {
			continue
		}
		visited[src.ID] = true
		out.Incoming = append(out.Incoming, src.ID)
		out.Entities[src.ID] = src
		if entity.Edge(src.Schema) {
			if err := r.expandEdge(ctx, src, out, visited); err != nil {
				return err
			}
		}
	}
	return nil
}

// AdjacentPage is one page of a single property's adjacency values, the
// shape served by GET /entities/{id}/adjacent[/{prop}].
type AdjacentPage struct {
	Property string
	Total    int
	Offset   int
	Limit    int
	Entities []*entity.Entity
}

// Adjacent paginates a single outgoing property's resolved entities from
// an already-Resolved Fetched result.
func Adjacent(fetched *Fetched, prop string, offset, limit int) (AdjacentPage, bool) {
	ids, ok := fetched.Outgoing[prop]
	if !ok {
		return AdjacentPage{}, false
	}
	page := AdjacentPage{Property: prop, Total: len(ids), Offset: offset, Limit: limit}
	if offset >= len(ids) {
		return page, true
	}
	end := offset + limit
	if limit <= 0 || end > len(ids) {
		end = len(ids)
	}
	for _, id := range ids[offset:end] {
		if e, ok := fetched.Entities[id]; ok {
			page.Entities = append(page.Entities, e)
		}
	}
	return page, true
}
