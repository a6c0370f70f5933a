// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the content-graph entities mirrored from the
// remote source: content items, pages, sitemap entries, dependency
// records and sync cursor state.
package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Content item states as reported by the remote change log.
const (
	StateStaging   = 1
	StatePublished = 2
	StateDeleted   = 3
)

// FieldKind classifies a field value once at ingest so that expansion
// never has to re-sniff the shape of a loosely-typed field map.
type FieldKind int

const (
	// FieldScalar is any plain value: string, number, bool, object
	// without link markers. The raw JSON is preserved verbatim.
	FieldScalar FieldKind = iota

	// FieldSingleLink references one content item by id.
	FieldSingleLink

	// FieldMultiLink references an ordered list of content items.
	FieldMultiLink

	// FieldNamedListLink references a whole content list by name.
	FieldNamedListLink
)

// FieldValue is the closed tagged variant occupying a field slot.
// Link descriptors keep their raw identifiers even after resolution so
// that a failed resolution degrades gracefully instead of dropping the
// field.
type FieldValue struct {
	Kind FieldKind

	// Scalar holds the raw JSON for FieldScalar values.
	Scalar json.RawMessage

	// ContentID is the target of a FieldSingleLink.
	ContentID int64

	// SortIDs is the ordered target list of a FieldMultiLink.
	SortIDs []int64

	// ReferenceName names the content list of a FieldNamedListLink.
	ReferenceName string

	// Item is the resolved target of a single link, nil while raw.
	Item *ContentItem

	// Items is the resolved list of a multi or named-list link.
	Items []*ContentItem
}

// linkEnvelope is the wire shape of a link descriptor.
type linkEnvelope struct {
	ContentID     json.Number    `json:"contentid,omitempty"`
	SortIDs       string         `json:"sortids,omitempty"`
	ReferenceName string         `json:"referencename,omitempty"`
	Item          *ContentItem   `json:"item,omitempty"`
	Items         []*ContentItem `json:"items,omitempty"`
}

// UnmarshalJSON classifies the field shape exactly once. An object
// carrying a positive "contentid" is a single link, a "sortids" string
// is a multi link, a "referencename" is a named-list link; anything
// else is a scalar kept verbatim.
func (f *FieldValue) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "{") {
		f.Kind = FieldScalar
		f.Scalar = append(json.RawMessage(nil), data...)
		return nil
	}

	var env linkEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		// Objects that do not fit the envelope are scalars.
		f.Kind = FieldScalar
		f.Scalar = append(json.RawMessage(nil), data...)
		return nil
	}

	switch {
	case env.ContentID != "":
		id, err := env.ContentID.Int64()
		if err != nil {
			return fmt.Errorf("link descriptor: bad contentid %q", env.ContentID)
		}
		if id <= 0 {
			// An empty link slot carries a zero id; keep it as a
			// plain value rather than rejecting the whole item.
			f.Kind = FieldScalar
			f.Scalar = append(json.RawMessage(nil), data...)
			return nil
		}
		f.Kind = FieldSingleLink
		f.ContentID = id
		f.Item = env.Item
	case env.SortIDs != "":
		ids, err := ParseSortIDs(env.SortIDs)
		if err != nil {
			return fmt.Errorf("link descriptor: %w", err)
		}
		f.Kind = FieldMultiLink
		f.SortIDs = ids
		f.Items = env.Items
	case env.ReferenceName != "":
		f.Kind = FieldNamedListLink
		f.ReferenceName = strings.ToLower(env.ReferenceName)
		f.Items = env.Items
	default:
		f.Kind = FieldScalar
		f.Scalar = append(json.RawMessage(nil), data...)
	}
	return nil
}

// MarshalJSON writes the descriptor back with its raw identifiers plus
// whatever has been resolved into it.
func (f *FieldValue) MarshalJSON() ([]byte, error) {
	switch f.Kind {
	case FieldScalar:
		if len(f.Scalar) == 0 {
			return []byte("null"), nil
		}
		return f.Scalar, nil
	case FieldSingleLink:
		return json.Marshal(linkEnvelope{
			ContentID: json.Number(strconv.FormatInt(f.ContentID, 10)),
			Item:      f.Item,
		})
	case FieldMultiLink:
		return json.Marshal(linkEnvelope{
			SortIDs: FormatSortIDs(f.SortIDs),
			Items:   f.Items,
		})
	case FieldNamedListLink:
		return json.Marshal(linkEnvelope{
			ReferenceName: f.ReferenceName,
			Items:         f.Items,
		})
	}
	return nil, fmt.Errorf("field value: unknown kind %d", f.Kind)
}

// ParseSortIDs parses a comma-separated id list, preserving order.
// Non-positive and malformed entries fail loudly rather than being
// silently dropped.
func ParseSortIDs(s string) ([]int64, error) {
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad sortids entry %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// FormatSortIDs renders an id list back to the comma-separated wire form.
func FormatSortIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// ItemProperties carries the schema tag, list alias and state of an item.
type ItemProperties struct {
	State          int    `json:"state"`
	DefinitionName string `json:"definitionName,omitempty"`
	ReferenceName  string `json:"referenceName,omitempty"`
	VersionID      int64  `json:"versionID,omitempty"`
}

// ContentItem is one versioned item of the remote content graph,
// identified by (ContentID, LanguageCode).
type ContentItem struct {
	ContentID    int64                  `json:"contentID"`
	LanguageCode string                 `json:"languageCode"`
	Properties   ItemProperties         `json:"properties"`
	Fields       map[string]*FieldValue `json:"fields,omitempty"`
}

// IsDeleted reports whether the change log marked this item deleted.
func (c *ContentItem) IsDeleted() bool {
	return c.Properties.State == StateDeleted
}

// ReferenceName returns the item's lowercased list alias, if any.
func (c *ContentItem) ReferenceName() string {
	return strings.ToLower(c.Properties.ReferenceName)
}

// Clone returns a deep structural copy. Expansion embeds clones so the
// pass cache never shares mutable substructure with materialized trees.
func (c *ContentItem) Clone() *ContentItem {
	if c == nil {
		return nil
	}
	out := &ContentItem{
		ContentID:    c.ContentID,
		LanguageCode: c.LanguageCode,
		Properties:   c.Properties,
	}
	if c.Fields != nil {
		out.Fields = make(map[string]*FieldValue, len(c.Fields))
		for name, fv := range c.Fields {
			out.Fields[name] = fv.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the field value.
func (f *FieldValue) Clone() *FieldValue {
	if f == nil {
		return nil
	}
	out := &FieldValue{
		Kind:          f.Kind,
		ContentID:     f.ContentID,
		ReferenceName: f.ReferenceName,
		Item:          f.Item.Clone(),
	}
	if f.Scalar != nil {
		out.Scalar = append(json.RawMessage(nil), f.Scalar...)
	}
	if f.SortIDs != nil {
		out.SortIDs = append([]int64(nil), f.SortIDs...)
	}
	if f.Items != nil {
		out.Items = make([]*ContentItem, len(f.Items))
		for i, it := range f.Items {
			out.Items[i] = it.Clone()
		}
	}
	return out
}
