// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Module wraps exactly one content item inside a page zone.
type Module struct {
	Module string       `json:"module,omitempty"`
	Item   *ContentItem `json:"item"`
}

// ItemContentID returns the wrapped item's id, or 0 for an empty slot.
func (m *Module) ItemContentID() int64 {
	if m == nil || m.Item == nil {
		return 0
	}
	return m.Item.ContentID
}

// Page is one page of the mirrored site, identified by
// (PageID, LanguageCode). Zones hold ordered module lists; the
// materialized form always embeds the current resolved subtree for
// every module item.
type Page struct {
	PageID       int64                `json:"pageID"`
	LanguageCode string               `json:"languageCode"`
	Name         string               `json:"name,omitempty"`
	Path         string               `json:"path,omitempty"`
	Title        string               `json:"title,omitempty"`
	State        int                  `json:"state"`
	Zones        map[string][]*Module `json:"zones,omitempty"`
}

// IsDeleted reports whether the change log marked this page deleted.
func (p *Page) IsDeleted() bool {
	return p.State == StateDeleted
}

// Clone returns a deep structural copy of the page.
func (p *Page) Clone() *Page {
	if p == nil {
		return nil
	}
	out := &Page{
		PageID:       p.PageID,
		LanguageCode: p.LanguageCode,
		Name:         p.Name,
		Path:         p.Path,
		Title:        p.Title,
		State:        p.State,
	}
	if p.Zones != nil {
		out.Zones = make(map[string][]*Module, len(p.Zones))
		for name, zone := range p.Zones {
			mods := make([]*Module, len(zone))
			for i, m := range zone {
				mods[i] = &Module{Module: m.Module, Item: m.Item.Clone()}
			}
			out.Zones[name] = mods
		}
	}
	return out
}
