// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package node

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Namespace tags every node id owned by the mirror so the retention
// pass can tell its nodes apart from anything else in the host store.
const Namespace = "graphmirror"

// ItemID derives the node id for an item's id-keyed materialization.
func ItemID(contentID int64, languageCode string) string {
	return nodeID(KindItem, languageCode, fmt.Sprintf("%d", contentID))
}

// ListID derives the node id for a content list's reference-name-keyed
// materialization.
func ListID(referenceName, languageCode string) string {
	return nodeID(KindList, languageCode, referenceName)
}

// PageID derives the node id for a page's materialization.
func PageID(pageID int64, languageCode string) string {
	return nodeID(KindPage, languageCode, fmt.Sprintf("%d", pageID))
}

// SitemapID derives the node id for a sitemap entry. A non-positive
// contentID collapses to the static-page sentinel so dynamic and
// static entries for the same page stay distinct.
func SitemapID(pageID, contentID int64, languageCode string) string {
	if contentID <= 0 {
		contentID = -1
	}
	return nodeID(KindSitemap, languageCode, fmt.Sprintf("%d-%d", pageID, contentID))
}

// PageDepID derives the node id for a page-dependency record.
func PageDepID(contentID int64, languageCode string) string {
	return nodeID(KindPageDep, languageCode, fmt.Sprintf("%d", contentID))
}

// ContentDepID derives the node id for a content-dependency record.
func ContentDepID(contentID int64, languageCode string) string {
	return nodeID(KindContentDep, languageCode, fmt.Sprintf("%d", contentID))
}

// SyncStateID derives the node id of the cursor-state singleton.
func SyncStateID() string {
	return Namespace + "-" + KindSyncState
}

func nodeID(kind, languageCode, key string) string {
	return strings.ToLower(fmt.Sprintf("%s-%s-%s-%s", Namespace, kind, languageCode, key))
}

// Digest returns the hex sha256 of a node's content, used for change
// detection and idempotence checks.
func Digest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
