// Package models holds the records the client reads from and writes to the
// backend collection, together with their wire normalisation.
//
// Wire quirks handled here so the rest of the client never sees them:
//   - listings may carry their category under the legacy "categories" key;
//   - prices may arrive as JSON numbers or numeric strings;
//   - document ids may arrive as plain strings or as {"$oid": "..."}.
package models
