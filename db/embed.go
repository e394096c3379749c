// Package db embeds the SQL schema applied on startup and by seed-db.
package db

import _ "embed"

// Schema holds the DDL for every table, index and enum the backend uses.
//
//go:embed migrations/001_schema.sql
var Schema string
