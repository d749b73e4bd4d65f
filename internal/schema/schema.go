// Package schema ships the Postgres DDL the service expects. Applying it is
// left to the operator.
package schema

import _ "embed"

// SQL creates every table and index idempotently.
//
//go:embed schema.sql
var SQL string
