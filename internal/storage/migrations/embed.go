package migrations

import "embed"

// PostgresFS holds the relational schema: bond terms and model results.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS holds the price history timeseries schema.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
