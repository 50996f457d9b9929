package repository

import "fmt"

// SchemaStatements returns the idempotent DDL for the ClickHouse backend.
func SchemaStatements(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.samples (
            asset_id LowCardinality(String),
            ts DateTime64(3, 'UTC'),
            price Float64,
            volume Float64
        ) ENGINE = MergeTree
        ORDER BY (asset_id, ts)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.audit_log (
            entry_id String,
            actor_id String,
            action LowCardinality(String),
            target_type LowCardinality(String),
            target_id String,
            ts DateTime64(6, 'UTC'),
            detail String
        ) ENGINE = MergeTree
        ORDER BY (ts, entry_id)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.order_fills (
            order_id String,
            asset_id LowCardinality(String),
            side LowCardinality(String),
            state LowCardinality(String),
            status LowCardinality(String),
            reference_price String,
            executed_price String,
            executed_amount String,
            shortfall String,
            reason String,
            executed_at DateTime64(3, 'UTC')
        ) ENGINE = MergeTree
        ORDER BY (order_id)`, database),
	}
}
