// Package model defines shared data types used across shardmux.
//
// Conventions:
//   - IDs: strings as delivered by the gateway (snowflake-style decimal)
//   - Wire timestamps: int64 Unix milliseconds
//   - Identity values are copied, never shared by reference, between shards
package model
