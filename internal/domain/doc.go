// Package domain models retail store records served by the field-operations
// backend and the rules that classify them.
//
// # Data Source
//
// The backend exposes store data under /tiendas as a JSON wrapper:
//
//	{"success": true, "count": 2, "data": [ ...store objects... ], "error": null}
//
// Store objects use the backend's Spanish field names:
//
//	_id                            int or numeric string, e.g. 7 or "007"
//	nombre                         display name, e.g. "Oxxo Centro"
//	location.latitude/longitude    WGS-84 degrees
//	nps                            net promoter score
//	fillfoundrate                  fill/found rate percentage (0-100)
//	damage_rate                    damaged product percentage
//	out_of_stock                   out-of-stock percentage
//	complaint_resolution_time_hrs  mean hours to resolve a complaint
//
// Every numeric field is optional and nullable. Upstream aggregates
// occasionally produce non-finite values (division by zero), and very large
// literals such as 1e999 overflow to infinity when decoded.
//
// # Sanitization
//
// Each numeric field is sanitized exactly once, in [BuildStoreRecord]. Absent,
// non-numeric, or non-finite values are replaced with fixed defaults:
//
//	nps, fillfoundrate, damage_rate, out_of_stock  0
//	complaint_resolution_time_hrs                  24
//	latitude, longitude                            25.6866, -100.3161 (Monterrey)
//
// Coordinates are then clamped to [-90, 90] and [-180, 180] regardless of how
// they were obtained. A malformed object still yields a usable record; one bad
// store never aborts a batch.
//
// # Identifiers
//
// _id arrives as a number or a numeric string. Anything that cannot be read
// as an integer decodes to 0. Records with id <= 0 are kept for display but
// are not writable: see [StoreRecord.IsValidID] and [EnsureWritable].
//
// # Performance Tiers
//
// [Classify] maps (nps, damage rate, out-of-stock rate) to a tier. Rules are
// evaluated in order and the first match wins:
//
//	Excellent       nps >= 50 && damage < 0.5 && out_of_stock < 3
//	NeedsAttention  nps < 30  || damage > 1   || out_of_stock > 4
//	Good            everything else
//
// The two rules are not complementary. A store at nps 35, damage 0.8, out of
// stock 3.5 matches neither and lands in Good. Aggregate counts therefore
// derive Good as total - Excellent - NeedsAttention (see [Summarize]).
//
// # Insights
//
// The /tiendas/{id}/insights endpoint has shipped several response shapes.
// [DecodeInsightsResponse] runs an ordered list of [Strategy] values
// ([InsightStrategies]) and returns the first success; a [DecodeError] lists
// every attempt and why it failed.
package domain
