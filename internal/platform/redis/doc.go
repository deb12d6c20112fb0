// Package redis implements the task store on Redis.
//
// All keys live under a configurable prefix, split into three namespaces:
//
//	{prefix}:task:{request_id}:{doc_type}    JSON payload, no expiry
//	{prefix}:lease:{request_id}:{doc_type}   owner id, expires with the lease TTL
//	{prefix}:result:{request_id}:{doc_type}  JSON result, expires with the result TTL
//
// Discovery scans only the task namespace, so lease and result markers are
// never mistaken for tasks.
package redis
