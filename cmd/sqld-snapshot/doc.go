// Package main provides the entry point for sqld-snapshot.
//
// sqld-snapshot queries and updates a running sqld-snapshotd:
//
//	sqld-snapshot locate name:orders 4711
//	sqld-snapshot register --start 1 --end 5000 name:orders
//	sqld-snapshot -o yaml list 6f72646572730000000000000000000a
//	sqld-snapshot health
package main
