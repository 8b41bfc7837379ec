// Package strategy implements the fetch strategy adapters: one per bypass
// technique (direct fetch, crawler impersonation, proxy, archive, reader
// service). Every adapter maps transport failures into its result record so
// a race can aggregate them without unwinding.
package strategy
