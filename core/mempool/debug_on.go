//go:build mempooldebug

package mempool

const debugInvariants = true
