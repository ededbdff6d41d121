//go:build !mempooldebug

package mempool

const debugInvariants = false
