package ldb

import "github.com/syndtr/goleveldb/leveldb/opt"

// minCacheSizeMiB is the smallest block cache a database is opened with
const minCacheSizeMiB = 8

// options returns the leveldb options of a unit database with a block cache
// of cacheSizeMiB and a write buffer of half that. Blocks are snappy
// compressed.
func options(cacheSizeMiB int) *opt.Options {
	if cacheSizeMiB < minCacheSizeMiB {
		cacheSizeMiB = minCacheSizeMiB
	}
	return &opt.Options{
		Compression:            opt.SnappyCompression,
		BlockCacheCapacity:     cacheSizeMiB * opt.MiB,
		WriteBuffer:            (cacheSizeMiB / 2) * opt.MiB,
		DisableSeeksCompaction: true,
	}
}
