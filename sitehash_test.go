package jealloc

import (
	"hash/fnv"
	"hash/maphash"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-farm"
	"github.com/stretchr/testify/require"
)

// Leak reports hash "file:line" strings to aggregate records per site.
// These benchmarks compare the candidates for that key function.

var benchSite = "github.com/dgraph-io/jealloc/tracker_test.go:4242"

func BenchmarkSiteXXHash(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = xxhash.Sum64String(benchSite)
	}
	b.SetBytes(int64(len(benchSite)))
}

func BenchmarkSiteFarm(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = farm.Fingerprint64([]byte(benchSite))
	}
	b.SetBytes(int64(len(benchSite)))
}

func BenchmarkSiteMaphash(b *testing.B) {
	seed := maphash.MakeSeed()
	for i := 0; i < b.N; i++ {
		var h maphash.Hash
		h.SetSeed(seed)
		h.WriteString(benchSite)
		_ = h.Sum64()
	}
	b.SetBytes(int64(len(benchSite)))
}

func BenchmarkSiteFnv(b *testing.B) {
	for i := 0; i < b.N; i++ {
		f := fnv.New64a()
		f.Write([]byte(benchSite))
		_ = f.Sum64()
	}
	b.SetBytes(int64(len(benchSite)))
}

func TestSiteKeyStable(t *testing.T) {
	s := Site{File: "x.go", Line: 42}
	require.Equal(t, s.Key(), s.Key())
	require.Equal(t, xxhash.Sum64String("x.go:42"), s.Key())
}
