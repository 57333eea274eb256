package async

import (
	"sync/atomic"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// Special case - we use 128 bytes for cache line size on all platforms,
// matching the largest common alignment requirement (Apple Silicon/ARM64)
// rather than depending on a platform-detection package for a padding
// constant that only needs to be an upper bound.
func TestSizeOfCacheLineIsAMultipleOfCommonCacheLineSizes(t *testing.T) {
	for _, actual := range []uintptr{64, 128} {
		require.Zerof(t, sizeOfCacheLine%actual, "sizeOfCacheLine (%d) is not a multiple of %d", sizeOfCacheLine, actual)
	}
}

func TestSizeOfAtomicUint64MatchesRuntime(t *testing.T) {
	require.Equal(t, uintptr(sizeOfAtomicUint64), unsafe.Sizeof(atomic.Uint64{}))
}
