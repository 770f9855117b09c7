// cache.go: designed filters are deterministic in their spec, so repeated
// designs (every resize component re-reading its config each iteration)
// are served from an expiring cache instead of recomputed.
package resample

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

var designCache = gocache.New(10*time.Minute, 30*time.Minute)

// CachedDesign returns DesignFilter output for spec, serving repeats from a
// process-wide expiring cache. The returned taps are shared; callers must
// treat them as read-only.
func CachedDesign(spec FilterSpec) ([]float32, error) {
	spec = spec.withDefaults()
	key := fmt.Sprintf("%d/%d a%d c%g w%d b%g",
		spec.Up, spec.Down, spec.Aperture, spec.Cut, spec.Window, spec.KaiserBeta)

	if taps, found := designCache.Get(key); found {
		return taps.([]float32), nil
	}
	taps, err := DesignFilter(spec)
	if err != nil {
		return nil, err
	}
	designCache.Set(key, taps, gocache.DefaultExpiration)
	return taps, nil
}
