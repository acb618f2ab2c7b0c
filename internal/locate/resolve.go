package locate

import (
	"sync"

	"github.com/woozymasta/atollmap/internal/geo"
)

// Reference carries the record fields used for coordinate resolution.
// Empty strings mean the value is absent.
type Reference struct {
	Location string // map link or raw "lat, lng" pair
	Region   string // atoll code
	Locality string // island name, seeds the estimate
}

// Result is a resolved coordinate plus the matcher that produced it, if any.
type Result struct {
	geo.ResolvedCoordinate
	Matcher string
}

// Resolver runs extraction first and falls back to the estimator.
type Resolver struct {
	estimator *Estimator
}

// NewResolver returns a resolver backed by e.
func NewResolver(e *Estimator) *Resolver {
	return &Resolver{estimator: e}
}

// Estimator returns the fallback estimator.
func (r *Resolver) Estimator() *Estimator {
	return r.estimator
}

// Resolve returns the coordinate for ref tagged extracted, estimated or unknown.
func (r *Resolver) Resolve(ref Reference) Result {
	if c, name := ExtractWith(ref.Location); c.Valid() {
		return Result{
			ResolvedCoordinate: geo.ResolvedCoordinate{Coordinate: c, Source: geo.Extracted},
			Matcher:            name,
		}
	}

	if c := r.estimator.Estimate(ref.Region, ref.Locality); c.Valid() {
		return Result{ResolvedCoordinate: geo.ResolvedCoordinate{Coordinate: c, Source: geo.Estimated}}
	}

	return Result{ResolvedCoordinate: geo.ResolvedCoordinate{Coordinate: geo.NoCoordinate(), Source: geo.Unknown}}
}

// ResolveAll resolves refs using up to workers goroutines.
// Results are in input order and equal to resolving each ref sequentially.
func (r *Resolver) ResolveAll(refs []Reference, workers int) []Result {
	out := make([]Result, len(refs))
	if workers <= 1 || len(refs) < 2 {
		for i, ref := range refs {
			out[i] = r.Resolve(ref)
		}
		return out
	}

	jobs := make(chan int, len(refs))
	for i := range refs {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = r.Resolve(refs[i])
			}
		}()
	}
	wg.Wait()

	return out
}
