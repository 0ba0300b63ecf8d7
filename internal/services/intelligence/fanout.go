package intelligence

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// detector is one independent unit of detection work
type detector[T any] struct {
	name string
	run  func() ([]T, error)
}

// runDetectors launches every detector concurrently, waits for all of
// them, and concatenates the successful results in detector order.
// A failing or panicking detector is logged and dropped; it never
// prevents the others from completing.
func runDetectors[T any](logger *zap.Logger, detectors []detector[T]) []T {
	results := make([][]T, len(detectors))
	errs := make([]error, len(detectors))

	var wg sync.WaitGroup
	for i, d := range detectors {
		wg.Add(1)
		go func(i int, d detector[T]) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("detector panicked: %v", r)
				}
			}()
			results[i], errs[i] = d.run()
		}(i, d)
	}
	wg.Wait()

	var merged []T
	for i, d := range detectors {
		if errs[i] != nil {
			if logger != nil {
				logger.Warn("detector_failed",
					zap.String("detector", d.name),
					zap.Error(errs[i]),
				)
			}
			continue
		}
		merged = append(merged, results[i]...)
	}
	return merged
}

// ErrNilItems is returned when a caller passes a nil item collection.
// An empty collection is valid input; nil indicates a caller bug and
// fails fast instead of being silently treated as empty.
var ErrNilItems = errors.New("item collection must not be nil")
