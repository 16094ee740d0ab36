package rtmp

import "sync"

var (
	initOnce sync.Once
	initErr  error
)

// Init runs load, typically the native library loader, once per process.
// Later calls return the first result without running their argument.
func Init(load func() error) error {
	initOnce.Do(func() {
		if load != nil {
			initErr = load()
		}
	})
	return initErr
}
