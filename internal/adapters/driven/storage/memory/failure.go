package memory

import "sync"

// failSwitch injects write failures into a store.
type failSwitch struct {
	mu  sync.Mutex
	err error
}

// FailWrites makes every subsequent write return err. Pass nil to recover.
func (f *failSwitch) FailWrites(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *failSwitch) writeErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}
