//go:build !unix

package engine

import (
	"os"
	"sync"
)

var metaLock sync.Mutex

// lockFile only serializes writers within this process
func lockFile(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	metaLock.Lock()
	return func() {
		metaLock.Unlock()
		_ = f.Close()
	}, nil
}
