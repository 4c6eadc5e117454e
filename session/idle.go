package session

import (
	"sync"

	"github.com/chainctl/actioneer/logger"
)

var idleOnce sync.Once

// AttachIdleRenewal consumes activity signals and pushes the session expiry
// forward on each one. The listener attaches exactly once per process
// regardless of how many call sites request it; later calls are no-ops.
func AttachIdleRenewal(store *Store, activity <-chan struct{}, stop <-chan struct{}, wg *sync.WaitGroup) {
	idleOnce.Do(func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-activity:
					store.Renew()
				case <-stop:
					logger.Info("stopping idle renewal listener")
					return
				}
			}
		}()
	})
}
