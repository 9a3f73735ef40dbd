// Package persist stores realized analyses and the runs that produced them.
package persist

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"github.com/huangsam/motionwin/internal/contract"
	"github.com/huangsam/motionwin/schema"
)

// StoreManagerImpl holds the process-wide analysis store.
type StoreManagerImpl struct {
	sync.RWMutex // Protects the store pointer during initialization
	analysis     contract.AnalysisStore
}

var _ contract.StoreManager = &StoreManagerImpl{} // Compile-time check

// GetAnalysisStore returns the analysis store.
func (mgr *StoreManagerImpl) GetAnalysisStore() contract.AnalysisStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.analysis
}

// Global Manager instance for main logic.
var (
	Manager   = &StoreManagerImpl{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// InitStore initializes the global manager with an analysis store.
// An empty backend leaves the manager without a store.
func InitStore(backend schema.DatabaseBackend, connStr string) error {
	var initErr error

	initOnce.Do(func() {
		if backend == "" {
			return
		}
		store, err := NewAnalysisStore(backend, connStr)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize analysis store: %w", err)
			return
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.analysis = store
	})

	return initErr
}

// CloseStore should be called on application shutdown.
func CloseStore() (err error) {
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		err = CloseStores(Manager.analysis)
	})
	return err
}

// CloseStores closes every given store and combines their errors.
func CloseStores(stores ...contract.AnalysisStore) error {
	var err error
	for _, s := range stores {
		if s != nil {
			err = multierr.Append(err, s.Close())
		}
	}
	return err
}
