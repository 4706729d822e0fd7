package metrics

import (
	"time"

	"github.com/deskhand/deskhand/pkg/vault"
)

// Collector samples vault folder sizes into the FolderItems gauge.
type Collector struct {
	vault  *vault.Vault
	stopCh chan struct{}
}

// NewCollector creates a folder-size collector.
func NewCollector(v *vault.Vault) *Collector {
	return &Collector{
		vault:  v,
		stopCh: make(chan struct{}),
	}
}

// Start begins sampling every 15 seconds.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.Collect()
		for {
			select {
			case <-ticker.C:
				c.Collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

// Collect samples each tracked folder once.
func (c *Collector) Collect() {
	for _, folder := range []string{
		vault.FolderNeedsAction,
		vault.FolderPendingApproval,
		vault.FolderApproved,
		vault.FolderRejected,
		vault.FolderDone,
		vault.FolderQuarantine,
	} {
		FolderItems.WithLabelValues(folder).Set(float64(c.vault.Count(folder)))
	}
}
