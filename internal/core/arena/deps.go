package arena

import (
	"github.com/zeusync/arena/internal/core/catalog"
	"github.com/zeusync/arena/internal/core/events/bus"
	"github.com/zeusync/arena/internal/core/observability/log"
	"github.com/zeusync/arena/internal/core/region"
	"github.com/zeusync/arena/internal/core/storage"
)

// Deps is the application context handed to sessions and the
// registry. Constructed once at startup and passed down explicitly,
// so tests can build isolated instances.
type Deps struct {
	Log     log.Log
	Store   *storage.Store
	Bus     *bus.Bus
	Regions *region.Manager
	Catalog *catalog.Catalog
	Players *Players
	Ledger  Ledger
}
