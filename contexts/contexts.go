package contexts

import (
	"ldserver/api/models"
	c "ldserver/api/models/constants"
	"ldserver/api/services/cache"
	"ldserver/api/services/pagination"
	"ldserver/api/services/query"
	"ldserver/api/services/registry"

	"github.com/labstack/echo"
)

type (
	// "Helper" Context to pass into routes that need
	//  the registry, the orchestrator and validated parameters
	LdContext struct {
		echo.Context
		Config       *models.Config
		Registry     *registry.Registry
		Orchestrator *query.Orchestrator
		CacheService *cache.CacheService

		// set by middleware
		Chromosome  string
		Start       int
		Stop        int
		Variant     string
		Correlation c.CorrelationKind
		Limit       int
		Last        pagination.Cursor

		Shape     c.ResultShape
		Precision int
		Msgpack   bool
	}
)
