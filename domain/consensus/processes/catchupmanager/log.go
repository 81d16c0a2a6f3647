package catchupmanager

import (
	"github.com/unitdag/unitd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("CTCH")
