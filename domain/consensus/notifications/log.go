package notifications

import (
	"github.com/unitdag/unitd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("CNSS")
