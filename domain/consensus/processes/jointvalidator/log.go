package jointvalidator

import (
	"github.com/unitdag/unitd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("JVAL")
