package authorvalidator

import (
	"github.com/unitdag/unitd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("AVAL")
