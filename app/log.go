package app

import (
	"github.com/unitdag/unitd/infrastructure/logger"
	"github.com/unitdag/unitd/util/panics"
)

var log = logger.RegisterSubSystem("APPL")
var spawn = panics.GoroutineWrapperFunc(log)
