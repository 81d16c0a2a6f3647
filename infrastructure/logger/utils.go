package logger

import (
	"time"
)

// slowExecutionThreshold is the duration above which a measured execution is
// logged as a warning instead of at debug level.
const slowExecutionThreshold = 5 * time.Second

// LogAndMeasureExecutionTime logs that functionName started and returns a
// function that logs its end along with the elapsed time.
func LogAndMeasureExecutionTime(log *Logger, functionName string) (onEnd func()) {
	start := time.Now()
	log.Debugf("%s start", functionName)
	return func() {
		elapsed := time.Since(start)
		if elapsed > slowExecutionThreshold {
			log.Warnf("%s took %s", functionName, elapsed)
			return
		}
		log.Debugf("%s end. Took: %s", functionName, elapsed)
	}
}
