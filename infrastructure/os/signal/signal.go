package signal

import (
	"os"
	"os/signal"
	"syscall"
)

// shutdownRequests carries the reason of a shutdown requested from inside
// the process
var shutdownRequests = make(chan string, 1)

var interruptSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// RequestShutdown makes InterruptListener shut down as on an interrupt
// signal. Requests made while one is pending are dropped.
func RequestShutdown(reason string) {
	select {
	case shutdownRequests <- reason:
	default:
	}
}

// InterruptListener returns a channel that is closed on the first SIGINT,
// SIGTERM or RequestShutdown. Later signals are only logged.
func InterruptListener() <-chan struct{} {
	c := make(chan struct{})
	go func() {
		interruptChannel := make(chan os.Signal, 1)
		signal.Notify(interruptChannel, interruptSignals...)

		select {
		case sig := <-interruptChannel:
			log.Infof("Received signal (%s). Shutting down...", sig)
		case reason := <-shutdownRequests:
			log.Infof("Shutdown requested: %s. Shutting down...", reason)
		}
		close(c)

		for {
			select {
			case sig := <-interruptChannel:
				log.Infof("Received signal (%s). Already shutting down...", sig)
			case reason := <-shutdownRequests:
				log.Infof("Shutdown requested: %s. Already shutting down...", reason)
			}
		}
	}()

	return c
}
