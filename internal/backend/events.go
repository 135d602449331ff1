package backend

import (
	"go.uber.org/zap"
)

// eventReceiver forwards dbr instrumentation to zap. dbr returns whatever
// EventErr/EventErrKv return to the caller, so errors are passed through.
type eventReceiver struct {
	logger *zap.Logger
}

func (r *eventReceiver) Event(eventName string) {}

func (r *eventReceiver) EventKv(eventName string, kvs map[string]string) {}

func (r *eventReceiver) EventErr(eventName string, err error) error {
	r.logger.Debug("dbr error", zap.String("event", eventName), zap.Error(err))
	return err
}

func (r *eventReceiver) EventErrKv(eventName string, err error, kvs map[string]string) error {
	r.logger.Debug("dbr error", zap.String("event", eventName), zap.String("sql", kvs["sql"]), zap.Error(err))
	return err
}

func (r *eventReceiver) Timing(eventName string, nanoseconds int64) {}

func (r *eventReceiver) TimingKv(eventName string, nanoseconds int64, kvs map[string]string) {
	if ce := r.logger.Check(zap.DebugLevel, "dbr query"); ce != nil {
		ce.Write(zap.String("sql", kvs["sql"]), zap.Float64("ms", float64(nanoseconds)/1e6))
	}
}
