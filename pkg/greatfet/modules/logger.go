package modules

import (
	"sync/atomic"

	"github.com/GlitchKit/greatfet/pkg/greatfet/transport"
	"github.com/loopholelabs/logging/types"
)

// Logger wraps a transport and logs every vendor request that goes through
// it.
type Logger struct {
	trans   transport.Transport
	prefix  string
	log     types.Logger
	enabled atomic.Bool
}

func NewLogger(t transport.Transport, prefix string, log types.Logger) *Logger {
	l := &Logger{
		trans:  t,
		log:    log,
		prefix: prefix,
	}
	l.enabled.Store(true)
	return l
}

func (i *Logger) Disable() {
	if i.enabled.Load() && i.log != nil {
		i.log.Debug().Str("device", i.prefix).Msg("logging disabled")
	}
	i.enabled.Store(false)
}

func (i *Logger) Enable() {
	i.enabled.Store(true)
	if i.enabled.Load() && i.log != nil {
		i.log.Debug().Str("device", i.prefix).Msg("logging enabled")
	}
}

func (i *Logger) Out(req transport.Request, value, index uint16, data []byte) error {
	err := i.trans.Out(req, value, index, data)
	if i.enabled.Load() && i.log != nil {
		i.log.Debug().
			Str("device", i.prefix).
			Str("request", req.String()).
			Int("value", int(value)).
			Int("index", int(index)).
			Int("length", len(data)).
			Err(err).
			Msg("Out")
	}
	return err
}

func (i *Logger) In(req transport.Request, value, index uint16, length int) ([]byte, error) {
	data, err := i.trans.In(req, value, index, length)
	if i.enabled.Load() && i.log != nil {
		i.log.Debug().
			Str("device", i.prefix).
			Str("request", req.String()).
			Int("value", int(value)).
			Int("index", int(index)).
			Int("length", length).
			Int("n", len(data)).
			Err(err).
			Msg("In")
	}
	return data, err
}

func (i *Logger) Close() error {
	err := i.trans.Close()
	if i.enabled.Load() && i.log != nil {
		i.log.Debug().
			Str("device", i.prefix).
			Err(err).
			Msg("Close")
	}
	return err
}
