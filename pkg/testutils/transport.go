package testutils

import (
	"sync"

	"github.com/GlitchKit/greatfet/pkg/greatfet/transport"
)

// TransportCall records one vendor request seen by a RecordingTransport.
type TransportCall struct {
	Req    transport.Request
	In     bool
	Value  uint16
	Index  uint16
	Data   []byte
	Length int
}

/**
 * RecordingTransport is a transport spy. It records every successful call,
 * optionally delegates to an inner transport, serves scripted responses,
 * and can be told to fail on the Nth call.
 *
 */
type RecordingTransport struct {
	lock sync.Mutex

	// Inner, when set, services the calls. Without it Out succeeds and In
	// returns the scripted response (zero filled to the requested length).
	Inner transport.Transport

	// Responses maps a request to the bytes an In call should return when
	// there is no Inner transport.
	Responses map[transport.Request][]byte

	// FailAt makes the Nth call (1-based, counting Out and In together)
	// return FailErr without being recorded or delegated.
	FailAt  int
	FailErr error

	calls []TransportCall
	seen  int
}

func (r *RecordingTransport) failNow() bool {
	r.seen++
	return r.FailAt > 0 && r.seen == r.FailAt
}

func (r *RecordingTransport) Out(req transport.Request, value, index uint16, data []byte) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.failNow() {
		return r.FailErr
	}
	if r.Inner != nil {
		err := r.Inner.Out(req, value, index, data)
		if err != nil {
			return err
		}
	}
	r.calls = append(r.calls, TransportCall{
		Req:   req,
		Value: value,
		Index: index,
		Data:  append([]byte(nil), data...),
	})
	return nil
}

func (r *RecordingTransport) In(req transport.Request, value, index uint16, length int) ([]byte, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.failNow() {
		return nil, r.FailErr
	}

	var data []byte
	if r.Inner != nil {
		var err error
		data, err = r.Inner.In(req, value, index, length)
		if err != nil {
			return nil, err
		}
	} else {
		data = make([]byte, length)
		copy(data, r.Responses[req])
	}

	r.calls = append(r.calls, TransportCall{
		Req:    req,
		In:     true,
		Value:  value,
		Index:  index,
		Length: length,
	})
	return data, nil
}

func (r *RecordingTransport) Close() error {
	if r.Inner != nil {
		return r.Inner.Close()
	}
	return nil
}

// Calls returns everything recorded so far.
func (r *RecordingTransport) Calls() []TransportCall {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]TransportCall(nil), r.calls...)
}

// CallsFor returns the recorded calls for one request type.
func (r *RecordingTransport) CallsFor(req transport.Request) []TransportCall {
	r.lock.Lock()
	defer r.lock.Unlock()
	found := make([]TransportCall, 0)
	for _, c := range r.calls {
		if c.Req == req {
			found = append(found, c)
		}
	}
	return found
}
