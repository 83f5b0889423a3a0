package modules

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/GlitchKit/greatfet/pkg/greatfet/transport"
)

/**
 * Simple metrics filter for a transport
 *
 */
type Metrics struct {
	trans            transport.Transport
	metricOutOps     uint64
	metricOutBytes   uint64
	metricOutTime    uint64
	metricOutErrors  uint64
	metricInOps      uint64
	metricInBytes    uint64
	metricInTime     uint64
	metricInErrors   uint64
	metricEraseOps   uint64
	metricFlashReads uint64
	metricFlashWrite uint64
}

type MetricsSnapshot struct {
	OutOps      uint64
	OutBytes    uint64
	OutTime     uint64
	OutErrors   uint64
	InOps       uint64
	InBytes     uint64
	InTime      uint64
	InErrors    uint64
	EraseOps    uint64
	FlashReads  uint64
	FlashWrites uint64
}

func NewMetrics(t transport.Transport) *Metrics {
	return &Metrics{
		trans: t,
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dns", d.Nanoseconds())
	} else if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.3fs", float64(d)/float64(time.Second))
}

func (i *Metrics) Out(req transport.Request, value, index uint16, data []byte) error {
	ctime := time.Now()
	err := i.trans.Out(req, value, index, data)
	if err != nil {
		atomic.AddUint64(&i.metricOutErrors, 1)
	} else {
		atomic.AddUint64(&i.metricOutOps, 1)
		atomic.AddUint64(&i.metricOutBytes, uint64(len(data)))
		atomic.AddUint64(&i.metricOutTime, uint64(time.Since(ctime).Nanoseconds()))
		switch req {
		case transport.RequestFlashErase:
			atomic.AddUint64(&i.metricEraseOps, 1)
		case transport.RequestFlashWrite:
			atomic.AddUint64(&i.metricFlashWrite, 1)
		}
	}
	return err
}

func (i *Metrics) In(req transport.Request, value, index uint16, length int) ([]byte, error) {
	ctime := time.Now()
	data, err := i.trans.In(req, value, index, length)
	if err != nil {
		atomic.AddUint64(&i.metricInErrors, 1)
	} else {
		atomic.AddUint64(&i.metricInOps, 1)
		atomic.AddUint64(&i.metricInBytes, uint64(len(data)))
		atomic.AddUint64(&i.metricInTime, uint64(time.Since(ctime).Nanoseconds()))
		if req == transport.RequestFlashRead {
			atomic.AddUint64(&i.metricFlashReads, 1)
		}
	}
	return data, err
}

func (i *Metrics) Close() error {
	return i.trans.Close()
}

func (i *Metrics) Snapshot() *MetricsSnapshot {
	return &MetricsSnapshot{
		OutOps:      atomic.LoadUint64(&i.metricOutOps),
		OutBytes:    atomic.LoadUint64(&i.metricOutBytes),
		OutTime:     atomic.LoadUint64(&i.metricOutTime),
		OutErrors:   atomic.LoadUint64(&i.metricOutErrors),
		InOps:       atomic.LoadUint64(&i.metricInOps),
		InBytes:     atomic.LoadUint64(&i.metricInBytes),
		InTime:      atomic.LoadUint64(&i.metricInTime),
		InErrors:    atomic.LoadUint64(&i.metricInErrors),
		EraseOps:    atomic.LoadUint64(&i.metricEraseOps),
		FlashReads:  atomic.LoadUint64(&i.metricFlashReads),
		FlashWrites: atomic.LoadUint64(&i.metricFlashWrite),
	}
}

func (i *Metrics) ResetMetrics() {
	atomic.StoreUint64(&i.metricOutOps, 0)
	atomic.StoreUint64(&i.metricOutBytes, 0)
	atomic.StoreUint64(&i.metricOutTime, 0)
	atomic.StoreUint64(&i.metricOutErrors, 0)
	atomic.StoreUint64(&i.metricInOps, 0)
	atomic.StoreUint64(&i.metricInBytes, 0)
	atomic.StoreUint64(&i.metricInTime, 0)
	atomic.StoreUint64(&i.metricInErrors, 0)
	atomic.StoreUint64(&i.metricEraseOps, 0)
	atomic.StoreUint64(&i.metricFlashReads, 0)
	atomic.StoreUint64(&i.metricFlashWrite, 0)
}

func (i *Metrics) ShowStats(prefix string) {
	outOps := atomic.LoadUint64(&i.metricOutOps)
	outTime := atomic.LoadUint64(&i.metricOutTime)
	outAvgTime := uint64(0)
	if outOps > 0 {
		outAvgTime = outTime / outOps
	}
	inOps := atomic.LoadUint64(&i.metricInOps)
	inTime := atomic.LoadUint64(&i.metricInTime)
	inAvgTime := uint64(0)
	if inOps > 0 {
		inAvgTime = inTime / inOps
	}
	fmt.Printf("%s: Out=%d (%d bytes) avg latency %s, %d errors, In=%d (%d bytes) avg latency %s, %d errors\n",
		prefix,
		outOps,
		atomic.LoadUint64(&i.metricOutBytes),
		formatDuration(time.Duration(outAvgTime)),
		atomic.LoadUint64(&i.metricOutErrors),
		inOps,
		atomic.LoadUint64(&i.metricInBytes),
		formatDuration(time.Duration(inAvgTime)),
		atomic.LoadUint64(&i.metricInErrors),
	)
}
