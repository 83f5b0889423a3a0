package prometheus

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/GlitchKit/greatfet/pkg/greatfet/modules"
	"github.com/prometheus/client_golang/prometheus"
)

type MetricsConfig struct {
	Namespace     string
	SubTransport  string
	TickTransport time.Duration
}

func DefaultConfig() *MetricsConfig {
	return &MetricsConfig{
		Namespace:     "greatfet",
		SubTransport:  "transport",
		TickTransport: 100 * time.Millisecond,
	}
}

type Metrics struct {
	reg    prometheus.Registerer
	lock   sync.Mutex
	config *MetricsConfig

	// transport
	transportOutOps      *prometheus.GaugeVec
	transportOutBytes    *prometheus.GaugeVec
	transportOutTime     *prometheus.GaugeVec
	transportOutErrors   *prometheus.GaugeVec
	transportInOps       *prometheus.GaugeVec
	transportInBytes     *prometheus.GaugeVec
	transportInTime      *prometheus.GaugeVec
	transportInErrors    *prometheus.GaugeVec
	transportEraseOps    *prometheus.GaugeVec
	transportFlashReads  *prometheus.GaugeVec
	transportFlashWrites *prometheus.GaugeVec

	cancelfns map[string]context.CancelFunc
}

func New(reg prometheus.Registerer, config *MetricsConfig) *Metrics {
	labels := []string{"instance_id", "device"}

	met := &Metrics{
		config: config,
		reg:    reg,
		transportOutOps: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: config.Namespace, Subsystem: config.SubTransport, Name: "out_ops", Help: "Out requests"}, labels),
		transportOutBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: config.Namespace, Subsystem: config.SubTransport, Name: "out_bytes", Help: "Out bytes"}, labels),
		transportOutTime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: config.Namespace, Subsystem: config.SubTransport, Name: "out_time", Help: "Out time"}, labels),
		transportOutErrors: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: config.Namespace, Subsystem: config.SubTransport, Name: "out_errors", Help: "Out errors"}, labels),
		transportInOps: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: config.Namespace, Subsystem: config.SubTransport, Name: "in_ops", Help: "In requests"}, labels),
		transportInBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: config.Namespace, Subsystem: config.SubTransport, Name: "in_bytes", Help: "In bytes"}, labels),
		transportInTime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: config.Namespace, Subsystem: config.SubTransport, Name: "in_time", Help: "In time"}, labels),
		transportInErrors: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: config.Namespace, Subsystem: config.SubTransport, Name: "in_errors", Help: "In errors"}, labels),
		transportEraseOps: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: config.Namespace, Subsystem: config.SubTransport, Name: "erase_ops", Help: "Flash erases"}, labels),
		transportFlashReads: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: config.Namespace, Subsystem: config.SubTransport, Name: "flash_reads", Help: "Flash read chunks"}, labels),
		transportFlashWrites: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: config.Namespace, Subsystem: config.SubTransport, Name: "flash_writes", Help: "Flash write chunks"}, labels),

		cancelfns: make(map[string]context.CancelFunc),
	}

	met.reg.MustRegister(
		met.transportOutOps, met.transportOutBytes, met.transportOutTime, met.transportOutErrors,
		met.transportInOps, met.transportInBytes, met.transportInTime, met.transportInErrors,
		met.transportEraseOps, met.transportFlashReads, met.transportFlashWrites,
	)

	return met
}

func (m *Metrics) remove(subsystem string, id string, name string) {
	m.lock.Lock()
	cancelfn, ok := m.cancelfns[fmt.Sprintf("%s_%s_%s", subsystem, id, name)]
	if ok {
		cancelfn()
		delete(m.cancelfns, fmt.Sprintf("%s_%s_%s", subsystem, id, name))
	}
	m.lock.Unlock()
}

func (m *Metrics) add(subsystem string, id string, name string, interval time.Duration, tickfn func()) {
	ctx, cancelfn := context.WithCancel(context.TODO())
	m.lock.Lock()
	m.cancelfns[fmt.Sprintf("%s_%s_%s", subsystem, id, name)] = cancelfn
	m.lock.Unlock()

	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				tickfn()
			}
		}
	}()
}

func (m *Metrics) Shutdown() {
	m.lock.Lock()
	for _, cancelfn := range m.cancelfns {
		cancelfn()
	}
	m.cancelfns = make(map[string]context.CancelFunc)
	m.lock.Unlock()
}

func (m *Metrics) RemoveAllID(id string) {
	m.lock.Lock()
	for key, cancelfn := range m.cancelfns {
		if strings.Contains(key, fmt.Sprintf("_%s_", id)) {
			cancelfn()
			delete(m.cancelfns, key)
		}
	}
	m.lock.Unlock()
}

func (m *Metrics) AddTransport(id string, name string, mm *modules.Metrics) {
	m.add(m.config.SubTransport, id, name, m.config.TickTransport, func() {
		met := mm.Snapshot()
		m.transportOutOps.WithLabelValues(id, name).Set(float64(met.OutOps))
		m.transportOutBytes.WithLabelValues(id, name).Set(float64(met.OutBytes))
		m.transportOutTime.WithLabelValues(id, name).Set(float64(met.OutTime))
		m.transportOutErrors.WithLabelValues(id, name).Set(float64(met.OutErrors))
		m.transportInOps.WithLabelValues(id, name).Set(float64(met.InOps))
		m.transportInBytes.WithLabelValues(id, name).Set(float64(met.InBytes))
		m.transportInTime.WithLabelValues(id, name).Set(float64(met.InTime))
		m.transportInErrors.WithLabelValues(id, name).Set(float64(met.InErrors))
		m.transportEraseOps.WithLabelValues(id, name).Set(float64(met.EraseOps))
		m.transportFlashReads.WithLabelValues(id, name).Set(float64(met.FlashReads))
		m.transportFlashWrites.WithLabelValues(id, name).Set(float64(met.FlashWrites))
	})
}

func (m *Metrics) RemoveTransport(id string, name string) {
	m.remove(m.config.SubTransport, id, name)
}
