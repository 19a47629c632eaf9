package metrics

import "github.com/prometheus/client_golang/prometheus"

// Domain counts business events. A nil *Domain is valid and records nothing.
type Domain struct {
	ShiftsCreated prometheus.Counter
	WagePaid      *prometheus.CounterVec
	SyncPublished *prometheus.CounterVec
	SyncProcessed *prometheus.CounterVec
	ReportCache   *prometheus.CounterVec
}

func NewDomain(reg prometheus.Registerer) *Domain {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	d := &Domain{
		ShiftsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "shifts_created_total",
			Help:      "Number of shifts stored.",
		}),
		WagePaid: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "wage_total",
			Help:      "Sum of computed shift wages by currency.",
		}, []string{"currency"}),
		SyncPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sync_publish_total",
			Help:      "Shift sync messages published by outcome.",
		}, []string{"result"}),
		SyncProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sync_processed_total",
			Help:      "Shifts written to the spreadsheet by outcome.",
		}, []string{"result"}),
		ReportCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "report_cache_total",
			Help:      "Report cache lookups by outcome.",
		}, []string{"result"}),
	}
	d.ShiftsCreated = register(reg, d.ShiftsCreated)
	d.WagePaid = register(reg, d.WagePaid)
	d.SyncPublished = register(reg, d.SyncPublished)
	d.SyncProcessed = register(reg, d.SyncProcessed)
	d.ReportCache = register(reg, d.ReportCache)
	return d
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (d *Domain) ShiftCreated(currency string, wage float64) {
	if d == nil {
		return
	}
	d.ShiftsCreated.Inc()
	if wage > 0 {
		d.WagePaid.WithLabelValues(currency).Add(wage)
	}
}

func (d *Domain) Published(err error) {
	if d == nil {
		return
	}
	d.SyncPublished.WithLabelValues(outcome(err)).Inc()
}

func (d *Domain) Synced(err error) {
	if d == nil {
		return
	}
	d.SyncProcessed.WithLabelValues(outcome(err)).Inc()
}

func (d *Domain) CacheLookup(hit bool) {
	if d == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	d.ReportCache.WithLabelValues(result).Inc()
}
