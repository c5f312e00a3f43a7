// Package stockwatch periodically reports products that fell to or below
// their minimum stock.
package stockwatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"

	"github.com/kasirku/kasir/internal/access"
	"github.com/kasirku/kasir/internal/product"
)

// LowStockLister is the part of product.Repository the watcher needs.
type LowStockLister interface {
	LowStock(ctx context.Context, scope access.Scope) ([]product.Product, error)
}

// Watcher scans every store on a cron schedule.
type Watcher struct {
	products LowStockLister
	schedule cron.Schedule
	spec     string
	gauge    *prometheus.GaugeVec

	mu      sync.Mutex
	running bool
}

// New creates a Watcher for the standard five-field cron expression spec.
// Metrics are registered with reg.
func New(products LowStockLister, spec string, reg prometheus.Registerer) (*Watcher, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parsing stock scan schedule %q: %w", spec, err)
	}

	return &Watcher{
		products: products,
		schedule: schedule,
		spec:     spec,
		gauge: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "kasir_low_stock_products",
			Help: "Products at or below their minimum stock, per store.",
		}, []string{"tenant", "store"}),
	}, nil
}

// Start scans once, then on every tick of the schedule. It blocks until ctx
// is cancelled and a running scan has finished.
func (w *Watcher) Start(ctx context.Context) {
	slog.Info("stock watcher started", "schedule", w.spec)

	w.run(ctx)

	c := cron.New()
	c.Schedule(w.schedule, cron.FuncJob(func() { w.run(ctx) }))
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	slog.Info("stock watcher stopped")
}

// run skips a tick while the previous scan is still going.
func (w *Watcher) run(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		slog.Warn("stock watcher: previous scan still running, skipping")
		return
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	if _, err := w.Scan(ctx); err != nil {
		slog.Error("stock watcher: scan failed", "error", err)
	}
}

// Scan lists low-stock products across all tenants, logs each one and
// refreshes the gauge. It returns the number of products found.
func (w *Watcher) Scan(ctx context.Context) (int, error) {
	low, err := w.products.LowStock(ctx, access.God())
	if err != nil {
		return 0, fmt.Errorf("listing low stock products: %w", err)
	}

	counts := make(map[[2]string]int)
	for _, p := range low {
		slog.Warn("low stock",
			"tenant", p.TenantID.String(),
			"store", p.TokoID.String(),
			"product", p.ID.String(),
			"sku", p.SKU,
			"stock", p.Stock,
			"minStock", p.MinStock,
		)
		counts[[2]string{p.TenantID.String(), p.TokoID.String()}]++
	}

	w.gauge.Reset()
	for k, n := range counts {
		w.gauge.WithLabelValues(k[0], k[1]).Set(float64(n))
	}

	return len(low), nil
}
