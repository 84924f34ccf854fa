// Command viewportprobe opens a storefront page in headless Chrome, tracks
// every [data-product-id] element and prints a snapshot after each scroll
// step as one JSON object per line.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"mabletask/companion/browser"
	"mabletask/companion/store"
	"mabletask/companion/visibility"
)

type options struct {
	url        string
	catalog    string
	steps      int
	stepPixels int
	settle     time.Duration
	threshold  float64
	aboveFold  bool
	headful    bool
	verbose    bool
}

func main() {
	var o options
	flag.StringVar(&o.url, "url", "http://localhost:3000/", "page to probe")
	flag.StringVar(&o.catalog, "catalog", "", "product catalog JSON (default: embedded catalog)")
	flag.IntVar(&o.steps, "steps", 5, "number of scroll steps")
	flag.IntVar(&o.stepPixels, "step-px", 600, "pixels scrolled per step")
	flag.DurationVar(&o.settle, "settle", 500*time.Millisecond, "wait after each scroll for notifications")
	flag.Float64Var(&o.threshold, "threshold", visibility.DefaultThreshold, "intersection ratio counted as visible")
	flag.BoolVar(&o.aboveFold, "above-fold", true, "include above_fold_products in snapshots")
	flag.BoolVar(&o.headful, "headful", false, "show the browser window")
	flag.BoolVar(&o.verbose, "v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(o, logger); err != nil {
		logger.Error("probe failed", "error", err)
		os.Exit(1)
	}
}

func run(o options, logger *slog.Logger) error {
	products, err := store.LoadProducts(o.catalog)
	if err != nil {
		return err
	}

	u, err := launcher.New().Headless(!o.headful).Launch()
	if err != nil {
		return fmt.Errorf("launch chrome: %w", err)
	}
	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("connect chrome: %w", err)
	}
	defer b.Close()

	page, err := b.Page(proto.TargetCreateTarget{URL: o.url})
	if err != nil {
		return fmt.Errorf("open %s: %w", o.url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait for load: %w", err)
	}

	loop := visibility.NewLoop()
	defer loop.Close()

	platform, err := browser.New(page, loop, logger)
	if err != nil {
		return err
	}
	defer platform.Close()

	bindings, records, err := collect(page, products, logger)
	if err != nil {
		return err
	}

	cfg := visibility.DefaultConfig()
	cfg.Threshold = o.threshold
	cfg.Buckets.IncludeAboveFold = o.aboveFold
	cfg.PageURL = func() string { return o.url }
	cfg.Logger = logger
	cfg.Listener = func(n int) { logger.Info("visible count changed", "visible", n) }
	tracker := visibility.NewTracker(platform, cfg)

	var installErr error
	loop.Do(func() { installErr = tracker.Install(bindings, records) })
	if installErr != nil {
		return fmt.Errorf("install: %w", installErr)
	}
	defer loop.Do(tracker.Teardown)

	out := json.NewEncoder(os.Stdout)
	for step := 0; ; step++ {
		time.Sleep(o.settle)
		var snap visibility.Snapshot
		loop.Do(func() { snap = tracker.CaptureSnapshot() })
		if err := out.Encode(snap); err != nil {
			return err
		}
		if step == o.steps {
			return nil
		}
		if _, err := page.Eval(`(dy) => window.scrollBy(0, dy)`, o.stepPixels); err != nil {
			return fmt.Errorf("scroll: %w", err)
		}
	}
}

// collect pairs each product element on the page with its catalog record.
// Elements whose id is not in the catalog are skipped.
func collect(page *rod.Page, products *store.ProductStore, logger *slog.Logger) ([]visibility.Binding, []visibility.Record, error) {
	els, err := page.Elements("[data-product-id]")
	if err != nil {
		return nil, nil, fmt.Errorf("find product elements: %w", err)
	}

	var (
		bindings []visibility.Binding
		records  []visibility.Record
		seen     = make(map[string]bool)
	)
	for _, el := range els {
		attr, err := el.Attribute("data-product-id")
		if err != nil || attr == nil || *attr == "" {
			continue
		}
		id := *attr
		if seen[id] {
			logger.Warn("duplicate product element skipped", "id", id)
			continue
		}
		p, err := products.Get(id)
		if err != nil {
			logger.Warn("product not in catalog, skipped", "id", id)
			continue
		}
		seen[id] = true
		bindings = append(bindings, visibility.Binding{ID: id, Handle: el})
		records = append(records, p.Record())
	}
	logger.Info("tracking products", "count", len(bindings))
	return bindings, records, nil
}
