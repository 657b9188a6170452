package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/robfig/cron/v3"

	"github.com/donaldgifford/bookwatch/internal/metrics"
)

const defaultPollInterval = 2 * time.Second

// Lister reads a collection once.
type Lister interface {
	Get(ctx context.Context, collection string) (Snapshot, error)
}

// Poller turns a Lister into live subscriptions for backends without change
// notifications. Every subscription gets its own "@every" cron entry; a
// snapshot is delivered only when the collection's fingerprint changed.
type Poller struct {
	cron     *cron.Cron
	lister   Lister
	interval time.Duration
	log      *slog.Logger
}

// NewPoller creates and starts a Poller.
func NewPoller(l Lister, interval time.Duration, log *slog.Logger) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if log == nil {
		log = slog.Default()
	}

	p := &Poller{
		cron:     cron.New(cron.WithLogger(cronLogger{log: log})),
		lister:   l,
		interval: interval,
		log:      log,
	}
	p.cron.Start()
	return p
}

// Stop halts polling and returns a context that is done once running polls finish.
func (p *Poller) Stop() context.Context {
	return p.cron.Stop()
}

// Entries returns the registered poll entries for inspection.
func (p *Poller) Entries() []cron.Entry {
	return p.cron.Entries()
}

type pollSub struct {
	mu          sync.Mutex
	closed      atomic.Bool
	fingerprint uint64
	entryID     atomic.Int64
}

// Subscribe delivers the current contents of collection, then polls it.
func (p *Poller) Subscribe(
	ctx context.Context,
	collection string,
	onSnapshot SnapshotFunc,
	onError ErrorFunc,
) (Unsubscribe, error) {
	c, err := cleanCollection(collection)
	if err != nil {
		return nil, err
	}

	snap, err := p.lister.Get(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", c, err)
	}

	sub := &pollSub{fingerprint: Fingerprint(snap)}
	onSnapshot(snap)

	pollCtx, cancel := context.WithCancel(ctx)

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			sub.closed.Store(true)
			cancel()
			p.cron.Remove(cron.EntryID(sub.entryID.Load()))
		})
	}

	job := cron.FuncJob(func() {
		if sub.closed.Load() {
			return
		}

		snap, err := p.lister.Get(pollCtx, c)
		if err != nil {
			if pollCtx.Err() != nil {
				return
			}
			metrics.StorePollsTotal.WithLabelValues("error").Inc()
			if sub.closed.Swap(true) {
				return
			}
			p.cron.Remove(cron.EntryID(sub.entryID.Load()))
			if onError != nil {
				onError(fmt.Errorf("polling %s: %w", c, err))
			}
			return
		}

		sub.mu.Lock()
		defer sub.mu.Unlock()

		fp := Fingerprint(snap)
		if fp == sub.fingerprint {
			metrics.StorePollsTotal.WithLabelValues("unchanged").Inc()
			return
		}
		metrics.StorePollsTotal.WithLabelValues("changed").Inc()
		sub.fingerprint = fp

		if sub.closed.Load() {
			return
		}
		onSnapshot(snap)
	})

	chain := cron.NewChain(cron.SkipIfStillRunning(cronLogger{log: p.log}))
	sub.entryID.Store(int64(p.cron.Schedule(cron.Every(p.interval), chain.Then(job))))

	go func() {
		<-pollCtx.Done()
		unsubscribe()
	}()

	return unsubscribe, nil
}

// Fingerprint hashes a snapshot independent of map iteration order.
func Fingerprint(snap Snapshot) uint64 {
	keys := make([]string, 0, len(snap.Records))
	for k := range snap.Records {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	d := xxhash.New()
	for _, k := range keys {
		_, _ = d.WriteString(k)
		_, _ = d.Write([]byte{0})
		// encoding/json sorts map keys, so equal records encode identically.
		body, err := json.Marshal(snap.Records[k])
		if err != nil {
			body = []byte(fmt.Sprint(snap.Records[k]))
		}
		_, _ = d.Write(body)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
