package pitwall

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hako/durafmt"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"justapengu.in/pitwall/pkg/timing"
)

type Logger = logrus.FieldLogger

// DataProvider fetches and materializes sessions and lap telemetry from an external data source.
type DataProvider interface {
	LoadSession(ctx context.Context, year int, event string, kind timing.SessionKind) (*timing.Session, error)
	LoadTelemetry(ctx context.Context, session *timing.Session, lap timing.Lap) (timing.Telemetry, error)
}

var ErrUnknownSessionMode = errors.New("pitwall: unknown session mode")

type memoEntry struct {
	value    interface{}
	loadedAt time.Time
}

type LoaderStats struct {
	Hits    int
	Misses  int
	Entries int
}

// SessionLoader memoizes provider loads. Identical loads are served from
// memory while the entry is warm and concurrent identical loads share a single
// provider call. Failed loads are never memoized.
//
// A shared provider call runs detached from the requests waiting on it and is
// bounded by loadTimeout instead, so one caller going away does not fail the
// load for the others.
type SessionLoader struct {
	provider    DataProvider
	memoTTL     time.Duration
	loadTimeout time.Duration
	reporter    ErrorReporter
	logger      Logger

	group singleflight.Group

	mutex        sync.Mutex
	memo         map[string]memoEntry
	hits, misses int

	now func() time.Time
}

func NewSessionLoader(provider DataProvider, memoTTL, loadTimeout time.Duration, reporter ErrorReporter, logger Logger) *SessionLoader {
	return &SessionLoader{
		provider:    provider,
		memoTTL:     memoTTL,
		loadTimeout: loadTimeout,
		reporter:    reporter,
		logger:      logger,
		memo:        make(map[string]memoEntry),
		now:         time.Now,
	}
}

// Load returns the session of the given mode ("Qualifying" or "Race") for an
// event. On failure the session is nil and the error describes the load.
func (sl *SessionLoader) Load(ctx context.Context, year int, event string, mode string) (*timing.Session, error) {
	kind, err := timing.ParseSessionKind(mode)

	if err != nil {
		return nil, errors.Wrapf(ErrUnknownSessionMode, "%q", mode)
	}

	key := fmt.Sprintf("session|%d|%s|%s", year, event, kind)

	v, err := sl.memoize(ctx, key, "session", func(ctx context.Context) (interface{}, error) {
		start := sl.now()

		session, err := sl.provider.LoadSession(ctx, year, event, kind)

		if err != nil {
			return nil, err
		}

		took := sl.now().Sub(start)
		sessionLoadDuration.WithLabelValues(kind.String()).Observe(took.Seconds())

		sl.logger.WithFields(logrus.Fields{
			"year":    year,
			"event":   event,
			"session": kind.String(),
			"laps":    len(session.Laps),
		}).Infof("Loaded session in %s", durafmt.Parse(took).LimitFirstN(2))

		return session, nil
	})

	if err != nil {
		err = errors.Wrapf(err, "could not load %d %s %s", year, event, kind)

		if ctx.Err() != nil {
			sl.logger.WithError(err).Debug("Gave up waiting for session")
			return nil, err
		}

		sl.logger.WithError(err).Error("Could not load session")
		sl.report(err, map[string]string{"event": event, "session": kind.String(), "year": fmt.Sprint(year)})

		return nil, err
	}

	return v.(*timing.Session), nil
}

// Telemetry returns the telemetry of a lap of a loaded session.
func (sl *SessionLoader) Telemetry(ctx context.Context, session *timing.Session, lap timing.Lap) (timing.Telemetry, error) {
	if session == nil {
		return nil, errors.New("pitwall: no session to load telemetry from")
	}

	key := fmt.Sprintf("telemetry|%d|%s|%d", session.Key, lap.Driver, lap.LapNumber)

	v, err := sl.memoize(ctx, key, "telemetry", func(ctx context.Context) (interface{}, error) {
		return sl.provider.LoadTelemetry(ctx, session, lap)
	})

	if err != nil {
		err = errors.Wrapf(err, "could not load telemetry for %s lap %d", lap.Driver, lap.LapNumber)

		if ctx.Err() != nil {
			sl.logger.WithError(err).Debug("Gave up waiting for telemetry")
			return nil, err
		}

		sl.logger.WithError(err).Error("Could not load telemetry")
		sl.report(err, map[string]string{"driver": lap.Driver, "session": session.Kind.String()})

		return nil, err
	}

	return v.(timing.Telemetry), nil
}

func (sl *SessionLoader) memoize(ctx context.Context, key, kind string, load func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if v, ok := sl.lookup(key); ok {
		sessionLoads.WithLabelValues(kind, "hit").Inc()
		return v, nil
	}

	ch := sl.group.DoChan(key, func() (interface{}, error) {
		// another caller may have completed the load while we waited to enter the group
		if v, ok := sl.lookup(key); ok {
			return v, nil
		}

		sl.mutex.Lock()
		sl.misses++
		sl.mutex.Unlock()

		loadCtx, cancel := sl.loadContext()
		defer cancel()

		v, err := load(loadCtx)

		if err != nil {
			return nil, err
		}

		sl.mutex.Lock()
		sl.memo[key] = memoEntry{value: v, loadedAt: sl.now()}
		sl.mutex.Unlock()

		return v, nil
	})

	select {
	case <-ctx.Done():
		sessionLoads.WithLabelValues(kind, "cancelled").Inc()
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			sessionLoads.WithLabelValues(kind, "error").Inc()
			return nil, res.Err
		}

		sessionLoads.WithLabelValues(kind, "miss").Inc()

		return res.Val, nil
	}
}

func (sl *SessionLoader) loadContext() (context.Context, context.CancelFunc) {
	if sl.loadTimeout <= 0 {
		return context.WithCancel(context.Background())
	}

	return context.WithTimeout(context.Background(), sl.loadTimeout)
}

func (sl *SessionLoader) lookup(key string) (interface{}, bool) {
	sl.mutex.Lock()
	defer sl.mutex.Unlock()

	entry, ok := sl.memo[key]

	if !ok {
		return nil, false
	}

	if sl.memoTTL > 0 && sl.now().Sub(entry.loadedAt) > sl.memoTTL {
		delete(sl.memo, key)
		return nil, false
	}

	sl.hits++

	return entry.value, true
}

func (sl *SessionLoader) report(err error, tags map[string]string) {
	if sl.reporter != nil {
		sl.reporter(err, tags)
	}
}

func (sl *SessionLoader) Stats() LoaderStats {
	sl.mutex.Lock()
	defer sl.mutex.Unlock()

	return LoaderStats{
		Hits:    sl.hits,
		Misses:  sl.misses,
		Entries: len(sl.memo),
	}
}
