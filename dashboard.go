package pitwall

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-http-utils/etag"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/tdewolff/minify"
	"github.com/tdewolff/minify/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"justapengu.in/pitwall/internal/charts"
	"justapengu.in/pitwall/pkg/timing"
)

const (
	chartSpeed    = "speed"
	chartPosition = "position"
	chartLapTimes = "laptimes"
	chartTyres    = "tyres"
)

var sessionCharts = map[timing.SessionKind][]string{
	timing.SessionKindQualifying: {chartSpeed},
	timing.SessionKindRace:       {chartPosition, chartLapTimes, chartTyres},
}

var errUnknownChart = errors.New("pitwall: unknown chart")

type Dashboard struct {
	config   *Configuration
	loader   *SessionLoader
	gatherer prometheus.Gatherer
	logger   Logger
}

// NewDashboard serves the metrics collected by gatherer on /metrics when
// metrics are enabled.
func NewDashboard(config *Configuration, loader *SessionLoader, gatherer prometheus.Gatherer, logger Logger) *Dashboard {
	return &Dashboard{
		config:   config,
		loader:   loader,
		gatherer: gatherer,
		logger:   logger,
	}
}

func (d *Dashboard) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(d.logRequests)

	router.Get("/", d.Page)
	router.Method(http.MethodGet, "/charts/{session}/{chart}.svg", etag.Handler(http.HandlerFunc(d.Chart), false))

	if d.config.Metrics.Enabled && d.gatherer != nil {
		router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.gatherer, promhttp.HandlerOpts{}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		d.logger.Debugf("Could not find HTTP response for URL: %s", r.URL.String())

		http.NotFound(w, r)
	})

	return router
}

func (d *Dashboard) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		d.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"url":      r.URL.String(),
			"status":   ww.Status(),
			"duration": time.Since(start),
		}).Debug("Served request")
	})
}

func (d *Dashboard) drivers() []charts.Driver {
	out := make([]charts.Driver, 0, len(d.config.Drivers))

	for _, driver := range d.config.Drivers {
		out = append(out, charts.Driver{
			Code:  driver.Code,
			Name:  driver.Name,
			Team:  driver.Team,
			Color: driver.Color,
		})
	}

	return out
}

func (d *Dashboard) load(ctx context.Context, kind timing.SessionKind) (*timing.Session, error) {
	return d.loader.Load(ctx, d.config.Event.Year, d.config.Event.Name, kind.String())
}

func (d *Dashboard) Page(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("session")

	if mode == "" {
		mode = timing.SessionKindQualifying.String()
	}

	kind, err := timing.ParseSessionKind(mode)

	if err != nil {
		http.Error(w, fmt.Sprintf("Unknown session %q", mode), http.StatusBadRequest)
		return
	}

	data := &pageData{
		Title:     fmt.Sprintf("🏁 %d %s:", d.config.Event.Year, d.config.Event.Title),
		Subheader: d.subheader(),
		Mode:      kind.String(),
		Modes:     []string{timing.SessionKindQualifying.String(), timing.SessionKindRace.String()},
	}

	status := http.StatusOK

	session, err := d.load(r.Context(), kind)

	if err != nil {
		data.Error = err.Error()
		status = http.StatusBadGateway
	} else {
		switch kind {
		case timing.SessionKindQualifying:
			data.Qualifying, err = d.qualifyingView(session)
			data.Insights = d.config.Insights.Qualifying
		case timing.SessionKindRace:
			data.Race = d.raceView(session)
			data.Insights = d.config.Insights.Race
		}

		if err != nil {
			d.logger.WithError(err).Error("Could not build qualifying view")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	buf := new(bytes.Buffer)

	if err := pageTemplate.Execute(buf, data); err != nil {
		d.logger.WithError(err).Error("Could not render dashboard template")
		http.Error(w, "Could not render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	minifier := &html.Minifier{KeepEndTags: true}
	_ = minifier.Minify(minify.New(), w, buf, nil)
}

func (d *Dashboard) subheader() string {
	var out string

	for i, driver := range d.config.Drivers {
		if i > 0 {
			out += " vs "
		}

		out += fmt.Sprintf("%s (%s)", driver.Code, driver.Team)
	}

	return out
}

func chartURL(kind timing.SessionKind, chart string) string {
	return fmt.Sprintf("/charts/%s/%s.svg", kind, chart)
}

// qualifyingView compares the fastest lap of each driver. The first driver's
// card carries the gap to the second driver.
func (d *Dashboard) qualifyingView(session *timing.Session) (*qualifyingView, error) {
	fastest, err := d.fastestLaps(session)

	if err != nil {
		return nil, err
	}

	view := &qualifyingView{
		SpeedChart: chartURL(timing.SessionKindQualifying, chartSpeed),
	}

	for i, driver := range d.config.Drivers {
		card := metricCard{
			Label:  driver.Label(),
			Value:  timing.FormatLapTime(fastest[i].LapTime),
			Detail: sectorDetail(fastest[i]),
		}

		if i == 0 && len(fastest) > 1 {
			delta := fastest[0].LapTime - fastest[1].LapTime

			card.Delta = timing.FormatDelta(delta)
			card.DeltaGood = delta < 0
		}

		view.Cards = append(view.Cards, card)
	}

	return view, nil
}

func (d *Dashboard) fastestLaps(session *timing.Session) ([]timing.Lap, error) {
	fastest := make([]timing.Lap, 0, len(d.config.Drivers))

	for _, driver := range d.config.Drivers {
		lap, err := session.Laps.PickDriver(driver.Code).PickFastest()

		if err != nil {
			return nil, errors.Wrapf(err, "fastest lap of %s", driver.Code)
		}

		fastest = append(fastest, lap)
	}

	return fastest, nil
}

func (d *Dashboard) raceView(session *timing.Session) *raceView {
	view := &raceView{
		PositionChart: chartURL(timing.SessionKindRace, chartPosition),
		LapTimeChart:  chartURL(timing.SessionKindRace, chartLapTimes),
		TyreChart:     chartURL(timing.SessionKindRace, chartTyres),
	}

	for _, driver := range d.config.Drivers {
		quickLaps := session.Laps.PickDriver(driver.Code).PickQuickLaps(d.config.QuickLapThreshold)

		card := metricCard{
			Label:  driver.Label(),
			Value:  fmt.Sprintf("%d quick laps", len(quickLaps)),
			Detail: stintDetail(session.Laps.PickDriver(driver.Code).Stints()),
		}

		if len(quickLaps) > 0 {
			card.Delta = "avg " + timing.FormatLapTime(quickLaps.MeanLapTime())
			card.DeltaGood = true
		}

		view.Cards = append(view.Cards, card)
	}

	return view
}

func sectorDetail(lap timing.Lap) string {
	sectors := make([]string, 0, len(lap.Sectors))

	for i, sector := range lap.Sectors {
		sectors = append(sectors, fmt.Sprintf("S%d %s", i+1, timing.FormatSectorTime(sector)))
	}

	return strings.Join(sectors, " / ")
}

// stintDetail describes a driver's strategy, e.g. "Medium L1-18 (18 laps old), Hard L19-50 (32 laps old)".
func stintDetail(stints []timing.Stint) string {
	caser := cases.Title(language.English)
	out := make([]string, 0, len(stints))

	for _, stint := range stints {
		out = append(out, fmt.Sprintf("%s L%d-%d (%d laps old)", caser.String(string(stint.Compound)), stint.FirstLap, stint.LastLap, stint.TyreLife))
	}

	return strings.Join(out, ", ")
}

func (d *Dashboard) Chart(w http.ResponseWriter, r *http.Request) {
	kind, err := timing.ParseSessionKind(chi.URLParam(r, "session"))

	if err != nil {
		http.NotFound(w, r)
		return
	}

	name := chi.URLParam(r, "chart")

	if !hasChart(kind, name) {
		http.NotFound(w, r)
		return
	}

	session, err := d.load(r.Context(), kind)

	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	buf := new(bytes.Buffer)

	err = d.renderChart(r.Context(), buf, session, name)
	chartRenders.WithLabelValues(name, resultLabel(err)).Inc()

	if err != nil {
		d.logger.WithError(err).Errorf("Could not render %s chart", name)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func hasChart(kind timing.SessionKind, name string) bool {
	for _, chart := range sessionCharts[kind] {
		if chart == name {
			return true
		}
	}

	return false
}

func (d *Dashboard) renderChart(ctx context.Context, buf *bytes.Buffer, session *timing.Session, name string) error {
	drivers := d.drivers()

	switch name {
	case chartSpeed:
		return d.renderSpeedTrace(ctx, buf, session, drivers)
	case chartPosition:
		series := make([]charts.DriverSeries, 0, len(drivers))

		for _, driver := range drivers {
			series = append(series, charts.PositionSeries(session.Laps, driver))
		}

		return charts.Positions(buf, series)
	case chartLapTimes:
		series := make([]charts.DriverSeries, 0, len(drivers))

		for _, driver := range drivers {
			series = append(series, charts.LapTimeSeries(session.Laps, driver))
		}

		return charts.LapTimes(buf, series)
	case chartTyres:
		series := make([]charts.TyreSeries, 0, len(drivers))

		for _, driver := range drivers {
			series = append(series, charts.NewTyreSeries(session.Laps, driver))
		}

		return charts.Tyres(buf, series)
	default:
		return errUnknownChart
	}
}

func (d *Dashboard) renderSpeedTrace(ctx context.Context, buf *bytes.Buffer, session *timing.Session, drivers []charts.Driver) error {
	fastest, err := d.fastestLaps(session)

	if err != nil {
		return err
	}

	series := make([]charts.DriverSeries, 0, len(drivers))

	for i, driver := range drivers {
		telemetry, err := d.loader.Telemetry(ctx, session, fastest[i])

		if err != nil {
			return err
		}

		series = append(series, charts.SpeedSeries(telemetry, driver))
	}

	bands := make([]charts.Band, 0, len(d.config.SectorBands))

	for i, band := range d.config.SectorBands {
		bands = append(bands, charts.Band{
			Name:  fmt.Sprintf("Sector %d", i+1),
			Start: band.Start,
			End:   band.End,
			Color: band.Color,
		})
	}

	title := fmt.Sprintf("Speed Comparison - %s %d %s", d.config.Event.Title, d.config.Event.Year, session.Kind)

	return charts.SpeedTrace(buf, title, series, bands)
}
