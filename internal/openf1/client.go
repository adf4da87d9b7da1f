package openf1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const DefaultBaseURL = "https://api.openf1.org/v1"

// dateFilterLayout is the timestamp format accepted by OpenF1 comparison filters.
const dateFilterLayout = "2006-01-02T15:04:05.000"

var (
	ErrUnexpectedStatus = errors.New("openf1: unexpected response status")
	ErrMeetingNotFound  = errors.New("openf1: no meeting matches the requested event")
	ErrSessionNotFound  = errors.New("openf1: no session of the requested type for the event")
)

type Logger = logrus.FieldLogger

// RequestHook is called once per provider request with the endpoint requested,
// whether the response was served from the response cache and the resulting error.
type RequestHook func(endpoint string, cached bool, err error)

type Client struct {
	httpClient  *http.Client
	baseURL     string
	cache       *ResponseCache
	logger      Logger
	requestHook RequestHook
}

type ClientOption func(c *Client)

// WithBaseURL configures the URL of the OpenF1 API, primarily used for testing.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(baseURL, "/") }
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithCache stores every successful response in cache and serves repeated requests from it.
func WithCache(cache *ResponseCache) ClientOption {
	return func(c *Client) { c.cache = cache }
}

func WithLogger(logger Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

func WithRequestHook(hook RequestHook) ClientOption {
	return func(c *Client) { c.requestHook = hook }
}

func New(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: time.Second * 30},
		baseURL:    DefaultBaseURL,
		logger:     logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Meetings(ctx context.Context, year int) ([]Meeting, error) {
	var meetings []Meeting

	q := url.Values{}
	q.Set("year", strconv.Itoa(year))

	return meetings, c.get(ctx, "meetings", q.Encode(), &meetings)
}

func (c *Client) Sessions(ctx context.Context, meetingKey int, sessionName string) ([]Session, error) {
	var sessions []Session

	q := url.Values{}
	q.Set("meeting_key", strconv.Itoa(meetingKey))

	if sessionName != "" {
		q.Set("session_name", sessionName)
	}

	return sessions, c.get(ctx, "sessions", q.Encode(), &sessions)
}

func (c *Client) Drivers(ctx context.Context, sessionKey int) ([]Driver, error) {
	var drivers []Driver

	return drivers, c.get(ctx, "drivers", sessionQuery(sessionKey), &drivers)
}

func (c *Client) Laps(ctx context.Context, sessionKey int) ([]Lap, error) {
	var laps []Lap

	return laps, c.get(ctx, "laps", sessionQuery(sessionKey), &laps)
}

func (c *Client) Positions(ctx context.Context, sessionKey int) ([]Position, error) {
	var positions []Position

	return positions, c.get(ctx, "position", sessionQuery(sessionKey), &positions)
}

func (c *Client) Stints(ctx context.Context, sessionKey int) ([]Stint, error) {
	var stints []Stint

	return stints, c.get(ctx, "stints", sessionQuery(sessionKey), &stints)
}

// CarData returns the car telemetry samples of a driver recorded between from and to, inclusive.
func (c *Client) CarData(ctx context.Context, sessionKey, driverNumber int, from, to time.Time) ([]CarData, error) {
	var data []CarData

	q := url.Values{}
	q.Set("session_key", strconv.Itoa(sessionKey))
	q.Set("driver_number", strconv.Itoa(driverNumber))

	// comparison filters are part of the parameter name, so they can't go through url.Values.
	rawQuery := q.Encode() +
		"&date>=" + url.QueryEscape(from.UTC().Format(dateFilterLayout)) +
		"&date<=" + url.QueryEscape(to.UTC().Format(dateFilterLayout))

	return data, c.get(ctx, "car_data", rawQuery, &data)
}

func sessionQuery(sessionKey int) string {
	q := url.Values{}
	q.Set("session_key", strconv.Itoa(sessionKey))

	return q.Encode()
}

func (c *Client) get(ctx context.Context, endpoint, rawQuery string, v interface{}) (err error) {
	u := c.baseURL + "/" + endpoint

	if rawQuery != "" {
		u += "?" + rawQuery
	}

	cached := false

	defer func() {
		if c.requestHook != nil {
			c.requestHook(endpoint, cached, err)
		}
	}()

	if c.cache != nil {
		body, ok, err := c.cache.Get(u)

		if err != nil {
			c.logger.WithError(err).Warnf("Could not read cached response for %s", u)
		} else if ok {
			cached = true

			return decodeResponse(endpoint, body, v)
		}
	}

	body, err := c.fetch(ctx, u)

	if err != nil {
		return err
	}

	if err := decodeResponse(endpoint, body, v); err != nil {
		return err
	}

	if c.cache != nil {
		if err := c.cache.Put(u, body); err != nil {
			c.logger.WithError(err).Warnf("Could not cache response for %s", u)
		}
	}

	return nil
}

func (c *Client) fetch(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, u, nil)

	if err != nil {
		return nil, err
	}

	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")

	c.logger.Debugf("Requesting %s", u)

	resp, err := c.httpClient.Do(req)

	if err != nil {
		return nil, pkgerrors.Wrapf(err, "openf1: request to %s failed", u)
	}

	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)

	if err != nil {
		return nil, pkgerrors.Wrapf(err, "openf1: could not read response from %s", u)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.Wrapf(ErrUnexpectedStatus, "%s returned %s", u, resp.Status)
	}

	return body, nil
}

func decodeResponse(endpoint string, body []byte, v interface{}) error {
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(v); err != nil {
		return pkgerrors.Wrapf(err, "openf1: could not decode %s response", endpoint)
	}

	return nil
}
