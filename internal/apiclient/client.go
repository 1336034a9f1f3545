package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/adityapw/fittrack/internal/schedules"
	"github.com/adityapw/fittrack/internal/telemetry/tracing"
	"github.com/adityapw/fittrack/internal/users"
	"github.com/adityapw/fittrack/internal/workouts"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/multierr"
)

// transportError marks a failure where the backend never produced a
// structured answer: connection refused, timeout, or an unparseable
// response body. Only these trigger the offline fallback.
type transportError struct {
	err error
}

func (e *transportError) Error() string {
	return fmt.Sprintf("transport error: %s", e.err)
}

func (e *transportError) Unwrap() error {
	return e.err
}

func isTransportError(err error) bool {
	var te *transportError
	return errors.As(err, &te)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// Client is the data access layer between the UI and the backend. Every
// operation tries the backend first; non-auth operations fall back to
// the local store on transport failure and tag the result offline.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *Store

	now   func() time.Time
	newID func() string
}

type NewClientParams struct {
	// BaseURL points at the API root, e.g. http://localhost:9000/api
	BaseURL    string
	HTTPClient *http.Client
	Store      *Store
}

func NewClient(params NewClientParams) *Client {
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(params.BaseURL, "/"),
		httpClient: httpClient,
		store:      params.Store,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

func (c *Client) doRequest(
	ctx context.Context,
	method, path string,
	body any,
	authed bool,
) (_ json.RawMessage, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "apiclient.request")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("method", method))
	span.SetAttributes(attribute.String("path", path))

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		if token := c.store.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.SetAttributes(attribute.Bool("transport_failure", true))
		return nil, &transportError{err: err}
	}
	defer func() {
		err = multierr.Append(err, resp.Body.Close())
	}()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("read response body: %w", err)}
	}

	var env envelope
	if err := json.Unmarshal(respBytes, &env); err != nil {
		// no structured error body, treat as a dead backend
		return nil, &transportError{err: fmt.Errorf("unmarshal response envelope: %w", err)}
	}

	span.SetAttributes(attribute.Int("status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		span.SetStatus(codes.Error, env.Message)
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}

	return env.Data, nil
}

// Workouts lists all workouts, falling back to the local mirror.
func (c *Client) Workouts(ctx context.Context) ([]Workout, bool, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/workouts", nil, false)
	if err != nil {
		if !isTransportError(err) {
			return nil, false, err
		}
		log.Debugf("workouts: backend unreachable, serving local mirror: %s", err)
		return c.store.Workouts(), true, nil
	}

	var result []Workout
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, fmt.Errorf("unmarshal workouts: %w", err)
	}

	if err := c.store.ReplaceWorkouts(result); err != nil {
		log.Errorf("workouts: refresh local mirror: %s", err)
	}

	return result, false, nil
}

// Workout fetches a single record. An id absent from both the backend
// and the local cache yields ErrWorkoutNotFound.
func (c *Client) Workout(ctx context.Context, id WorkoutID) (*Workout, bool, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/workouts/"+string(id), nil, false)
	if err != nil {
		if !isTransportError(err) {
			return nil, false, err
		}
		workout, err := c.store.Workout(id)
		if err != nil {
			return nil, true, err
		}
		return workout, true, nil
	}

	var result Workout
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, fmt.Errorf("unmarshal workout: %w", err)
	}
	return &result, false, nil
}

// CreateWorkout adds a record. When the backend is unreachable the
// record is synthesized locally with a generated id and kept in the
// mirror; it keeps that id forever, there is no later reconciliation.
func (c *Client) CreateWorkout(ctx context.Context, req CreateWorkoutRequest) (*Workout, bool, error) {
	data, err := c.doRequest(ctx, http.MethodPost, "/workouts", req, false)
	if err != nil {
		if !isTransportError(err) {
			return nil, false, err
		}

		now := c.now()
		workout := Workout{
			ID:        WorkoutID(c.newID()),
			Exercise:  req.Exercise,
			Duration:  req.Duration,
			Date:      req.Date,
			Notes:     req.Notes,
			Calories:  req.Calories,
			CreatedAt: &now,
		}
		if err := c.store.AppendWorkout(workout); err != nil {
			return nil, true, err
		}
		return &workout, true, nil
	}

	var result Workout
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, fmt.Errorf("unmarshal created workout: %w", err)
	}

	if err := c.store.UpsertWorkout(result); err != nil {
		log.Errorf("create workout: mirror to local cache: %s", err)
	}

	return &result, false, nil
}

// UpdateWorkout applies a partial update. Offline, the fields merge
// into the cached record; if the id is unknown locally the transport
// error surfaces instead.
func (c *Client) UpdateWorkout(ctx context.Context, id WorkoutID, req UpdateWorkoutRequest) (*Workout, bool, error) {
	data, err := c.doRequest(ctx, http.MethodPut, "/workouts/"+string(id), req, false)
	if err != nil {
		if !isTransportError(err) {
			return nil, false, err
		}

		merged, mergeErr := c.store.MergeWorkout(id, req)
		if mergeErr != nil {
			if errors.Is(mergeErr, ErrWorkoutNotFound) {
				// nothing to merge into, surface the original failure
				return nil, true, err
			}
			return nil, true, mergeErr
		}
		return merged, true, nil
	}

	var result Workout
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, fmt.Errorf("unmarshal updated workout: %w", err)
	}

	if err := c.store.UpsertWorkout(result); err != nil {
		log.Errorf("update workout: mirror to local cache: %s", err)
	}

	return &result, false, nil
}

// DeleteWorkout removes a record. The local mirror entry goes away in
// both paths, delete is optimistic.
func (c *Client) DeleteWorkout(ctx context.Context, id WorkoutID) (*Workout, bool, error) {
	data, err := c.doRequest(ctx, http.MethodDelete, "/workouts/"+string(id), nil, false)
	if err != nil {
		if !isTransportError(err) {
			return nil, false, err
		}
		removed, removeErr := c.store.RemoveWorkout(id)
		if removeErr != nil {
			return nil, true, removeErr
		}
		return removed, true, nil
	}

	if _, err := c.store.RemoveWorkout(id); err != nil && !errors.Is(err, ErrWorkoutNotFound) {
		log.Errorf("delete workout: remove from local cache: %s", err)
	}

	var result Workout
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, fmt.Errorf("unmarshal deleted workout: %w", err)
	}
	return &result, false, nil
}

// Stats returns aggregate numbers, computed by the backend or, when it
// is unreachable, folded over the local mirror.
func (c *Client) Stats(ctx context.Context) (*workouts.Stats, bool, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/stats", nil, false)
	if err != nil {
		if !isTransportError(err) {
			return nil, false, err
		}

		cached := c.store.Workouts()
		folded := make([]workouts.Workout, 0, len(cached))
		for _, w := range cached {
			folded = append(folded, workouts.Workout{
				Duration: w.Duration,
				Calories: w.Calories,
				Date:     w.Date,
			})
		}
		return workouts.CalculateStats(folded, c.now()), true, nil
	}

	var result workouts.Stats
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, fmt.Errorf("unmarshal stats: %w", err)
	}
	return &result, false, nil
}

// Schedules lists the weekly plan; the offline fallback is the builtin
// week without exercise details.
func (c *Client) Schedules(ctx context.Context) ([]schedules.ScheduleEntry, bool, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/schedules", nil, false)
	if err != nil {
		if !isTransportError(err) {
			return nil, false, err
		}
		return defaultScheduleWeek(), true, nil
	}

	var result []schedules.ScheduleEntry
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, fmt.Errorf("unmarshal schedules: %w", err)
	}
	return result, false, nil
}

// ScheduleByDay looks a day up by its localized or english name,
// case-insensitively; the offline fallback searches the detailed
// builtin week.
func (c *Client) ScheduleByDay(ctx context.Context, day string) (*schedules.ScheduleEntry, bool, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/schedules/"+url.PathEscape(day), nil, false)
	if err != nil {
		if !isTransportError(err) {
			return nil, false, err
		}
		for _, entry := range defaultScheduleWeekDetailed() {
			if strings.EqualFold(entry.Day, day) || strings.EqualFold(entry.DayEn, day) {
				entryCopy := entry
				return &entryCopy, true, nil
			}
		}
		return nil, true, schedules.ErrScheduleNotFound
	}

	var result schedules.ScheduleEntry
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, fmt.Errorf("unmarshal schedule: %w", err)
	}
	return &result, false, nil
}

// Register creates an account. Password length is checked before any
// network call; a transport failure yields ErrServerUnreachable, auth
// is never synthesized locally.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*users.User, error) {
	if len(req.Password) < users.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/auth/register", req, false)
	if err != nil {
		if isTransportError(err) {
			return nil, ErrServerUnreachable
		}
		return nil, err
	}

	return c.storeAuthResponse(data)
}

func (c *Client) Login(ctx context.Context, email, password string) (*users.User, error) {
	data, err := c.doRequest(ctx, http.MethodPost, "/auth/login", users.LoginRequest{
		Email:    email,
		Password: password,
	}, false)
	if err != nil {
		if isTransportError(err) {
			return nil, ErrServerUnreachable
		}
		return nil, err
	}

	return c.storeAuthResponse(data)
}

func (c *Client) storeAuthResponse(data json.RawMessage) (*users.User, error) {
	var authResp users.AuthResponse
	if err := json.Unmarshal(data, &authResp); err != nil {
		return nil, fmt.Errorf("unmarshal auth response: %w", err)
	}

	if err := c.store.SetToken(authResp.Token); err != nil {
		return nil, fmt.Errorf("persist token: %w", err)
	}
	if err := c.store.SetProfile(&authResp.User); err != nil {
		return nil, fmt.Errorf("persist profile: %w", err)
	}

	return &authResp.User, nil
}

// CurrentUser fetches the authenticated profile and refreshes the
// cached copy.
func (c *Client) CurrentUser(ctx context.Context) (*users.User, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/auth/me", nil, true)
	if err != nil {
		if isTransportError(err) {
			return nil, ErrServerUnreachable
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
			// backend rejected the token, drop the dead session
			if clearErr := c.store.ClearSession(); clearErr != nil {
				log.Errorf("current user: clear rejected session: %s", clearErr)
			}
		}
		return nil, err
	}

	var user users.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}

	if err := c.store.SetProfile(&user); err != nil {
		log.Errorf("current user: refresh cached profile: %s", err)
	}

	return &user, nil
}

func (c *Client) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*users.User, error) {
	data, err := c.doRequest(ctx, http.MethodPut, "/auth/profile", req, true)
	if err != nil {
		if isTransportError(err) {
			return nil, ErrServerUnreachable
		}
		return nil, err
	}

	var user users.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}

	if err := c.store.SetProfile(&user); err != nil {
		log.Errorf("update profile: refresh cached profile: %s", err)
	}

	return &user, nil
}

// Logout drops the session token and cached profile. The workout
// mirror stays, matching the app's historical behavior.
func (c *Client) Logout() error {
	return c.store.ClearSession()
}

func (c *Client) IsAuthenticated() bool {
	return c.store.Token() != ""
}

// CachedProfile returns the locally cached profile without a network
// round trip, nil when none is cached.
func (c *Client) CachedProfile() *users.User {
	return c.store.Profile()
}

// CompletedExercises returns the checked-off exercise indices for a
// schedule day, purely local state.
func (c *Client) CompletedExercises(day string) []int {
	return c.store.CompletedExercises(day)
}

func (c *Client) SetCompletedExercises(day string, indices []int) error {
	return c.store.SetCompletedExercises(day, indices)
}
