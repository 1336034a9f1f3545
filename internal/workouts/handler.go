package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/adityapw/fittrack/internal/telemetry/metrics"
	"github.com/adityapw/fittrack/internal/telemetry/tracing"
	"github.com/adityapw/fittrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type workoutsRepo interface {
	Add(ctx context.Context, workout Workout) (*Workout, error)
	Get(ctx context.Context, id int) (*Workout, error)
	List(ctx context.Context) ([]Workout, error)
	Update(ctx context.Context, id int, req UpdateWorkoutRequest) (*Workout, error)
	Delete(ctx context.Context, id int) (*Workout, error)
}

type Handler struct {
	repo     workoutsRepo
	analyzer *Analyzer
	metrics  *metrics.Manager
}

func NewHandler(
	repo workoutsRepo,
	analyzer *Analyzer,
	metrics *metrics.Manager,
) *Handler {
	return &Handler{
		repo:     repo,
		analyzer: analyzer,
		metrics:  metrics,
	}
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	workouts, err := handler.repo.List(r.Context())
	if err != nil {
		log.Errorf("list workouts error: %s", err)
		pkg.WriteAPIError(w, "failed to get workouts", http.StatusInternalServerError)
		return
	}

	pkg.WriteAPIData(w, workouts, http.StatusOK)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := workoutID(w, r)
	if !ok {
		return
	}

	workout, err := handler.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			pkg.WriteAPIError(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("get workout %d error: %s", id, err)
		pkg.WriteAPIError(w, "failed to get workout", http.StatusInternalServerError)
		return
	}

	pkg.WriteAPIData(w, workout, http.StatusOK)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workouts.handler.add")
	defer span.End()

	var workout Workout
	if err := json.NewDecoder(r.Body).Decode(&workout); err != nil {
		pkg.WriteAPIError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := workout.Validate(); err != nil {
		pkg.WriteAPIError(w, err.Error(), http.StatusBadRequest)
		return
	}

	addedWorkout, err := handler.repo.Add(ctx, workout)
	if err != nil {
		log.Errorf("failed to add workout [%s] [%s]: %s", workout.Exercise, workout.Date, err)
		pkg.WriteAPIError(w, "failed to add workout", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterWorkouts.Inc()

	log.Tracef("new workout added: [%s] [%s]: %d", addedWorkout.Exercise, addedWorkout.Date, addedWorkout.ID)
	pkg.WriteAPIData(w, addedWorkout, http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := workoutID(w, r)
	if !ok {
		return
	}

	var req UpdateWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.WriteAPIError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	updatedWorkout, err := handler.repo.Update(r.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrWorkoutNotFound):
			pkg.WriteAPIError(w, "workout not found", http.StatusNotFound)
		case errors.Is(err, ErrInvalidWorkout):
			pkg.WriteAPIError(w, err.Error(), http.StatusBadRequest)
		default:
			log.Errorf("failed to update workout %d: %s", id, err)
			pkg.WriteAPIError(w, "failed to update workout", http.StatusInternalServerError)
		}
		return
	}

	pkg.WriteAPIData(w, updatedWorkout, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := workoutID(w, r)
	if !ok {
		return
	}

	deletedWorkout, err := handler.repo.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			pkg.WriteAPIError(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete workout %d: %s", id, err)
		pkg.WriteAPIError(w, "failed to delete workout", http.StatusInternalServerError)
		return
	}

	pkg.WriteAPIDataMessage(w, deletedWorkout, "workout deleted", http.StatusOK)
}

func (handler *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := handler.analyzer.Stats(r.Context())
	if err != nil {
		log.Errorf("workout stats error: %s", err)
		pkg.WriteAPIError(w, "failed to get stats", http.StatusInternalServerError)
		return
	}

	pkg.WriteAPIData(w, stats, http.StatusOK)
}

func workoutID(w http.ResponseWriter, r *http.Request) (int, bool) {
	idStr := mux.Vars(r)["id"]
	if idStr == "" {
		pkg.WriteAPIError(w, "workout id is empty", http.StatusBadRequest)
		return 0, false
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		pkg.WriteAPIError(w, "workout id is invalid", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
