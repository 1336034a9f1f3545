package schedules

import (
	"context"
	"errors"
	"net/http"

	"github.com/adityapw/fittrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type schedulesRepo interface {
	List(ctx context.Context) ([]ScheduleEntry, error)
	GetByDay(ctx context.Context, day string) (*ScheduleEntry, error)
}

type Handler struct {
	repo schedulesRepo
}

func NewHandler(repo schedulesRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	entries, err := handler.repo.List(r.Context())
	if err != nil {
		log.Errorf("list schedules error: %s", err)
		pkg.WriteAPIError(w, "failed to get schedules", http.StatusInternalServerError)
		return
	}

	pkg.WriteAPIData(w, entries, http.StatusOK)
}

func (handler *Handler) HandleGetByDay(w http.ResponseWriter, r *http.Request) {
	day := mux.Vars(r)["day"]
	if day == "" {
		pkg.WriteAPIError(w, "day is empty", http.StatusBadRequest)
		return
	}

	entry, err := handler.repo.GetByDay(r.Context(), day)
	if err != nil {
		if errors.Is(err, ErrScheduleNotFound) {
			pkg.WriteAPIError(w, "schedule not found", http.StatusNotFound)
			return
		}
		log.Errorf("get schedule for day [%s] error: %s", day, err)
		pkg.WriteAPIError(w, "failed to get schedule", http.StatusInternalServerError)
		return
	}

	pkg.WriteAPIData(w, entry, http.StatusOK)
}
