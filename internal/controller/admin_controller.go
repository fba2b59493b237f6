// internal/controller/admin_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/susanpikesquare/keepswell-sub001/internal/dispatch"
	"github.com/susanpikesquare/keepswell-sub001/internal/repository"
	"github.com/susanpikesquare/keepswell-sub001/internal/schedule"
)

// AdminController exposes the operator surface: recent firings, their
// delivery records, per-journal response stats and the manual
// re-trigger recovery path.
type AdminController struct {
	Journals   repository.JournalRepositoryInterface
	Firings    repository.FiringRepositoryInterface
	Deliveries repository.DeliveryRepositoryInterface
	Usage      repository.UsageLogRepositoryInterface
	Dispatcher *dispatch.Dispatcher
}

func (c *AdminController) ListFirings(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	firings, err := c.Firings.ListRecent(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"data": firings,
	})
}

func (c *AdminController) ListFiringDeliveries(w http.ResponseWriter, r *http.Request) {
	firingID := chi.URLParam(r, "id")

	firing, err := c.Firings.GetByID(firingID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if firing == nil {
		http.Error(w, "firing not found", http.StatusNotFound)
		return
	}

	records, err := c.Deliveries.ListByFiring(firingID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	stats, err := c.Usage.JournalStats(firing.JournalID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"firing":     firing,
		"deliveries": records,
		"stats":      stats,
	})
}

// TriggerJournal fires a journal outside its schedule. The duplicate
// guard still applies unless ?force=true.
func (c *AdminController) TriggerJournal(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, _ := strconv.Atoi(idStr)

	journal, err := c.Journals.GetByID(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	if r.URL.Query().Get("force") != "true" {
		fired, err := c.Firings.HasFiringSince(id, time.Now().Add(-schedule.DuplicateGuardWindow))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if fired {
			http.Error(w, "journal fired recently; use force=true to override", http.StatusConflict)
			return
		}
	}

	firing, err := c.Dispatcher.Dispatch(journal)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if firing == nil {
		http.Error(w, "no eligible participants", http.StatusUnprocessableEntity)
		return
	}

	json.NewEncoder(w).Encode(firing)
}
