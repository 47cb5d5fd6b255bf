package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/suitability-cli/internal/catalog"
	"github.com/sells-group/suitability-cli/internal/model"
	"github.com/sells-group/suitability-cli/internal/store"
	"github.com/sells-group/suitability-cli/internal/suitability"
)

type recommendRequest struct {
	FarmID string            `json:"farm_id"`
	Farm   model.FarmProfile `json:"farm"`
	Detail bool              `json:"detail"`
	Save   bool              `json:"save"`
	Top    int               `json:"top"`
}

type recommendResponse struct {
	RunID           string                    `json:"run_id,omitempty"`
	FarmID          string                    `json:"farm_id,omitempty"`
	ConfigHash      string                    `json:"config_hash"`
	Recommendations []model.Recommendation    `json:"recommendations"`
	Results         []model.SuitabilityResult `json:"results,omitempty"`
}

type batchRequest struct {
	Farms  []model.Farm `json:"farms"`
	Detail bool         `json:"detail"`
	Top    int          `json:"top"`
}

type batchResponse struct {
	ConfigHash string              `json:"config_hash"`
	Farms      []recommendResponse `json:"farms"`
}

type speciesSummary struct {
	SpeciesID         string `json:"species_id"`
	SpeciesName       string `json:"species_name"`
	SpeciesCommonName string `json:"species_common_name"`
	Rules             int    `json:"rules"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"species": len(s.rec.Species()),
		"store":   s.store != nil,
	})
}

// recommend scores one farm.
// POST /v1/recommendations
func (s *Server) recommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Farm) == 0 {
		writeError(w, http.StatusBadRequest, "farm is required")
		return
	}
	if req.Save && s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is not configured")
		return
	}

	farm := catalog.NormalizeProfile(req.Farm)
	report := s.rec.Recommend(farm)
	resp := s.buildResponse(req.FarmID, report, req.Detail, topParam(r, req.Top))

	if req.Save {
		run := &model.Run{
			FarmID:          req.FarmID,
			ConfigHash:      s.rec.ConfigHash(),
			Farm:            farm,
			Recommendations: report.Recommendations,
		}
		if err := s.store.SaveRun(r.Context(), run); err != nil {
			zap.L().Error("api: save run failed", zap.String("farm_id", req.FarmID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to save run")
			return
		}
		resp.RunID = run.ID
	}

	writeJSON(w, http.StatusOK, resp)
}

// recommendBatch scores several farms concurrently.
// POST /v1/recommendations/batch
func (s *Server) recommendBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Farms) == 0 {
		writeError(w, http.StatusBadRequest, "farms is required")
		return
	}
	if len(req.Farms) > maxBatchFarms {
		writeError(w, http.StatusBadRequest, "too many farms in one batch")
		return
	}

	farms := make([]model.Farm, len(req.Farms))
	for i, f := range req.Farms {
		farms[i] = model.Farm{ID: f.ID, Profile: catalog.NormalizeProfile(f.Profile)}
	}

	reports, err := s.rec.RecommendBatch(r.Context(), farms)
	if err != nil {
		zap.L().Warn("api: batch aborted", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "batch aborted")
		return
	}

	top := topParam(r, req.Top)
	resp := batchResponse{ConfigHash: s.rec.ConfigHash(), Farms: make([]recommendResponse, len(reports))}
	for i, rep := range reports {
		resp.Farms[i] = s.buildResponse(rep.FarmID, rep, req.Detail, top)
	}
	writeJSON(w, http.StatusOK, resp)
}

// topParam prefers the ?top= query parameter over the body field.
func topParam(r *http.Request, fallback int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get("top")); err == nil && n > 0 {
		return n
	}
	return fallback
}

func (s *Server) buildResponse(farmID string, report suitability.Report, detail bool, top int) recommendResponse {
	resp := recommendResponse{
		FarmID:          farmID,
		ConfigHash:      s.rec.ConfigHash(),
		Recommendations: report.Recommendations,
	}
	if top > 0 && top < len(resp.Recommendations) {
		resp.Recommendations = resp.Recommendations[:top]
	}
	if detail {
		resp.Results = report.Results
	}
	return resp
}

// listSpecies returns the catalog with rule counts.
// GET /v1/species
func (s *Server) listSpecies(w http.ResponseWriter, r *http.Request) {
	species := s.rec.Species()
	out := make([]speciesSummary, 0, len(species))
	for _, sp := range species {
		rules, _ := s.rec.Rules(sp.ID)
		out = append(out, speciesSummary{
			SpeciesID:         sp.ID,
			SpeciesName:       sp.Name,
			SpeciesCommonName: sp.CommonName,
			Rules:             len(rules),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// speciesRules returns the resolved rules of one species.
// GET /v1/species/{id}/rules
func (s *Server) speciesRules(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sp, ok := s.rec.SpeciesByID(id)
	if !ok {
		writeError(w, http.StatusNotFound, "species not found")
		return
	}
	rules, _ := s.rec.Rules(id)
	if rules == nil {
		rules = []suitability.Rule{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"species_id":   sp.ID,
		"species_name": sp.Name,
		"rules":        rules,
	})
}

// listRuns returns saved runs, newest first.
// GET /v1/runs?farm_id=&limit=&offset=
func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is not configured")
		return
	}
	q := r.URL.Query()
	filter := store.RunFilter{FarmID: q.Get("farm_id")}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// getRun returns one saved run.
// GET /v1/runs/{id}
func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is not configured")
		return
	}
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		zap.L().Error("api: get run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}
