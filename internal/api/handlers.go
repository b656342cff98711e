package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"draft-strategy-lab/internal/datasource"
	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/graph"
	"draft-strategy-lab/internal/session"
	"draft-strategy-lab/internal/simulation"
	"draft-strategy-lab/internal/storage"
)

// StatusResponse is the /status payload.
type StatusResponse struct {
	Status    string               `json:"status"`
	SessionID string               `json:"session_id"`
	Uptime    string               `json:"uptime"`
	Teams     domain.TeamNames     `json:"teams"`
	Modes     []session.ModeStatus `json:"modes"`
	Source    string               `json:"data_source"`
}

// GraphResponse is the /api/graph/{mode} payload.
type GraphResponse struct {
	Snapshot    *domain.GraphSnapshot `json:"snapshot"`
	Conclusions graph.Conclusions     `json:"conclusions"`
}

// SamplerRequest is the /api/sampler body. Zero Trials and Seed use the sampler config.
type SamplerRequest struct {
	Toggles []string `json:"toggles"`
	Trials  int      `json:"trials,omitempty"`
	Seed    *int64   `json:"seed,omitempty"`
}

// SamplerResponse is the /api/sampler payload.
type SamplerResponse struct {
	RunID                string   `json:"run_id,omitempty"`
	ActiveToggles        []string `json:"active_toggles"`
	BaseProbability      float64  `json:"base_probability"`
	EffectiveProbability float64  `json:"effective_probability"`
	Trials               int      `json:"trials"`
	Wins                 int      `json:"wins"`
	WinRate              float64  `json:"win_rate"`
	MeanDuration         float64  `json:"mean_duration"`
	DurationStddev       float64  `json:"duration_stddev"`
	Volatility           string   `json:"volatility"`
	Label                string   `json:"label"`
}

// DenialLookup is the precomputed outcome of one denial.
type DenialLookup struct {
	Deny        string  `json:"deny"`
	SuccessRate float64 `json:"success_rate"`
	Label       string  `json:"label"`
}

// StrategyViewResponse is the /api/strategy-view payload.
type StrategyViewResponse struct {
	*datasource.StrategyView
	Filter    datasource.EdgeFilter `json:"filter"`
	MinWeight float64               `json:"min_weight"`
	Denial    *DenialLookup         `json:"denial,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	teams, err := s.session.Teams(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:    "running",
		SessionID: s.session.ID(),
		Uptime:    s.clock().Sub(s.started).Truncate(time.Second).String(),
		Teams:     teams,
		Modes:     s.session.Status(),
		Source:    s.view.Source,
	})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	mode, err := modeVar(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	snap, err := s.session.Snapshot(mode)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.session.Conclusions(mode)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, GraphResponse{Snapshot: snap, Conclusions: c})
}

func (s *Server) modeStatus(mode domain.GraphMode) session.ModeStatus {
	for _, st := range s.session.Status() {
		if st.Mode == mode {
			return st
		}
	}
	return session.ModeStatus{Mode: mode}
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	mode, err := modeVar(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.session.Start(mode); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, s.modeStatus(mode))
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	mode, err := modeVar(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.session.Stop(mode); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.modeStatus(mode))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	mode, err := modeVar(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.session.Reset(mode); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.modeStatus(mode))
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	mode, err := modeVar(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	snap, err := s.session.Step(r.Context(), mode)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGetTeams(w http.ResponseWriter, r *http.Request) {
	names, err := s.session.Teams(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handlePutTeams(w http.ResponseWriter, r *http.Request) {
	var in domain.TeamNames
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	names, err := s.session.SetTeams(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleToggles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sampler.Toggles())
}

func (s *Server) handleSampler(w http.ResponseWriter, r *http.Request) {
	var req SamplerRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	cfg := s.sampler.Config()
	trials := cfg.Trials
	if req.Trials != 0 {
		trials = req.Trials
	}
	if trials < 0 || trials > MaxTrials {
		s.fail(w, r, fmt.Errorf("%w: %d (max %d)", simulation.ErrInvalidTrials, trials, MaxTrials))
		return
	}
	seed := cfg.Seed
	if req.Seed != nil {
		seed = *req.Seed
	}

	res, err := s.sampler.RunTrials(r.Context(), req.Toggles, trials, seed)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	out := SamplerResponse{
		ActiveToggles:        res.ActiveToggles,
		BaseProbability:      res.BaseProbability,
		EffectiveProbability: res.EffectiveProbability,
		Trials:               res.Trials,
		Wins:                 res.Wins,
		WinRate:              res.WinRate,
		MeanDuration:         res.MeanDuration,
		DurationStddev:       res.DurationStddev,
		Volatility:           string(res.Volatility),
		Label:                res.Label,
	}
	if out.ActiveToggles == nil {
		out.ActiveToggles = []string{}
	}

	if s.runStore != nil {
		run := simulation.SamplerRun(res, seed, s.clock().UnixMilli())
		err := s.runStore.Insert(r.Context(), run)
		if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			s.fail(w, r, fmt.Errorf("persist sampler run: %w", err))
			return
		}
		out.RunID = run.RunID
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStrategyView(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter, err := datasource.ParseEdgeFilter(q.Get("filter"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	minWeight := 0.0
	if v := q.Get("min_weight"); v != "" {
		minWeight, err = strconv.ParseFloat(v, 64)
		if err != nil || minWeight < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid min_weight %q", v))
			return
		}
	}

	view := *s.view
	view.Edges = view.FilterEdges(filter, minWeight)
	if view.Edges == nil {
		view.Edges = []datasource.ViewEdge{}
	}
	out := StrategyViewResponse{StrategyView: &view, Filter: filter, MinWeight: minWeight}

	if deny, ok := q["deny"]; ok {
		rate, label, found := s.view.Lookup(deny[0])
		if !found {
			writeError(w, http.StatusNotFound, fmt.Sprintf("no precomputed result for denying %q", deny[0]))
			return
		}
		out.Denial = &DenialLookup{Deny: deny[0], SuccessRate: rate, Label: label}
	}
	writeJSON(w, http.StatusOK, out)
}
