package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/couchcryptid/rainfall-ews/internal/dashboard"
	"github.com/couchcryptid/rainfall-ews/internal/domain"
	"github.com/couchcryptid/rainfall-ews/internal/model"
	"github.com/go-playground/validator/v10"
)

// predictRequest uses pointers so an omitted field is told apart from zero.
type predictRequest struct {
	RR    *float64 `json:"rr" validate:"required"`
	RHAvg *float64 `json:"rh_avg" validate:"required"`
	TAvg  *float64 `json:"tavg" validate:"required"`
}

var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return v
}

// inputs checks every field is present and returns the dashboard inputs.
func (req predictRequest) inputs() (dashboard.Inputs, error) {
	if err := requestValidator.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return dashboard.Inputs{}, fmt.Errorf("%w: %w", domain.ErrInvalidObservation, err)
		}
		missing := make([]string, len(fieldErrs))
		for i, fe := range fieldErrs {
			missing[i] = fe.Field()
		}
		return dashboard.Inputs{}, fmt.Errorf("%w: missing %s", domain.ErrInvalidObservation, strings.Join(missing, ", "))
	}
	return dashboard.Inputs{RR: *req.RR, RHAvg: *req.RHAvg, TAvg: *req.TAvg}, nil
}

type predictResponse struct {
	AlertID     string               `json:"alert_id"`
	Status      string               `json:"status"`
	Probability float64              `json:"probability"`
	Threshold   float64              `json:"threshold"`
	IsDanger    bool                 `json:"is_danger"`
	Observation domain.Observation   `json:"observation"`
	Features    domain.FeatureVector `json:"features"`
}

type modelResponse struct {
	Features    []string           `json:"features"`
	Threshold   float64            `json:"threshold"`
	Objective   string             `json:"objective,omitempty"`
	Trees       int                `json:"trees,omitempty"`
	Importances []model.Importance `json:"importances"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.metrics.PredictionErrors.Inc()
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("decode request: %v", err)})
		return
	}
	in, err := req.inputs()
	if err == nil {
		err = in.Validate()
	}
	if err != nil {
		s.metrics.PredictionErrors.Inc()
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	analysis, err := s.predictor.Analyze(r.Context(), in.Observation())
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, domain.ErrInvalidObservation) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, predictResponse{
		AlertID:     analysis.AlertID,
		Status:      analysis.Result.Status(),
		Probability: analysis.Result.Probability,
		Threshold:   analysis.Result.Threshold,
		IsDanger:    analysis.Result.IsDanger,
		Observation: analysis.Observation,
		Features:    analysis.Features,
	})
}

func (s *Server) handleModel(w http.ResponseWriter, _ *http.Request) {
	assets := s.predictor.Assets()
	if assets == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "model assets are not loaded"})
		return
	}

	resp := modelResponse{
		Features:    assets.Schema,
		Threshold:   assets.Threshold,
		Importances: assets.Importances,
	}
	if assets.Booster != nil {
		resp.Objective = assets.Booster.Objective()
		resp.Trees = assets.Booster.NumTrees()
	}
	writeJSON(w, http.StatusOK, resp)
}
