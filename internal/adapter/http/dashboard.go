package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/rainfall-ews/internal/dashboard"
	"github.com/couchcryptid/rainfall-ews/internal/domain"
)

// page is the data rendered by the dashboard template.
type page struct {
	State     string
	Station   string
	Threshold float64
	Inputs    dashboard.Inputs
	Notice    string
	Error     string
	Result    *dashboard.Result
}

func (s *Server) newPage(state dashboard.State, inputs dashboard.Inputs) page {
	p := page{
		State:     state.String(),
		Station:   s.predictor.Station(),
		Threshold: domain.DefaultThreshold,
		Inputs:    inputs,
	}
	if assets := s.predictor.Assets(); assets != nil {
		p.Threshold = assets.Threshold
	}
	return p
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	inputs := dashboard.DefaultInputs
	status := http.StatusOK
	var notice string

	if name := r.URL.Query().Get("scenario"); name != "" {
		generated, err := dashboard.Generate(dashboard.Scenario(name), s.rand)
		if err != nil {
			status = http.StatusBadRequest
			notice = err.Error()
		} else {
			inputs = generated
			ranges, _ := dashboard.Scenario(name).Ranges()
			notice = "Simulasi " + ranges.Label + " dimuat. Klik PREDIKSI & ANALISIS."
		}
	}

	p := s.newPage(dashboard.StateIdle, inputs)
	p.Notice = notice
	s.render(w, status, p)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	m := dashboard.NewMachine()
	_ = m.Fire(dashboard.EventAnalyzeRequested)

	inputs, err := parseForm(r)
	if err == nil {
		err = inputs.Validate()
	}
	if err != nil {
		s.metrics.PredictionErrors.Inc()
		_ = m.Fire(dashboard.EventFailed)
		p := s.newPage(m.State(), inputs)
		p.Error = err.Error()
		s.render(w, http.StatusBadRequest, p)
		return
	}

	analysis, err := s.predictor.Analyze(r.Context(), inputs.Observation())
	if err != nil {
		_ = m.Fire(dashboard.EventFailed)
		p := s.newPage(m.State(), inputs)
		p.Error = err.Error()
		s.render(w, http.StatusUnprocessableEntity, p)
		return
	}

	_ = m.Fire(dashboard.EventSucceeded)
	result := dashboard.NewResult(analysis, s.predictor.Assets(), s.rand)
	p := s.newPage(m.State(), inputs)
	p.Result = &result
	s.render(w, http.StatusOK, p)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	inputs, err := parseForm(r)
	if err == nil {
		err = inputs.Validate()
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	obs := inputs.Observation()
	analysis, err := s.predictor.Evaluate(r.Context(), obs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	report := dashboard.NewReport(s.predictor.Station(), obs, analysis.Result, domain.Now())
	s.metrics.ReportsGenerated.Inc()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(report.Content))
}

func (s *Server) render(w http.ResponseWriter, status int, p page) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "dashboard.html", p); err != nil {
		s.logger.Error("render dashboard failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// parseForm reads rr, rh_avg and tavg. A decimal comma is accepted.
func parseForm(r *http.Request) (dashboard.Inputs, error) {
	if err := r.ParseForm(); err != nil {
		return dashboard.DefaultInputs, fmt.Errorf("%w: %w", domain.ErrInvalidObservation, err)
	}

	var (
		in   dashboard.Inputs
		errs []error
	)
	for _, field := range []struct {
		name string
		dst  *float64
	}{
		{"rr", &in.RR},
		{"rh_avg", &in.RHAvg},
		{"tavg", &in.TAvg},
	} {
		raw := strings.TrimSpace(r.PostForm.Get(field.name))
		if raw == "" {
			errs = append(errs, fmt.Errorf("%s is required", field.name))
			continue
		}
		v, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s is not a number: %q", field.name, raw))
			continue
		}
		*field.dst = v
	}
	if len(errs) > 0 {
		return in, fmt.Errorf("%w: %w", domain.ErrInvalidObservation, errors.Join(errs...))
	}
	return in, nil
}
