// Package httpapi is the HTTP front end over internal/search.FindOrchestrator,
// grounded on cmd/searcher/search/search.go's Service/ServeHTTP: form
// decoding via gorilla/schema, a deadline query parameter threaded into the
// request context, and an isBadRequest/isTemporary style status mapping.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/schema"
	"github.com/inconshreveable/log15"
	ot "github.com/opentracing/opentracing-go"
	otext "github.com/opentracing/opentracing-go/ext"
	otlog "github.com/opentracing/opentracing-go/log"

	"github.com/sadikovi/searcher/internal/search"
	"github.com/sadikovi/searcher/internal/searchmetrics"
)

var decoder = schema.NewDecoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
}

// searchForm mirrors search.QueryParams plus an optional deadline, the
// shape gorilla/schema decodes POST form values into.
type searchForm struct {
	Dir      string `schema:"dir"`
	Pattern  string `schema:"pattern"`
	UseRegex bool   `schema:"regex"`
	UseCache bool   `schema:"cache"`
	Deadline string `schema:"deadline"`
}

// Service is the search HTTP API. It is served through the mux NewMux
// returns; Service itself does not implement http.Handler.
type Service struct {
	Orchestrator *search.FindOrchestrator
	Log          log15.Logger
}

// NewMux returns an http.ServeMux wired with /ping and /search.
func (s *Service) NewMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", s.handlePing)
	mux.HandleFunc("/search", s.handleSearch)
	return mux
}

func (s *Service) handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Service) handleSearch(w http.ResponseWriter, r *http.Request) {
	searchmetrics.Running.Inc()
	defer searchmetrics.Running.Dec()
	start := time.Now()

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.writeStatus(w, http.StatusBadRequest, "failed to parse form: "+err.Error())
		return
	}

	var form searchForm
	if err := decoder.Decode(&form, r.Form); err != nil {
		s.writeStatus(w, http.StatusBadRequest, "failed to decode form: "+err.Error())
		return
	}

	span, ctx := ot.StartSpanFromContext(r.Context(), "Search")
	otext.Component.Set(span, "httpapi")
	span.SetTag("dir", form.Dir)
	span.SetTag("pattern", form.Pattern)
	span.SetTag("regex", form.UseRegex)
	span.SetTag("cache", form.UseCache)
	defer span.Finish()

	if form.Deadline != "" {
		deadline, err := time.Parse(time.RFC3339, form.Deadline)
		if err != nil {
			s.writeStatus(w, http.StatusBadRequest, "invalid deadline: "+err.Error())
			return
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}

	report, err := s.Orchestrator.Find(ctx, search.QueryParams{
		Dir:      form.Dir,
		Pattern:  form.Pattern,
		UseRegex: form.UseRegex,
		UseCache: form.UseCache,
	})

	searchmetrics.RequestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		code := http.StatusInternalServerError
		switch {
		case search.IsBadRequest(err):
			code = http.StatusBadRequest
		case ctx.Err() == context.DeadlineExceeded:
			code = http.StatusServiceUnavailable
		default:
			if s.Log != nil {
				s.Log.Error("searcher: internal error serving search request", "err", err)
			}
		}
		otext.Error.Set(span, true)
		span.SetTag("err", err.Error())
		searchmetrics.RequestTotal.WithLabelValues(statusLabel(code)).Inc()
		s.writeStatus(w, code, err.Error())
		return
	}

	if report.UsedCache {
		searchmetrics.CacheHits.Inc()
	}
	searchmetrics.FilesScanned.Observe(float64(report.FilesWalked))
	span.LogFields(otlog.Int("files.len", len(report.Files)), otlog.Int("content.len", len(report.Content)))
	span.SetTag("usedCache", report.UsedCache)
	searchmetrics.RequestTotal.WithLabelValues(statusLabel(http.StatusOK)).Inc()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(report)
}

func (s *Service) writeStatus(w http.ResponseWriter, code int, msg string) {
	http.Error(w, msg, code)
}

func statusLabel(code int) string {
	switch code {
	case http.StatusOK:
		return "200"
	case http.StatusBadRequest:
		return "400"
	case http.StatusServiceUnavailable:
		return "503"
	default:
		return "500"
	}
}
