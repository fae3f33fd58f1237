package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mkaplan/wayfare/backend/internal/domain"
)

// handleSearchExperiences handles GET /experiences.
//
// Filter query parameters: isAvailable, minPrice, maxPrice, minDuration,
// maxDuration, tags (comma-separated), locations (comma-separated), plus
// the usual page/limit pair.
func (s *Server) handleSearchExperiences(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		requestError(w, err.Error())
		return
	}
	params := pagination(r)

	exps, total, err := s.experiences.Search(r.Context(), filters, params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, listResponse[domain.Experience]{
		Data:       exps,
		Pagination: paginationMeta{Page: params.Page, Limit: params.Limit, Total: total},
	})
}

// handleGetExperience handles GET /experiences/{id}.
func (s *Server) handleGetExperience(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		requestError(w, err.Error())
		return
	}

	exp, err := s.experiences.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, exp)
}

// parseFilters builds a domain.Filters from the search query parameters.
// Range consistency (min ≤ max) is the service's job; this only rejects
// values that don't parse at all.
func parseFilters(r *http.Request) (domain.Filters, error) {
	q := r.URL.Query()
	var f domain.Filters

	if v := q.Get("isAvailable"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return domain.Filters{}, fmt.Errorf("isAvailable must be true or false")
		}
		f.IsAvailable = &b
	}

	var err error
	if f.MinPrice, err = floatParam(q.Get("minPrice"), "minPrice"); err != nil {
		return domain.Filters{}, err
	}
	if f.MaxPrice, err = floatParam(q.Get("maxPrice"), "maxPrice"); err != nil {
		return domain.Filters{}, err
	}
	if f.MinDuration, err = intParam(q.Get("minDuration"), "minDuration"); err != nil {
		return domain.Filters{}, err
	}
	if f.MaxDuration, err = intParam(q.Get("maxDuration"), "maxDuration"); err != nil {
		return domain.Filters{}, err
	}

	f.Tags = splitCSV(q.Get("tags"))
	f.Locations = splitCSV(q.Get("locations"))

	return f, nil
}

func floatParam(raw, name string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	return &v, nil
}

func intParam(raw, name string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", name)
	}
	return &v, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring
// empty entries.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
