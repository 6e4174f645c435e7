package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/tensorplex-labs/nutricluster/internal/config"
	"github.com/tensorplex-labs/nutricluster/internal/dataset"
	"github.com/tensorplex-labs/nutricluster/internal/filter"
	"github.com/tensorplex-labs/nutricluster/internal/recommend"
)

// createResponse creates a StdResponse with the given body and error
func createResponse[T any](body T, err error) StdResponse[T] {
	if err != nil {
		errMsg := err.Error()
		return StdResponse[T]{
			Body:  body,
			Error: &errMsg,
		}
	}
	return StdResponse[T]{
		Body:  body,
		Error: nil,
	}
}

// statusCode maps pipeline errors onto HTTP status codes.
func statusCode(err error) int {
	var e *fiber.Error
	switch {
	case errors.As(err, &e):
		return e.Code
	case errors.Is(err, recommend.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, dataset.ErrSchema), errors.Is(err, dataset.ErrValidation):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// paramsFromQuery reads AnalyzeParams from the query string of an upload.
// Weights use the NUTRI_WEIGHTS syntax and every filter parameter is
// column:min:max. Filters may repeat, also on the same column; a row is kept
// only when it satisfies all of them, so repeated ranges on one column
// intersect.
func paramsFromQuery(c *fiber.Ctx) (AnalyzeParams, error) {
	p := AnalyzeParams{FeatureSpace: c.Query("feature_space")}

	ints := []struct {
		name string
		dst  *int
	}{{"k", &p.K}, {"top", &p.Top}, {"bins", &p.Bins}}
	for _, q := range ints {
		s := c.Query(q.name)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return p, dataset.ValidationErrorf("invalid %s %q, expected an integer", q.name, s)
		}
		*q.dst = n
	}

	if s := c.Query("seed"); s != "" {
		seed, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return p, dataset.ValidationErrorf("invalid seed %q", s)
		}
		p.Seed = &seed
	}

	if s := c.Query("weights"); s != "" {
		weights, err := config.ParseWeights(s)
		if err != nil {
			return p, dataset.ValidationErrorf("%v", err)
		}
		p.Weights = weights
	}

	for _, raw := range c.Context().QueryArgs().PeekMulti("filter") {
		r, err := filter.ParseRange(string(raw))
		if err != nil {
			return p, err
		}
		p.Filters = append(p.Filters, r)
	}
	return p, nil
}
