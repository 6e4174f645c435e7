package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tensorplex-labs/nutricluster/internal/config"
	"github.com/tensorplex-labs/nutricluster/internal/filter"
	"github.com/tensorplex-labs/nutricluster/internal/recommend"
	"github.com/tensorplex-labs/nutricluster/internal/report"
)

const (
	HealthPath    = "/health"
	AnalyzePath   = "/api/v1/analyze"
	UploadPath    = "/api/v1/upload"
	RecommendPath = "/api/v1/recommend"
	BoundsPath    = "/api/v1/bounds"

	DefaultBins = 10
)

// Server serves the nutrition analysis API.
type Server struct {
	App      *fiber.App
	config   *config.ServerEnvConfig
	pipeline config.PipelineEnvConfig
}

// StdResponse represents the standardized response structure
type StdResponse[T any] struct {
	Body  T       `json:"body"`
	Error *string `json:"error,omitempty"`
}

// RouteHandler handles one decoded request body.
type RouteHandler[Req, Resp any] func(*fiber.Ctx, Req) (Resp, error)

// AnalyzeParams tune a pipeline run. Zero values fall back to the server's
// environment configuration.
type AnalyzeParams struct {
	K            int                `json:"k,omitempty"`
	Seed         *uint64            `json:"seed,omitempty"`
	FeatureSpace string             `json:"feature_space,omitempty"`
	Weights      map[string]float64 `json:"weights,omitempty"`
	Filters      []filter.Range     `json:"filters,omitempty"`
	Top          int                `json:"top,omitempty"`
	Bins         int                `json:"bins,omitempty"`
}

type AnalyzeRequest struct {
	Foods []map[string]any `json:"foods"`
	AnalyzeParams
}

type AnalyzeResponse struct {
	Rows              []map[string]any        `json:"rows"`
	Clusters          []report.ClusterSummary `json:"clusters"`
	Histogram         []report.Bin            `json:"histogram"`
	ExplainedVariance []float64               `json:"explained_variance"`
	Dropped           int                     `json:"dropped"`
	Filtered          int                     `json:"filtered"`
}

type RecommendRequest struct {
	AnalyzeRequest
	FoodName    string `json:"food_name"`
	Limit       int    `json:"limit,omitempty"`
	Metric      string `json:"metric,omitempty"`
	SameCluster bool   `json:"same_cluster,omitempty"`
}

type RecommendResponse struct {
	FoodName string            `json:"food_name"`
	Matches  []recommend.Match `json:"matches"`
}

type BoundsRequest struct {
	Foods   []map[string]any `json:"foods"`
	Columns []string         `json:"columns,omitempty"`
}

type BoundsResponse struct {
	Bounds []filter.Range `json:"bounds"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
