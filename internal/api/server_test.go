package api

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/tensorplex-labs/nutricluster/internal/config"
	"github.com/tensorplex-labs/nutricluster/internal/filter"
)

const foodsCSV = `food_name,category,calories,protein,carbs,fat,iron,vitamin_c
lentils,legume,100,10,5,2,1,20
spinach,vegetable,110,12,6,2.5,1.2,22
broccoli,vegetable,95,11,4,1.8,0.9,25
cake,dessert,420,4,55,20,0.3,0
donut,dessert,450,5,50,25,0.4,1
cookie,dessert,480,3,60,22,0.2,0
`

func foods() []map[string]any {
	return []map[string]any{
		{"food_name": "lentils", "category": "legume", "calories": 100, "protein": 10, "carbs": 5, "fat": 2, "iron": 1, "vitamin_c": 20},
		{"food_name": "spinach", "category": "vegetable", "calories": 110, "protein": 12, "carbs": 6, "fat": 2.5, "iron": 1.2, "vitamin_c": 22},
		{"food_name": "broccoli", "category": "vegetable", "calories": 95, "protein": 11, "carbs": 4, "fat": 1.8, "iron": 0.9, "vitamin_c": 25},
		{"food_name": "cake", "category": "dessert", "calories": 420, "protein": 4, "carbs": 55, "fat": 20, "iron": 0.3, "vitamin_c": 0},
		{"food_name": "donut", "category": "dessert", "calories": 450, "protein": 5, "carbs": 50, "fat": 25, "iron": 0.4, "vitamin_c": 1},
		{"food_name": "cookie", "category": "dessert", "calories": 480, "protein": 3, "carbs": 60, "fat": 22, "iron": 0.2, "vitamin_c": 0},
	}
}

type ServerTestSuite struct {
	suite.Suite
	server *Server
}

func (s *ServerTestSuite) SetupTest() {
	server, err := NewServer(
		&config.ServerEnvConfig{Host: "127.0.0.1", Port: 0, BodySizeLimit: 1 << 20, ReadTimeout: time.Second},
		config.PipelineEnvConfig{K: 2, Seed: 42, MaxIter: 300, FeatureSpace: "scaled", FillMissing: true},
	)
	s.Require().NoError(err)
	s.server = server
}

func (s *ServerTestSuite) do(req *http.Request) (int, []byte) {
	resp, err := s.server.App.Test(req, -1)
	s.Require().NoError(err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp.StatusCode, body
}

func (s *ServerTestSuite) postJSON(path string, payload any) (int, []byte) {
	data, err := sonic.Marshal(payload)
	s.Require().NoError(err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return s.do(req)
}

func decode[T any](s *ServerTestSuite, body []byte) StdResponse[T] {
	var out StdResponse[T]
	s.Require().NoError(sonic.Unmarshal(body, &out), string(body))
	return out
}

func (s *ServerTestSuite) TestHealth() {
	code, body := s.do(httptest.NewRequest(http.MethodGet, HealthPath, nil))
	s.Equal(fiber.StatusOK, code)
	s.Equal("ok", decode[HealthResponse](s, body).Body.Status)
}

func (s *ServerTestSuite) TestAnalyze() {
	code, body := s.postJSON(AnalyzePath, AnalyzeRequest{Foods: foods(), AnalyzeParams: AnalyzeParams{Top: 3}})
	s.Require().Equal(fiber.StatusOK, code, string(body))

	resp := decode[AnalyzeResponse](s, body)
	s.Nil(resp.Error)
	s.Len(resp.Body.Rows, 3)
	s.Len(resp.Body.Clusters, 2)
	s.Len(resp.Body.Histogram, DefaultBins)
	s.Len(resp.Body.ExplainedVariance, 2)
	s.Equal(0, resp.Body.Dropped)

	total := 0
	for _, c := range resp.Body.Clusters {
		total += c.Size
	}
	s.Equal(6, total)

	first := resp.Body.Rows[0]
	s.Equal(100.0, first["nutri_score"])
	s.Contains(first, "cluster")
	s.Contains(first, "pc1")
}

func (s *ServerTestSuite) TestAnalyzeFilters() {
	req := AnalyzeRequest{Foods: foods(), AnalyzeParams: AnalyzeParams{
		Filters: []filter.Range{{Column: "calories", Min: 0, Max: 450}},
	}}
	code, body := s.postJSON(AnalyzePath, req)
	s.Require().Equal(fiber.StatusOK, code, string(body))

	resp := decode[AnalyzeResponse](s, body)
	s.Equal(1, resp.Body.Filtered)
	s.Len(resp.Body.Rows, 5)
}

func (s *ServerTestSuite) TestAnalyzeErrors() {
	code, body := s.postJSON(AnalyzePath, AnalyzeRequest{Foods: foods(), AnalyzeParams: AnalyzeParams{K: 9}})
	s.Equal(fiber.StatusBadRequest, code)
	resp := decode[map[string]any](s, body)
	s.Require().NotNil(resp.Error)
	s.Contains(*resp.Error, "validation")

	code, _ = s.postJSON(AnalyzePath, AnalyzeRequest{Foods: []map[string]any{{"food_name": "x"}}})
	s.Equal(fiber.StatusBadRequest, code)

	code, _ = s.postJSON(AnalyzePath, AnalyzeRequest{Foods: foods(), AnalyzeParams: AnalyzeParams{FeatureSpace: "log"}})
	s.Equal(fiber.StatusBadRequest, code)

	req := httptest.NewRequest(http.MethodPost, AnalyzePath, bytes.NewReader([]byte("{")))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	code, _ = s.do(req)
	s.Equal(fiber.StatusBadRequest, code)
}

func (s *ServerTestSuite) TestUploadCSV() {
	req := httptest.NewRequest(http.MethodPost, UploadPath+"?k=3&seed=7&top=2&filter=protein:4:20", bytes.NewReader([]byte(foodsCSV)))
	req.Header.Set(fiber.HeaderContentType, "text/csv")
	code, body := s.do(req)
	s.Require().Equal(fiber.StatusOK, code, string(body))

	resp := decode[AnalyzeResponse](s, body)
	s.Equal(1, resp.Body.Filtered)
	s.Len(resp.Body.Rows, 2)
	s.NotEmpty(resp.Body.Clusters)
	s.LessOrEqual(len(resp.Body.Clusters), 3)

	req = httptest.NewRequest(http.MethodPost, UploadPath+"?filter=protein:4", bytes.NewReader([]byte(foodsCSV)))
	code, _ = s.do(req)
	s.Equal(fiber.StatusBadRequest, code)
}

func (s *ServerTestSuite) TestUploadRejectsNonIntegerParams() {
	for _, query := range []string{"?k=two", "?top=3.5", "?bins=many"} {
		req := httptest.NewRequest(http.MethodPost, UploadPath+query, bytes.NewReader([]byte(foodsCSV)))
		req.Header.Set(fiber.HeaderContentType, "text/csv")
		code, body := s.do(req)
		s.Equal(fiber.StatusBadRequest, code, query)

		resp := decode[map[string]any](s, body)
		s.Require().NotNil(resp.Error, query)
		s.Contains(*resp.Error, "expected an integer", query)
	}
}

func (s *ServerTestSuite) TestUploadRepeatedFiltersIntersect() {
	req := httptest.NewRequest(http.MethodPost, UploadPath+"?filter=protein:4:20&filter=protein:0:10.5", bytes.NewReader([]byte(foodsCSV)))
	req.Header.Set(fiber.HeaderContentType, "text/csv")
	code, body := s.do(req)
	s.Require().Equal(fiber.StatusOK, code, string(body))

	resp := decode[AnalyzeResponse](s, body)
	s.Equal(3, resp.Body.Filtered)
	s.Len(resp.Body.Rows, 3)
}

func (s *ServerTestSuite) TestUploadZstd() {
	encoder, err := zstd.NewWriter(nil)
	s.Require().NoError(err)
	compressed := encoder.EncodeAll([]byte(foodsCSV), nil)
	s.Require().NoError(encoder.Close())

	req := httptest.NewRequest(http.MethodPost, UploadPath, bytes.NewReader(compressed))
	req.Header.Set(fiber.HeaderContentEncoding, "zstd")
	code, body := s.do(req)
	s.Require().Equal(fiber.StatusOK, code, string(body))
	s.Len(decode[AnalyzeResponse](s, body).Body.Rows, 6)
}

func (s *ServerTestSuite) TestRecommend() {
	req := RecommendRequest{
		AnalyzeRequest: AnalyzeRequest{Foods: foods()},
		FoodName:       "cake",
		Limit:          2,
		SameCluster:    true,
	}
	code, body := s.postJSON(RecommendPath, req)
	s.Require().Equal(fiber.StatusOK, code, string(body))

	resp := decode[RecommendResponse](s, body)
	s.Equal("cake", resp.Body.FoodName)
	s.Require().Len(resp.Body.Matches, 2)
	for _, m := range resp.Body.Matches {
		s.Equal("dessert", m.Category)
	}

	req.FoodName = "kale"
	code, _ = s.postJSON(RecommendPath, req)
	s.Equal(fiber.StatusNotFound, code)

	req.FoodName = ""
	code, _ = s.postJSON(RecommendPath, req)
	s.Equal(fiber.StatusBadRequest, code)
}

func (s *ServerTestSuite) TestBounds() {
	code, body := s.postJSON(BoundsPath, BoundsRequest{Foods: foods(), Columns: []string{"calories", "fat"}})
	s.Require().Equal(fiber.StatusOK, code, string(body))

	resp := decode[BoundsResponse](s, body)
	s.Equal([]filter.Range{
		{Column: "calories", Min: 0, Max: 480},
		{Column: "fat", Min: 0, Max: 25},
	}, resp.Body.Bounds)
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func TestNewServerRejectsBadDefaults(t *testing.T) {
	_, err := NewServer(&config.ServerEnvConfig{}, config.PipelineEnvConfig{FeatureSpace: "log"})
	if err == nil {
		t.Fatal("expected error for unknown feature space")
	}
	if _, err := NewServer(nil, config.PipelineEnvConfig{}); err == nil {
		t.Fatal("expected error for nil server config")
	}
}

func TestStartShutdownIsBounded(t *testing.T) {
	server, err := NewServer(
		&config.ServerEnvConfig{Host: "127.0.0.1", Port: 0, BodySizeLimit: 1 << 20, ReadTimeout: time.Minute, ShutdownTimeout: 200 * time.Millisecond},
		config.PipelineEnvConfig{K: 2, Seed: 42, MaxIter: 300, FeatureSpace: "scaled"},
	)
	require.NoError(t, err)

	listening := make(chan string, 1)
	server.App.Hooks().OnListen(func(data fiber.ListenData) error {
		listening <- net.JoinHostPort(data.Host, data.Port)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Start(ctx) }()

	var addr string
	select {
	case addr = <-listening:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start listening")
	}

	// An idle connection that never sends a request keeps the server busy.
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			require.ErrorIs(t, err, context.DeadlineExceeded)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not finish within the configured timeout")
	}
}
