// Package e2e provides end-to-end tests for the ProductService application.
// The suite runs the real application handler in an `httptest.Server` on top of the
// in-memory catalog. It uses `testify/suite` for structure and lifecycle management
// (`SetupSuite`, `TearDownSuite`, `SetupTest`).
//
// Each test gets a fresh server and a freshly seeded store, so ids always start at 1.
// Test coverage includes:
//   - Happy path list, get, create, rename and delete.
//   - Identifier uniqueness across deletions.
//   - Input validation: missing body, missing name (400) and invalid name (422).
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/abgdnv/productsapi/internal/config"
	"github.com/abgdnv/productsapi/internal/product/app"
	"github.com/abgdnv/productsapi/internal/product/service"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// skipE2ETests is the environment variable that can be set to skip E2E tests.
const skipE2ETests = "PRODUCT_SVC_SKIP_E2E_TESTS"

// productURL is the base URL for the ProductService API.
const productURL = "/api/v1/products"

// ProductServiceE2ESuite is a test suite for end-to-end tests of the ProductService.
type ProductServiceE2ESuite struct {
	suite.Suite                  // Embedding testify's suite for structured testing
	server      *httptest.Server // HTTP server for the ProductService application
	httpClient  *http.Client     // HTTP client for making requests to the server
	logger      *slog.Logger     // Logger for the test suite
	ctx         context.Context  // Context for the test suite
}

// testConfig creates a configuration for the ProductService application (HTTPServer settings and seed).
func testConfig() *config.Config {
	var cfg config.Config

	cfg.HTTPServer.Port = 0 // httptest.Server will assign a random port
	cfg.HTTPServer.MaxHeaderBytes = 1 << 20
	cfg.HTTPServer.Timeout.Read = 10 * time.Second
	cfg.HTTPServer.Timeout.Write = 10 * time.Second
	cfg.HTTPServer.Timeout.Idle = 60 * time.Second
	cfg.HTTPServer.Timeout.ReadHeader = 5 * time.Second

	cfg.Seed = []string{"Skello", "Socialive.tv", "Zeta"}

	return &cfg
}

// SetupSuite initializes the suite-wide context and logger.
func (s *ProductServiceE2ESuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// SetupTest starts a new server over a freshly seeded catalog.
func (s *ProductServiceE2ESuite) SetupTest() {
	s.closeServer()
	deps, err := app.SetupDependencies(s.ctx, testConfig(), nil, s.logger)
	require.NoError(s.T(), err, "Failed to setup application for E2E")

	s.server = httptest.NewServer(app.SetupHttpHandler(deps))
	s.httpClient = s.server.Client()
}

// TearDownSuite cleans up resources after all tests in the suite have run.
func (s *ProductServiceE2ESuite) TearDownSuite() {
	s.closeServer()
}

func (s *ProductServiceE2ESuite) closeServer() {
	if s.server != nil {
		s.server.Close()
		s.server = nil
	}
}

func TestProductServiceE2E(t *testing.T) {
	// Skip E2E tests if the environment variable is set
	if os.Getenv(skipE2ETests) == "1" {
		t.Skip("Skipping E2E tests based on " + skipE2ETests + " env var")
	}
	suite.Run(t, new(ProductServiceE2ESuite))
}

// --------------------------------------------------------------------------
// ---------- Payload structures and Helper methods for E2E tests -----------
// --------------------------------------------------------------------------

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *ProductServiceE2ESuite) productPath(id int64) string {
	return s.server.URL + productURL + "/" + strconv.FormatInt(id, 10)
}

// findByID fetches a product by its ID. Returns the ProductDto and the HTTP status code.
func (s *ProductServiceE2ESuite) findByID(id int64) (service.ProductDto, int) {
	s.T().Helper()
	body, statusCode := s.doRequest(http.MethodGet, s.productPath(id), nil)
	var product service.ProductDto
	if statusCode == http.StatusOK {
		require.NoError(s.T(), json.Unmarshal(body, &product), "Failed to decode product response")
	}
	return product, statusCode
}

// findAll fetches all products. Returns the list and the HTTP status code.
func (s *ProductServiceE2ESuite) findAll() ([]service.ProductDto, int) {
	s.T().Helper()
	body, statusCode := s.doRequest(http.MethodGet, s.server.URL+productURL, nil)
	var products []service.ProductDto
	if statusCode == http.StatusOK {
		require.NoError(s.T(), json.Unmarshal(body, &products), "Failed to decode product list response")
	}
	return products, statusCode
}

// create posts a raw JSON body. Returns the response body and the HTTP status code.
func (s *ProductServiceE2ESuite) create(rawBody string) ([]byte, int) {
	s.T().Helper()
	return s.doRequest(http.MethodPost, s.server.URL+productURL, []byte(rawBody))
}

// rename patches a product with a raw JSON body. Returns the response body and the HTTP status code.
func (s *ProductServiceE2ESuite) rename(id int64, rawBody string) ([]byte, int) {
	s.T().Helper()
	return s.doRequest(http.MethodPatch, s.productPath(id), []byte(rawBody))
}

// deleteByID deletes a product. Returns the HTTP status code.
func (s *ProductServiceE2ESuite) deleteByID(id int64) int {
	s.T().Helper()
	_, statusCode := s.doRequest(http.MethodDelete, s.productPath(id), nil)
	return statusCode
}

func ids(products []service.ProductDto) []int64 {
	out := make([]int64, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

// doRequest makes an HTTP request to the product service.
// Returns the response body as a byte slice and the HTTP status code.
func (s *ProductServiceE2ESuite) doRequest(method, url string, payload []byte) ([]byte, int) {
	s.T().Helper()
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(s.ctx, method, url, body)
	require.NoError(s.T(), err, "Failed to create HTTP request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err, "HTTP request failed")
	defer func() {
		err := resp.Body.Close()
		require.NoError(s.T(), err, "Failed to close response body")
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err, "Failed to read response body")

	return bodyBytes, resp.StatusCode
}

// --------------------------------------------------------------
// ---------------------- E2E test methods ----------------------
// --------------------------------------------------------------

func (s *ProductServiceE2ESuite) TestFindAll_Seeded_E2E() {
	// when
	products, statusCode := s.findAll()

	// then
	s.Require().Equal(http.StatusOK, statusCode)
	s.Equal([]service.ProductDto{
		{ID: 1, Name: "Skello"},
		{ID: 2, Name: "Socialive.tv"},
		{ID: 3, Name: "Zeta"},
	}, products)
}

func (s *ProductServiceE2ESuite) TestDeleteThenCreate_DoesNotReuseIDs_E2E() {
	// when
	deleteCode := s.deleteByID(2)
	products, listCode := s.findAll()
	body, createCode := s.create(`{"name":"Z"}`)
	_, getCode := s.findByID(2)

	// then
	s.Equal(http.StatusNoContent, deleteCode)
	s.Equal(http.StatusOK, listCode)
	s.Equal([]int64{1, 3}, ids(products))

	s.Require().Equal(http.StatusCreated, createCode)
	var created service.ProductDto
	s.Require().NoError(json.Unmarshal(body, &created))
	s.Equal(service.ProductDto{ID: 4, Name: "Z"}, created)

	s.Equal(http.StatusNotFound, getCode)
}

func (s *ProductServiceE2ESuite) TestDelete_Twice_E2E() {
	s.Equal(http.StatusNoContent, s.deleteByID(1))
	s.Equal(http.StatusNotFound, s.deleteByID(1))
}

func (s *ProductServiceE2ESuite) TestRename_E2E() {
	// when
	_, renameCode := s.rename(1, `{"name":"NewName"}`)
	product, getCode := s.findByID(1)
	products, _ := s.findAll()

	// then
	s.Equal(http.StatusNoContent, renameCode)
	s.Equal(http.StatusOK, getCode)
	s.Equal(service.ProductDto{ID: 1, Name: "NewName"}, product)
	s.Equal([]int64{1, 2, 3}, ids(products), "rename keeps the order")
}

func (s *ProductServiceE2ESuite) TestValidation_E2E() {
	testCases := []struct {
		name          string
		method        string
		id            int64
		body          string
		expectedCode  int
		expectedError string
	}{
		{name: "create - no body", method: http.MethodPost, expectedCode: http.StatusBadRequest, expectedError: "Invalid request body"},
		{name: "create - missing name", method: http.MethodPost, body: `{"title":"x"}`, expectedCode: http.StatusBadRequest, expectedError: "Missing field: name"},
		{name: "create - empty name", method: http.MethodPost, body: `{"name":""}`, expectedCode: http.StatusUnprocessableEntity, expectedError: "Invalid format: name"},
		{name: "create - numeric name", method: http.MethodPost, body: `{"name":123}`, expectedCode: http.StatusUnprocessableEntity, expectedError: "Invalid format: name"},
		{name: "create - null name", method: http.MethodPost, body: `{"name":null}`, expectedCode: http.StatusUnprocessableEntity, expectedError: "Invalid format: name"},
		{name: "create - capitalized key", method: http.MethodPost, body: `{"Name":"x"}`, expectedCode: http.StatusBadRequest, expectedError: "Missing field: name"},
		{name: "create - upper case key", method: http.MethodPost, body: `{"NAME":5}`, expectedCode: http.StatusBadRequest, expectedError: "Missing field: name"},
		{name: "create - trailing garbage", method: http.MethodPost, body: `{"name":"a"} garbage`, expectedCode: http.StatusBadRequest, expectedError: "Invalid request body"},
		{name: "create - two objects", method: http.MethodPost, body: `{"name":"a"}{"name":"b"}`, expectedCode: http.StatusBadRequest, expectedError: "Invalid request body"},
		{name: "rename - missing name", method: http.MethodPatch, id: 1, body: `{}`, expectedCode: http.StatusBadRequest, expectedError: "Missing field: name"},
		{name: "rename - capitalized key", method: http.MethodPatch, id: 1, body: `{"Name":"x"}`, expectedCode: http.StatusBadRequest, expectedError: "Missing field: name"},
		{name: "rename - trailing garbage", method: http.MethodPatch, id: 1, body: `{"name":"a"} garbage`, expectedCode: http.StatusBadRequest, expectedError: "Invalid request body"},
		{name: "rename - invalid name", method: http.MethodPatch, id: 1, body: `{"name":["a"]}`, expectedCode: http.StatusUnprocessableEntity, expectedError: "Invalid format: name"},
		{name: "rename - invalid name before existence", method: http.MethodPatch, id: 99, body: `{"name":""}`, expectedCode: http.StatusUnprocessableEntity, expectedError: "Invalid format: name"},
		{name: "rename - not found", method: http.MethodPatch, id: 99, body: `{"name":"X"}`, expectedCode: http.StatusNotFound, expectedError: "Product with ID 99 not found"},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.SetupTest()
			// given
			url := s.server.URL + productURL
			if tc.id != 0 {
				url = s.productPath(tc.id)
			}
			var payload []byte
			if tc.body != "" {
				payload = []byte(tc.body)
			}

			// when
			body, statusCode := s.doRequest(tc.method, url, payload)

			// then
			s.Require().Equal(tc.expectedCode, statusCode)
			var errResp errorResponse
			s.Require().NoError(json.Unmarshal(body, &errResp))
			s.Equal(tc.expectedError, errResp.Error)

			products, _ := s.findAll()
			s.Equal([]int64{1, 2, 3}, ids(products), "failed requests leave the catalog unchanged")
		})
	}
}

func (s *ProductServiceE2ESuite) TestHomeAndHealth_E2E() {
	body, statusCode := s.doRequest(http.MethodGet, s.server.URL+"/", nil)
	s.Equal(http.StatusOK, statusCode)
	s.Equal("Hello World! this is a test", string(body))

	_, statusCode = s.doRequest(http.MethodGet, s.server.URL+"/healthz", nil)
	s.Equal(http.StatusOK, statusCode)
}
