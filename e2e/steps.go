// Package e2e drives a running ascend server through its HTTP API.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cucumber/godog"
	"github.com/golang-jwt/jwt/v5"

	"ascend/e2e/steps/commission"
	"ascend/e2e/steps/network"
)

// TestContext holds the HTTP client and what a scenario has learned so far:
// participant ids by alias, plan ids by name and the last response.
type TestContext struct {
	baseURL    string
	adminToken string
	signingKey []byte
	client     *http.Client

	participants map[string]string
	plans        map[string]string

	lastStatus int
	lastBody   []byte
}

// NewTestContext reads ASCEND_BASE_URL, ADMIN_API_TOKEN and JWT_SIGNING_KEY.
func NewTestContext() *TestContext {
	baseURL := os.Getenv("ASCEND_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &TestContext{
		baseURL:      baseURL,
		adminToken:   os.Getenv("ADMIN_API_TOKEN"),
		signingKey:   []byte(os.Getenv("JWT_SIGNING_KEY")),
		client:       &http.Client{Timeout: 10 * time.Second},
		participants: map[string]string{},
		plans:        map[string]string{},
	}
}

// Reset clears scenario state.
func (tc *TestContext) Reset() {
	tc.participants = map[string]string{}
	tc.plans = map[string]string{}
	tc.lastStatus = 0
	tc.lastBody = nil
}

// AdminPOST sends body to an operator route.
func (tc *TestContext) AdminPOST(path string, body any) error {
	return tc.do(http.MethodPost, "/admin"+path, body, map[string]string{"X-Admin-Token": tc.adminToken})
}

// POST sends body with no credentials.
func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body, nil)
}

// POSTAs sends body with a bearer token for the participant alias.
func (tc *TestContext) POSTAs(alias, path string, body any) error {
	headers, err := tc.bearer(alias)
	if err != nil {
		return err
	}
	return tc.do(http.MethodPost, path, body, headers)
}

// GETAs reads path with a bearer token for the participant alias.
func (tc *TestContext) GETAs(alias, path string) error {
	headers, err := tc.bearer(alias)
	if err != nil {
		return err
	}
	return tc.do(http.MethodGet, path, nil, headers)
}

func (tc *TestContext) StatusCode() int { return tc.lastStatus }

// DecodeResponse unmarshals the last response body into dst.
func (tc *TestContext) DecodeResponse(dst any) error {
	if err := json.Unmarshal(tc.lastBody, dst); err != nil {
		return fmt.Errorf("decode response %q: %w", string(tc.lastBody), err)
	}
	return nil
}

func (tc *TestContext) Participant(alias string) (string, error) {
	id, ok := tc.participants[alias]
	if !ok {
		return "", fmt.Errorf("participant %q has not registered", alias)
	}
	return id, nil
}

func (tc *TestContext) SetParticipant(alias, id string) { tc.participants[alias] = id }

func (tc *TestContext) Plan(name string) (string, error) {
	id, ok := tc.plans[name]
	if !ok {
		return "", fmt.Errorf("plan %q has not been published", name)
	}
	return id, nil
}

func (tc *TestContext) SetPlan(name, id string) { tc.plans[name] = id }

func (tc *TestContext) bearer(alias string) (map[string]string, error) {
	id, err := tc.Participant(alias)
	if err != nil {
		return nil, err
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":            id,
		"participant_id": id,
		"iss":            os.Getenv("JWT_ISSUER"),
		"aud":            os.Getenv("JWT_AUDIENCE"),
		"exp":            time.Now().Add(5 * time.Minute).Unix(),
	})
	signed, err := token.SignedString(tc.signingKey)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return map[string]string{"Authorization": "Bearer " + signed}, nil
}

func (tc *TestContext) do(method, path string, body any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, tc.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

// RegisterSteps registers all step definitions from modular packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	network.RegisterSteps(ctx, tc)
	commission.RegisterSteps(ctx, tc)
}
