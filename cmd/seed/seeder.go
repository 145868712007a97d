package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/utafrali/storefront/internal/service"
)

const (
	signinPath       = "/auth/signin"
	bulkCreatePath   = "/api/admin/products/creates"
	defaultBatchSize = 100
)

// apiClient is the part of httpclient.CircuitBreakerClient the seeder uses.
type apiClient interface {
	DoJSON(ctx context.Context, method, url, token string, body []byte, out any) error
}

type seeder struct {
	client    apiClient
	baseURL   string
	batchSize int
	token     string
	logger    *slog.Logger
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signinResponse struct {
	JWT string `json:"jwt"`
}

type bulkCreateResponse struct {
	Created int `json:"created"`
}

func (s *seeder) url(path string) string {
	return strings.TrimRight(s.baseURL, "/") + path
}

// signIn obtains an admin token for the bulk-create endpoint.
func (s *seeder) signIn(ctx context.Context, email, password string) error {
	body, err := json.Marshal(signinRequest{Email: email, Password: password})
	if err != nil {
		return fmt.Errorf("marshal signin: %w", err)
	}

	var res signinResponse
	if err := s.client.DoJSON(ctx, http.MethodPost, s.url(signinPath), "", body, &res); err != nil {
		return fmt.Errorf("signin: %w", err)
	}
	if res.JWT == "" {
		return fmt.Errorf("signin: empty token")
	}
	s.token = res.JWT
	return nil
}

// push sends products in batches and returns how many the API created. It
// stops at the first failed batch.
func (s *seeder) push(ctx context.Context, products []service.CreateProductInput) (int, error) {
	size := s.batchSize
	if size <= 0 {
		size = defaultBatchSize
	}

	total := 0
	for start := 0; start < len(products); start += size {
		end := min(start+size, len(products))

		body, err := json.Marshal(products[start:end])
		if err != nil {
			return total, fmt.Errorf("marshal batch: %w", err)
		}

		var res bulkCreateResponse
		if err := s.client.DoJSON(ctx, http.MethodPost, s.url(bulkCreatePath), s.token, body, &res); err != nil {
			return total, fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		total += res.Created

		s.logger.InfoContext(ctx, "batch created",
			slog.Int("from", start),
			slog.Int("to", end),
			slog.Int("created", res.Created),
		)
	}
	return total, nil
}
