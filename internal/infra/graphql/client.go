// Package graphql is the adapter for the trading backend's GraphQL API.
// It implements the profile and transaction-log ports.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/boddenberg/trading-dashboard-bfa/internal/domain"
	"github.com/boddenberg/trading-dashboard-bfa/internal/infra/resilience"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const serviceName = "graphql"

var tracer = otel.Tracer("graphql")

// Config configures the client.
type Config struct {
	Endpoint string
	// ServiceToken is sent when the request context carries no caller token.
	ServiceToken string
	Resilience   resilience.Config
}

// Client talks to the trading backend over GraphQL-over-HTTP.
type Client struct {
	httpClient *http.Client
	cfg        Config
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	logger     *zap.Logger
}

// NewClient creates a Client. Not-found and unauthorized responses do not
// count against the circuit breaker.
func NewClient(httpClient *http.Client, cfg Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		cfg:        cfg,
		cb:         resilience.NewCircuitBreaker(serviceName, logger, isBreakerFailure),
		bulkhead:   resilience.NewBulkhead(cfg.Resilience.MaxConcurrency),
		logger:     logger,
	}
}

// WithBearerToken attaches the caller's token so upstream calls made with
// ctx are authorized as that caller.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return domain.WithCallerToken(ctx, token)
}

func bearerToken(ctx context.Context, fallback string) string {
	if t, ok := domain.CallerToken(ctx); ok {
		return t
	}
	return fallback
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// do executes one GraphQL operation and decodes data into out. resource and
// id label not-found errors.
func (c *Client) do(ctx context.Context, op, query string, vars map[string]any, resource, id string, out any) error {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return &domain.ErrTimeout{Operation: "graphql." + op}
	}
	defer c.bulkhead.Release()

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg.Resilience, func() error {
			return c.post(ctx, op, query, vars, resource, id, out)
		})
	})
	return c.classify(ctx, op, err)
}

func (c *Client) post(ctx context.Context, op, query string, vars map[string]any, resource, id string, out any) error {
	body, err := json.Marshal(request{Query: query, Variables: vars})
	if err != nil {
		return resilience.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return resilience.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID(ctx))
	if token := bearerToken(ctx, c.cfg.ServiceToken); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return resilience.Permanent(&domain.ErrUnauthorized{Message: fmt.Sprintf("graphql %s rejected credentials", op)})
	case resp.StatusCode >= 500:
		return fmt.Errorf("graphql API returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return resilience.Permanent(fmt.Errorf("graphql API returned status %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var envelope response
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return resilience.Permanent(fmt.Errorf("decoding graphql envelope: %w", err))
	}

	if len(envelope.Errors) > 0 {
		first := envelope.Errors[0]
		switch first.Extensions.Code {
		case "NOT_FOUND":
			return resilience.Permanent(&domain.ErrNotFound{Resource: resource, ID: id})
		case "UNAUTHENTICATED", "FORBIDDEN":
			return resilience.Permanent(&domain.ErrUnauthorized{Message: first.Message})
		case "BAD_USER_INPUT", "GRAPHQL_VALIDATION_FAILED":
			return resilience.Permanent(fmt.Errorf("graphql %s: %s", op, first.Message))
		}
		return fmt.Errorf("graphql %s: %s", op, first.Message)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return resilience.Permanent(fmt.Errorf("decoding graphql %s data: %w", op, err))
	}
	return nil
}

// classify maps a call error onto the domain error types.
func (c *Client) classify(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}

	var notFound *domain.ErrNotFound
	var unauthorized *domain.ErrUnauthorized
	switch {
	case errors.As(err, &notFound):
		return notFound
	case errors.As(err, &unauthorized):
		return unauthorized
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &domain.ErrCircuitOpen{Service: serviceName}
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &domain.ErrTimeout{Operation: "graphql." + op}
	}

	c.logger.Error("graphql call failed", zap.String("operation", op), zap.Error(err))
	return &domain.ErrExternalService{Service: serviceName, Err: err}
}

func isBreakerFailure(err error) bool {
	var notFound *domain.ErrNotFound
	var unauthorized *domain.ErrUnauthorized
	return !errors.As(err, &notFound) && !errors.As(err, &unauthorized) && !errors.Is(err, context.Canceled)
}

func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

// ============================================================
// Operations
// ============================================================

const transactionLogsQuery = `query TransactionLogs($userId: ID!) {
  transactionLogs(userId: $userId) {
    id
    ticket
    symbol
    type
    lots
    profit
    createdAt
  }
}`

const userQuery = `query User($id: ID!) {
  user(id: $id) {
    id
    name
    phone
    magicNumber
    role
    initialBalance
  }
}`

const pingQuery = `{ __typename }`

// GetTransactionLogs fetches the complete trade history of a trader.
func (c *Client) GetTransactionLogs(ctx context.Context, traderID string) ([]domain.TransactionLog, error) {
	ctx, span := tracer.Start(ctx, "GraphQLClient.GetTransactionLogs")
	defer span.End()
	span.SetAttributes(attribute.String("trader.id", traderID))

	var data struct {
		TransactionLogs []domain.TransactionLog `json:"transactionLogs"`
	}
	if err := c.do(ctx, "transactionLogs", transactionLogsQuery, map[string]any{"userId": traderID}, "transaction logs", traderID, &data); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("transaction_logs.count", len(data.TransactionLogs)))
	if data.TransactionLogs == nil {
		return []domain.TransactionLog{}, nil
	}
	return data.TransactionLogs, nil
}

// GetTraderProfile fetches the trader record. A null user is reported as
// not found.
func (c *Client) GetTraderProfile(ctx context.Context, traderID string) (*domain.TraderProfile, error) {
	ctx, span := tracer.Start(ctx, "GraphQLClient.GetTraderProfile")
	defer span.End()
	span.SetAttributes(attribute.String("trader.id", traderID))

	var data struct {
		User *domain.TraderProfile `json:"user"`
	}
	if err := c.do(ctx, "user", userQuery, map[string]any{"id": traderID}, "trader", traderID, &data); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if data.User == nil {
		return nil, &domain.ErrNotFound{Resource: "trader", ID: traderID}
	}
	return data.User, nil
}

// Ping runs a trivial query against the backend.
func (c *Client) Ping(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "GraphQLClient.Ping")
	defer span.End()

	var data struct {
		Typename string `json:"__typename"`
	}
	return c.do(ctx, "ping", pingQuery, nil, "", "", &data)
}
