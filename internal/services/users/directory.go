package users

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"CarbonDesk/internal/domain/models"
	domrepo "CarbonDesk/internal/domain/repository"
	xhttp "CarbonDesk/pkg/http"
)

// ErrUpstream marks a failure of the user directory itself.
var ErrUpstream = errors.New("user directory unavailable")

// HTTPDirectory talks to the external user-management service over JSON.
type HTTPDirectory struct {
	client   *xhttp.Client
	attempts int
}

func NewHTTPDirectory(baseURL, token string, timeout time.Duration) *HTTPDirectory {
	opts := []xhttp.ClientOption{xhttp.WithBaseURL(baseURL), xhttp.WithTimeout(timeout)}
	if token != "" {
		opts = append(opts, xhttp.WithHeader("Authorization", "Bearer "+token))
	}
	return &HTTPDirectory{client: xhttp.NewClient(opts...), attempts: 3}
}

func (d *HTTPDirectory) ListUsers(ctx context.Context, page, pageSize int) ([]models.User, error) {
	var out []models.User
	err := d.withRetry(ctx, func() error {
		return d.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: http.MethodGet,
			Path:   "/users",
			QueryParams: map[string][]string{
				"page":      {strconv.Itoa(page)},
				"page_size": {strconv.Itoa(pageSize)},
			},
		}, &out)
	})
	if err != nil {
		return nil, classify("list users", err)
	}
	return out, nil
}

// CreateUser is not retried: the directory gives no idempotency guarantee.
func (d *HTTPDirectory) CreateUser(ctx context.Context, req models.CreateUserRequest) (models.User, error) {
	var out models.User
	err := d.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  http.MethodPost,
		Path:    "/users",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    req,
	}, &out)
	if err != nil {
		return models.User{}, classify("create user", err)
	}
	return out, nil
}

// withRetry retries transport failures and 5xx responses with linear backoff.
func (d *HTTPDirectory) withRetry(ctx context.Context, call func() error) error {
	var err error
	for i := 1; i <= d.attempts; i++ {
		if err = call(); err == nil {
			return nil
		}
		var se *xhttp.StatusError
		if errors.As(err, &se) && se.StatusCode < 500 {
			return err
		}
		select {
		case <-time.After(time.Duration(i) * 50 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// classify keeps 4xx answers as invalid arguments and everything else as upstream faults.
func classify(op string, err error) error {
	var se *xhttp.StatusError
	if errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500 {
		return fmt.Errorf("%s: %w: %w", op, models.ErrInvalidArgument, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
}

var _ domrepo.UserDirectory = (*HTTPDirectory)(nil)
