package github

import (
	"net/http"
	"strings"

	gh "github.com/google/go-github/v74/github"
	"github.com/pkg/errors"

	"github.com/developer-mesh/mcp-github-server/internal/models"
)

// classify converts a go-github failure into an upstream error prefixed with op.
func classify(op string, resp *gh.Response, err error) error {
	if err == nil {
		return nil
	}

	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return models.NewUpstreamError(models.ErrorCodeRateLimited, op,
			errors.Errorf("rate limit exceeded, resets at %s", rateErr.Rate.Reset.UTC().Format("15:04:05 MST")))
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return models.NewUpstreamError(models.ErrorCodeRateLimited, op, errors.New(abuseErr.Message))
	}

	cause := err
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) {
		if respErr.Response != nil {
			status = respErr.Response.StatusCode
		}
		if respErr.Message != "" {
			cause = errors.New(respErr.Message)
		}
	}

	code := models.ErrorCodeUpstream
	switch status {
	case http.StatusUnauthorized:
		code = models.ErrorCodeUnauthorized
	case http.StatusForbidden:
		code = models.ErrorCodeForbidden
	case http.StatusNotFound:
		code = models.ErrorCodeNotFound
	case http.StatusConflict:
		code = models.ErrorCodeConflict
	case http.StatusUnprocessableEntity:
		// The contents API reports a stale or missing blob sha as 422.
		if strings.Contains(strings.ToLower(cause.Error()), "sha") {
			code = models.ErrorCodeConflict
		}
	case http.StatusTooManyRequests:
		code = models.ErrorCodeRateLimited
	}

	upstream := models.NewUpstreamError(code, op, cause)
	upstream.Err = errors.Wrap(err, op)
	return upstream
}
