package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"

	"depresolve/internal/observability"
	"depresolve/internal/ports"
	"depresolve/internal/shared"
	"depresolve/internal/types"
)

const (
	defaultHTTPTimeout    = 30 * time.Second
	defaultHTTPRetries    = 3
	defaultHTTPRetryDelay = 200 * time.Millisecond
	maxHTTPRetryDelay     = 2 * time.Second
	maxDescriptorBytes    = 4 << 20
)

// HTTPRepositoryAdapter reads module descriptors from a static HTTP tree:
//
//	<base>/<group path>/<name>/versions.yaml
//	<base>/<group path>/<name>/<version>/module.yaml
type HTTPRepositoryAdapter struct {
	BaseURL    string
	Client     *http.Client
	Retries    int
	RetryDelay time.Duration
	Metrics    *observability.Metrics
}

func NewHTTPRepositoryAdapter(baseURL string, timeout time.Duration) *HTTPRepositoryAdapter {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &HTTPRepositoryAdapter{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		Retries:    defaultHTTPRetries,
		RetryDelay: defaultHTTPRetryDelay,
	}
}

func (a *HTTPRepositoryAdapter) ID() string {
	return "http:" + a.BaseURL
}

func (a *HTTPRepositoryAdapter) ResolveMetadata(ctx context.Context, coordinate types.ModuleCoordinate) (types.ModuleMetadata, error) {
	var descriptor types.ModuleDescriptor
	target := a.moduleURL(coordinate.Module, url.PathEscape(coordinate.Version), "module.yaml")
	if err := a.fetchYAML(ctx, "metadata", target, &descriptor); err != nil {
		return types.ModuleMetadata{}, err
	}
	return moduleMetadata(descriptor.Artifacts, descriptor.Dependencies)
}

func (a *HTTPRepositoryAdapter) AvailableVersions(ctx context.Context, module types.ModuleID) ([]string, error) {
	var list types.VersionList
	if err := a.fetchYAML(ctx, "versions", a.moduleURL(module, "versions.yaml"), &list); err != nil {
		return nil, err
	}
	return list.Versions, nil
}

func (a *HTTPRepositoryAdapter) moduleURL(module types.ModuleID, parts ...string) string {
	segments := append([]string{a.BaseURL, shared.GroupPath(module.Group), url.PathEscape(module.Name)}, parts...)
	return strings.Join(segments, "/")
}

func (a *HTTPRepositoryAdapter) fetchYAML(ctx context.Context, operation string, target string, out any) (err error) {
	ctx, span := observability.StartSpan(ctx, "depresolve.repository."+operation)
	span.SetAttributes(attribute.String("url", target))
	started := time.Now()
	status := "ok"
	defer func() {
		if err != nil {
			status = "error"
			if errbuilder.CodeOf(err) == errbuilder.CodeNotFound {
				status = "not_found"
			}
		}
		a.Metrics.RecordRepositoryRequest(a.ID(), operation, status, time.Since(started))
		observability.EndSpan(span, err)
	}()

	resp, err := a.doRequest(ctx, target)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("%s not found", target))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("repository request failed").
			WithCause(shared.HTTPStatusError(resp.StatusCode, target))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDescriptorBytes))
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("failed to read repository response").
			WithCause(err)
	}
	if err := yaml.Unmarshal(body, out); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid descriptor at %s", target)).
			WithCause(err)
	}
	return nil
}

// doRequest retries transport errors, 5xx and 429 responses with
// exponential backoff.
func (a *HTTPRepositoryAdapter) doRequest(ctx context.Context, target string) (*http.Response, error) {
	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}
	retries := a.Retries
	if retries <= 0 {
		retries = 1
	}
	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("invalid repository url").
				WithCause(err)
		}
		resp, err := client.Do(req)
		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests:
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = shared.HTTPStatusError(resp.StatusCode, target)
		default:
			return resp, nil
		}
		if ctx.Err() != nil || attempt == retries-1 {
			break
		}
		log.Ctx(ctx).Debug().Str("url", target).Int("attempt", attempt+1).Err(lastErr).Msg("retrying repository request")
		if err := sleepContext(ctx, a.retryDelay(attempt)); err != nil {
			break
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		lastErr = ctxErr
	}
	return nil, errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg("repository unreachable").
		WithCause(lastErr)
}

func (a *HTTPRepositoryAdapter) retryDelay(attempt int) time.Duration {
	base := a.RetryDelay
	if base <= 0 {
		base = defaultHTTPRetryDelay
	}
	delay := base * time.Duration(1<<attempt)
	if delay > maxHTTPRetryDelay {
		delay = maxHTTPRetryDelay
	}
	jitter := time.Duration(time.Now().UnixNano() % int64(delay/2+1))
	return delay + jitter
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ ports.RepositoryPort = (*HTTPRepositoryAdapter)(nil)
