package sunat

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/facturaperu/gestion-api/internal/application/billing"
	"github.com/facturaperu/gestion-api/internal/domain"
)

// HTTPProber sonda de conectividad contra un endpoint SUNAT. Un GET basta:
// verifica alcanzabilidad y mide latencia, no intenta autenticar.
type HTTPProber struct{}

func NewHTTPProber() *HTTPProber {
	return &HTTPProber{}
}

func (p *HTTPProber) Probe(ctx context.Context, probeURL string, timeout time.Duration) (int, time.Duration, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, probeURL, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("sonda: crear request: %w", err)
	}

	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		return 0, latency, fmt.Errorf("%w: %v", domain.ErrTransporte, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	return resp.StatusCode, latency, nil
}

var _ billing.Prober = (*HTTPProber)(nil)
