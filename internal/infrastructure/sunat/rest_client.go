package sunat

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/facturaperu/gestion-api/internal/application/billing"
	"github.com/facturaperu/gestion-api/internal/domain"
	"github.com/facturaperu/gestion-api/internal/domain/entity"
)

// API REST de guías de remisión (GRE). La autenticación es OAuth2 client
// credentials contra el servicio de seguridad SOL; el envío es asíncrono con
// ticket igual que sendSummary.
const (
	tokenURLProd = "https://api-seguridad.sunat.gob.pe/v1/clientessol/%s/oauth2/token"
	tokenURLBeta = "https://gre-test.nubefact.com/v1/clientessol/%s/oauth2/token"
)

type tokenCache struct {
	mu     sync.Mutex
	tokens map[string]cachedToken
}

type cachedToken struct {
	value     string
	expiresAt time.Time
}

func newTokenCache() *tokenCache {
	return &tokenCache{tokens: make(map[string]cachedToken)}
}

func (tc *tokenCache) get(key string) (string, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	t, ok := tc.tokens[key]
	if !ok || time.Now().After(t.expiresAt) {
		return "", false
	}
	return t.value, true
}

func (tc *tokenCache) put(key, value string, ttl time.Duration) {
	tc.mu.Lock()
	// Margen para no usar un token al borde de expirar.
	tc.tokens[key] = cachedToken{value: value, expiresAt: time.Now().Add(ttl - 30*time.Second)}
	tc.mu.Unlock()
}

func (c *Client) submitREST(ctx context.Context, zipBytes []byte, zipName, endpoint string, creds entity.CredentialSet) (*billing.SubmitResult, error) {
	token, err := c.oauthToken(ctx, endpoint, creds)
	if err != nil {
		return nil, err
	}

	hash := sha256.Sum256(zipBytes)
	payload := map[string]any{
		"archivo": map[string]string{
			"nomArchivo": zipName,
			"arcGreZip":  base64.StdEncoding.EncodeToString(zipBytes),
			"hashZip":    hex.EncodeToString(hash[:]),
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("api guías: serializar envío: %w", err)
	}

	sendURL := strings.TrimSuffix(endpoint, "/") + "/comprobantes/" + strings.TrimSuffix(zipName, ".zip")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("api guías: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	var resp struct {
		NumTicket string `json:"numTicket"`
		Errores   []struct {
			Codigo  string `json:"cod"`
			Mensaje string `json:"msg"`
		} `json:"errores"`
	}
	if err := c.doJSON(req, &resp); err != nil {
		return nil, err
	}
	if resp.NumTicket == "" {
		return &billing.SubmitResult{Rejected: true, Errors: joinRESTErrors(resp.Errores)}, nil
	}
	return &billing.SubmitResult{Pending: true, Ticket: resp.NumTicket}, nil
}

func (c *Client) pollREST(ctx context.Context, ticket, endpoint string, creds entity.CredentialSet) (*billing.SubmitResult, error) {
	token, err := c.oauthToken(ctx, endpoint, creds)
	if err != nil {
		return nil, err
	}

	pollURL := strings.TrimSuffix(endpoint, "/") + "/envios/" + url.PathEscape(ticket)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pollURL, nil)
	if err != nil {
		return nil, fmt.Errorf("api guías: crear request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var resp struct {
		CodRespuesta   string `json:"codRespuesta"` // 0 aceptado, 98 en proceso, 99 con errores
		ArcCdr         string `json:"arcCdr"`       // CDR (ZIP) en Base64
		IndCdrGenerado string `json:"indCdrGenerado"`
		Error          *struct {
			NumError string `json:"numError"`
			DesError string `json:"desError"`
		} `json:"error"`
	}
	if err := c.doJSON(req, &resp); err != nil {
		return nil, err
	}

	switch resp.CodRespuesta {
	case ticketEnProceso:
		return &billing.SubmitResult{Pending: true, Ticket: ticket}, nil
	case ticketProcesado:
		if resp.ArcCdr != "" {
			return c.resultFromCDRBase64(resp.ArcCdr)
		}
		return &billing.SubmitResult{Accepted: true}, nil
	default:
		msg := "envío con errores"
		if resp.Error != nil {
			msg = fmt.Sprintf("[%s] %s", resp.Error.NumError, resp.Error.DesError)
		}
		if resp.ArcCdr != "" && resp.IndCdrGenerado == "1" {
			return c.resultFromCDRBase64(resp.ArcCdr)
		}
		return &billing.SubmitResult{Rejected: true, Errors: msg}, nil
	}
}

// oauthToken obtiene (o reutiliza) el access token del API de guías.
func (c *Client) oauthToken(ctx context.Context, endpoint string, creds entity.CredentialSet) (string, error) {
	cacheKey := creds.ClientID + "|" + endpoint
	if tok, ok := c.tokens.get(cacheKey); ok {
		return tok, nil
	}

	tokenURLTpl := tokenURLProd
	if strings.Contains(endpoint, "-beta") {
		tokenURLTpl = tokenURLBeta
	}
	tokenURL := fmt.Sprintf(tokenURLTpl, url.PathEscape(creds.ClientID))

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("scope", "https://api-cpe.sunat.gob.pe")
	form.Set("client_id", creds.ClientID)
	form.Set("client_secret", creds.ClientSecret)
	form.Set("username", creds.RUCProveedor+creds.UsuarioSOL)
	form.Set("password", creds.ClaveSOL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("api guías: crear request de token: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := c.doJSON(req, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("%w: el servicio de seguridad no devolvió token", domain.ErrTransporte)
	}

	ttl := time.Duration(resp.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	c.tokens.put(cacheKey, resp.AccessToken, ttl)
	return resp.AccessToken, nil
}

// doJSON ejecuta la llamada y decodifica el cuerpo. Red y 5xx son transporte.
func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransporte, err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("%w: leer respuesta: %v", domain.ErrTransporte, err)
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: HTTP %d del API SUNAT", domain.ErrTransporte, resp.StatusCode)
	}
	if err := json.Unmarshal(rawBody, out); err != nil {
		return fmt.Errorf("%w: respuesta JSON no parseable (HTTP %d): %v", domain.ErrTransporte, resp.StatusCode, err)
	}
	return nil
}

func joinRESTErrors(errores []struct {
	Codigo  string `json:"cod"`
	Mensaje string `json:"msg"`
}) string {
	if len(errores) == 0 {
		return "el API no devolvió ticket ni detalle"
	}
	parts := make([]string, len(errores))
	for i, e := range errores {
		parts[i] = fmt.Sprintf("[%s] %s", e.Codigo, e.Mensaje)
	}
	return strings.Join(parts, "; ")
}
