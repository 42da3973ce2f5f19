package sunat

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/facturaperu/gestion-api/internal/application/billing"
	"github.com/facturaperu/gestion-api/internal/domain"
	"github.com/facturaperu/gestion-api/internal/domain/entity"
	"github.com/facturaperu/gestion-api/pkg/logger"
)

const (
	soapNS       = "http://schemas.xmlsoap.org/soap/envelope/"
	serviceNS    = "http://service.sunat.gob.pe"
	wsseNS       = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd"
	passwordType = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-username-token-profile-1.0#PasswordText"
)

// estados devueltos por getStatus para envíos con ticket.
const (
	ticketProcesado  = "0"
	ticketEnProceso  = "98"
	ticketConErrores = "99"
)

// Client adaptador hacia los servicios de recepción SUNAT. Despacha al WS
// SOAP (billService) o al API REST de guías según la forma del endpoint
// resuelto. Implementa billing.Submitter.
type Client struct {
	httpClient *http.Client
	tokens     *tokenCache
	log        *logger.Logger
}

// NewClient construye el cliente. El timeout por llamada lo impone el caller
// vía context; el del http.Client es solo la red de seguridad.
func NewClient(log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		tokens:     newTokenCache(),
		log:        log,
	}
}

// Submit empaqueta el XML firmado y lo entrega a SUNAT. Los resúmenes y bajas
// van por sendSummary (respuesta con ticket); el resto por sendBill (respuesta
// síncrona con CDR).
func (c *Client) Submit(ctx context.Context, signedXML []byte, zipName, endpoint string, creds entity.CredentialSet) (*billing.SubmitResult, error) {
	zipBytes, err := CompressXML(signedXML, zipName)
	if err != nil {
		return nil, err
	}

	if isRESTEndpoint(endpoint) {
		return c.submitREST(ctx, zipBytes, zipName, endpoint, creds)
	}
	if isSummaryFilename(zipName) {
		return c.sendSummary(ctx, zipBytes, zipName, endpoint, creds)
	}
	return c.sendBill(ctx, zipBytes, zipName, endpoint, creds)
}

// PollStatus consulta el acuse de un envío con ticket.
func (c *Client) PollStatus(ctx context.Context, ticket, endpoint string, creds entity.CredentialSet) (*billing.SubmitResult, error) {
	if isRESTEndpoint(endpoint) {
		return c.pollREST(ctx, ticket, endpoint, creds)
	}
	return c.getStatus(ctx, ticket, endpoint, creds)
}

// isRESTEndpoint los endpoints del API de guías viven bajo api-cpe*.sunat.gob.pe.
func isRESTEndpoint(endpoint string) bool {
	return strings.Contains(endpoint, "api-cpe")
}

// isSummaryFilename resúmenes (RC) y bajas (RA) usan la operación asíncrona.
func isSummaryFilename(zipName string) bool {
	return strings.Contains(zipName, "-RC-") || strings.Contains(zipName, "-RA-")
}

// ── Envelopes SOAP ────────────────────────────────────────────────────────────

type soapEnvelope struct {
	XMLName   xml.Name   `xml:"soapenv:Envelope"`
	XmlnsS    string     `xml:"xmlns:soapenv,attr"`
	XmlnsSer  string     `xml:"xmlns:ser,attr"`
	XmlnsWsse string     `xml:"xmlns:wsse,attr"`
	Header    soapHeader `xml:"soapenv:Header"`
	Body      soapBody   `xml:"soapenv:Body"`
}

type soapHeader struct {
	Security wsseSecurity `xml:"wsse:Security"`
}

type wsseSecurity struct {
	UsernameToken wsseUsernameToken `xml:"wsse:UsernameToken"`
}

type wsseUsernameToken struct {
	Username string       `xml:"wsse:Username"`
	Password wssePassword `xml:"wsse:Password"`
}

type wssePassword struct {
	Type  string `xml:"Type,attr"`
	Value string `xml:",chardata"`
}

type soapBody struct {
	Content any
}

func (b soapBody) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name.Local = "soapenv:Body"
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.Encode(b.Content); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

type sendBillBody struct {
	XMLName     xml.Name `xml:"ser:sendBill"`
	FileName    string   `xml:"fileName"`
	ContentFile string   `xml:"contentFile"` // ZIP en Base64
}

type sendSummaryBody struct {
	XMLName     xml.Name `xml:"ser:sendSummary"`
	FileName    string   `xml:"fileName"`
	ContentFile string   `xml:"contentFile"`
}

type getStatusBody struct {
	XMLName xml.Name `xml:"ser:getStatus"`
	Ticket  string   `xml:"ticket"`
}

type soapResponseEnvelope struct {
	Body soapResponseBody `xml:"Body"`
}

type soapResponseBody struct {
	SendBillResponse    *sendBillResponse    `xml:"sendBillResponse"`
	SendSummaryResponse *sendSummaryResponse `xml:"sendSummaryResponse"`
	GetStatusResponse   *getStatusResponse   `xml:"getStatusResponse"`
	Fault               *soapFault           `xml:"Fault"`
}

type sendBillResponse struct {
	ApplicationResponse string `xml:"applicationResponse"` // CDR (ZIP) en Base64
}

type sendSummaryResponse struct {
	Ticket string `xml:"ticket"`
}

type getStatusResponse struct {
	Status struct {
		StatusCode string `xml:"statusCode"`
		Content    string `xml:"content"` // CDR (ZIP) en Base64 cuando 0 o 99
	} `xml:"status"`
}

type soapFault struct {
	FaultCode   string `xml:"faultcode"`
	FaultString string `xml:"faultstring"`
}

// ── Operaciones ───────────────────────────────────────────────────────────────

func (c *Client) sendBill(ctx context.Context, zipBytes []byte, zipName, endpoint string, creds entity.CredentialSet) (*billing.SubmitResult, error) {
	body := &sendBillBody{
		FileName:    zipName,
		ContentFile: base64.StdEncoding.EncodeToString(zipBytes),
	}
	respBody, fault, err := c.call(ctx, endpoint, "urn:sendBill", body, creds)
	if err != nil {
		return nil, err
	}
	if fault != nil {
		return faultResult(fault)
	}
	if respBody.SendBillResponse == nil {
		return nil, fmt.Errorf("%w: respuesta sendBill vacía", domain.ErrTransporte)
	}
	return c.resultFromCDRBase64(respBody.SendBillResponse.ApplicationResponse)
}

func (c *Client) sendSummary(ctx context.Context, zipBytes []byte, zipName, endpoint string, creds entity.CredentialSet) (*billing.SubmitResult, error) {
	body := &sendSummaryBody{
		FileName:    zipName,
		ContentFile: base64.StdEncoding.EncodeToString(zipBytes),
	}
	respBody, fault, err := c.call(ctx, endpoint, "urn:sendSummary", body, creds)
	if err != nil {
		return nil, err
	}
	if fault != nil {
		return faultResult(fault)
	}
	if respBody.SendSummaryResponse == nil || respBody.SendSummaryResponse.Ticket == "" {
		return nil, fmt.Errorf("%w: sendSummary no devolvió ticket", domain.ErrTransporte)
	}
	return &billing.SubmitResult{Pending: true, Ticket: respBody.SendSummaryResponse.Ticket}, nil
}

func (c *Client) getStatus(ctx context.Context, ticket, endpoint string, creds entity.CredentialSet) (*billing.SubmitResult, error) {
	respBody, fault, err := c.call(ctx, endpoint, "urn:getStatus", &getStatusBody{Ticket: ticket}, creds)
	if err != nil {
		return nil, err
	}
	if fault != nil {
		return faultResult(fault)
	}
	if respBody.GetStatusResponse == nil {
		return nil, fmt.Errorf("%w: respuesta getStatus vacía", domain.ErrTransporte)
	}

	status := respBody.GetStatusResponse.Status
	switch status.StatusCode {
	case ticketEnProceso:
		return &billing.SubmitResult{Pending: true, Ticket: ticket}, nil
	case ticketProcesado, "", ticketConErrores:
		if status.Content == "" {
			if status.StatusCode == ticketConErrores {
				return &billing.SubmitResult{Rejected: true, Errors: "ticket con errores sin CDR"}, nil
			}
			return &billing.SubmitResult{Pending: true, Ticket: ticket}, nil
		}
		return c.resultFromCDRBase64(status.Content)
	default:
		return &billing.SubmitResult{Rejected: true, Errors: "estado de ticket desconocido: " + status.StatusCode}, nil
	}
}

// call serializa el envelope, ejecuta el POST y desempaqueta la respuesta.
// Los fallos de red, timeouts y 5xx se envuelven en domain.ErrTransporte.
func (c *Client) call(ctx context.Context, endpoint, action string, body any, creds entity.CredentialSet) (*soapResponseBody, *soapFault, error) {
	envelope := soapEnvelope{
		XmlnsS:    soapNS,
		XmlnsSer:  serviceNS,
		XmlnsWsse: wsseNS,
		Header: soapHeader{
			Security: wsseSecurity{
				UsernameToken: wsseUsernameToken{
					// SUNAT autentica con RUC concatenado al usuario SOL.
					Username: creds.RUCProveedor + creds.UsuarioSOL,
					Password: wssePassword{Type: passwordType, Value: creds.ClaveSOL},
				},
			},
		},
		Body: soapBody{Content: body},
	}

	payload, err := xml.Marshal(envelope)
	if err != nil {
		return nil, nil, fmt.Errorf("soap: serializar envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("soap: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", action)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrTransporte, err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: leer respuesta: %v", domain.ErrTransporte, err)
	}
	if resp.StatusCode >= 500 {
		return nil, nil, fmt.Errorf("%w: HTTP %d del WS SUNAT", domain.ErrTransporte, resp.StatusCode)
	}

	var envResp soapResponseEnvelope
	if err := xml.Unmarshal(rawBody, &envResp); err != nil {
		return nil, nil, fmt.Errorf("%w: respuesta SOAP no parseable: %v", domain.ErrTransporte, err)
	}
	return &envResp.Body, envResp.Body.Fault, nil
}

func (c *Client) resultFromCDRBase64(b64 string) (*billing.SubmitResult, error) {
	cdrZip, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("%w: CDR en Base64 inválido: %v", domain.ErrTransporte, err)
	}
	cdr, err := ParseCDR(cdrZip)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransporte, err)
	}

	res := &billing.SubmitResult{CDR: cdrZip}
	if cdr.Accepted() {
		res.Accepted = true
		res.Errors = cdr.Notes // observaciones, si las hay
	} else {
		res.Rejected = true
		res.Errors = fmt.Sprintf("[%d] %s", cdr.Code, cdr.Description)
	}
	return res, nil
}

// faultResult clasifica un SOAP Fault: los códigos 0100-0199 son fallas del
// sistema SUNAT (transitorias); el resto son rechazos del documento o de las
// credenciales.
func faultResult(fault *soapFault) (*billing.SubmitResult, error) {
	code := extractFaultCode(fault.FaultCode)
	if code > 0 && code < 200 {
		return nil, fmt.Errorf("%w: SUNAT no disponible [%s] %s", domain.ErrTransporte, fault.FaultCode, fault.FaultString)
	}
	return &billing.SubmitResult{
		Rejected: true,
		Errors:   fmt.Sprintf("[%s] %s", fault.FaultCode, fault.FaultString),
	}, nil
}

func extractFaultCode(faultCode string) int {
	if idx := strings.LastIndex(faultCode, "."); idx != -1 {
		faultCode = faultCode[idx+1:]
	}
	n, err := strconv.Atoi(strings.TrimSpace(faultCode))
	if err != nil {
		return -1
	}
	return n
}

var _ billing.Submitter = (*Client)(nil)
