package sunat

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// cdrResponse vista mínima del ApplicationResponse dentro del CDR.
type cdrResponse struct {
	DocumentResponse struct {
		Response struct {
			ResponseCode string `xml:"ResponseCode"`
			Description  string `xml:"Description"`
		} `xml:"Response"`
	} `xml:"DocumentResponse"`
	Notes []string `xml:"Note"`
}

// CDRResult veredicto extraído de la constancia de recepción.
type CDRResult struct {
	Code        int
	Description string
	Notes       string
}

// Accepted código 0 es aceptación limpia; 4000 en adelante son observaciones
// (el documento queda aceptado). Los códigos 2000-3999 son rechazos.
func (r CDRResult) Accepted() bool {
	return r.Code == 0 || r.Code >= 4000
}

// ParseCDR descomprime el ZIP del CDR y extrae el código y descripción de la
// respuesta de SUNAT.
func ParseCDR(zipBytes []byte) (*CDRResult, error) {
	xmlBytes, err := extractFirstXML(zipBytes)
	if err != nil {
		return nil, err
	}

	var resp cdrResponse
	if err := xml.Unmarshal(xmlBytes, &resp); err != nil {
		return nil, fmt.Errorf("cdr: parsear ApplicationResponse: %w", err)
	}

	code, err := strconv.Atoi(strings.TrimSpace(resp.DocumentResponse.Response.ResponseCode))
	if err != nil {
		return nil, fmt.Errorf("cdr: ResponseCode %q no numérico", resp.DocumentResponse.Response.ResponseCode)
	}
	return &CDRResult{
		Code:        code,
		Description: strings.TrimSpace(resp.DocumentResponse.Response.Description),
		Notes:       strings.Join(resp.Notes, "; "),
	}, nil
}
