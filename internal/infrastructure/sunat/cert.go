package sunat

import (
	"crypto/tls"
	"fmt"
)

// LoadCertFromPEM carga certificado y llave privada desde archivos PEM.
// Con certPath vacío devuelve cert vacío y err nil (firma simulada).
func LoadCertFromPEM(certPath, keyPath string) (tls.Certificate, error) {
	if certPath == "" {
		return tls.Certificate{}, nil
	}
	if keyPath == "" {
		// Un solo archivo puede contener cert+key en PEM.
		keyPath = certPath
	}
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("cargar certificado de firma: %w", err)
	}
	return cert, nil
}
