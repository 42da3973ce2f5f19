package sunat

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// CompressXML empaqueta el XML firmado en un ZIP en memoria. SUNAT exige un
// ZIP con un único archivo cuyo nombre coincide con el del ZIP salvo la
// extensión: {RUC}-{tipo}-{serie}-{numero}.xml dentro de ...zip.
func CompressXML(xmlBytes []byte, zipName string) ([]byte, error) {
	xmlName := strings.TrimSuffix(zipName, ".zip") + ".xml"

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	fw, err := zw.Create(xmlName)
	if err != nil {
		return nil, fmt.Errorf("zip: crear entrada %s: %w", xmlName, err)
	}
	if _, err := fw.Write(xmlBytes); err != nil {
		return nil, fmt.Errorf("zip: escribir XML: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: cerrar archivo: %w", err)
	}
	return buf.Bytes(), nil
}

// extractFirstXML devuelve el contenido del primer .xml dentro de un ZIP
// (el CDR llega como ZIP con un único ApplicationResponse).
func extractFirstXML(zipBytes []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return nil, fmt.Errorf("zip: abrir CDR: %w", err)
	}
	for _, f := range zr.File {
		if !strings.HasSuffix(strings.ToLower(f.Name), ".xml") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("zip: abrir %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(io.LimitReader(rc, 4<<20))
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("zip: leer %s: %w", f.Name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("zip: el CDR no contiene ningún XML")
}
