// Firma digital enveloped (XMLDSig) del comprobante electrónico. El nodo
// ds:Signature se inyecta en el ext:ExtensionContent que el builder deja
// vacío; el digest de la referencia se devuelve para el código QR.

package sunat

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	"github.com/facturaperu/gestion-api/internal/application/billing"
)

const (
	namespaceDS        = "http://www.w3.org/2000/09/xmldsig#"
	algC14N            = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	algRSASHA256       = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	algSHA256          = "http://www.w3.org/2001/04/xmlenc#sha256"
	transformEnveloped = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
)

// DigitalSignatureService implementa billing.Signer. Sin certificado cargado
// opera en modo simulado: no inyecta firma pero sí calcula el digest, de modo
// que el pipeline completo es ejercitable en development contra el ambiente beta.
type DigitalSignatureService struct {
	cert tls.Certificate
}

func NewDigitalSignatureService(cert tls.Certificate) *DigitalSignatureService {
	return &DigitalSignatureService{cert: cert}
}

func (s *DigitalSignatureService) Sign(xmlBytes []byte) ([]byte, string, error) {
	if len(xmlBytes) == 0 {
		return nil, "", fmt.Errorf("firma: XML vacío")
	}

	canonicalDoc, err := canonicalizeXML(xmlBytes)
	if err != nil {
		canonicalDoc = xmlBytes
	}
	docDigest := sha256.Sum256(canonicalDoc)
	docDigestB64 := base64.StdEncoding.EncodeToString(docDigest[:])

	if len(s.cert.Certificate) == 0 {
		return xmlBytes, docDigestB64, nil
	}

	priv, ok := s.cert.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, "", fmt.Errorf("firma: el certificado debe incluir llave privada RSA")
	}
	x509Cert, err := x509.ParseCertificate(s.cert.Certificate[0])
	if err != nil {
		return nil, "", fmt.Errorf("firma: parsear certificado: %w", err)
	}

	signedInfoXML := buildSignedInfo(docDigestB64)
	canonicalSignedInfo, err := canonicalizeXML([]byte(signedInfoXML))
	if err != nil {
		canonicalSignedInfo = []byte(signedInfoXML)
	}
	signHash := sha256.Sum256(canonicalSignedInfo)
	signatureValue, err := rsa.SignPKCS1v15(nil, priv, crypto.SHA256, signHash[:])
	if err != nil {
		return nil, "", fmt.Errorf("firma: firmar SignedInfo: %w", err)
	}

	signatureXML := buildSignatureXML(
		signedInfoXML,
		base64.StdEncoding.EncodeToString(signatureValue),
		base64.StdEncoding.EncodeToString(x509Cert.Raw),
	)

	signed, err := injectSignature(xmlBytes, signatureXML)
	if err != nil {
		return nil, "", err
	}
	return signed, docDigestB64, nil
}

func canonicalizeXML(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

func buildSignedInfo(docDigestB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<ds:SignedInfo xmlns:ds="` + namespaceDS + `">`)
	sb.WriteString(`<ds:CanonicalizationMethod Algorithm="` + algC14N + `"/>`)
	sb.WriteString(`<ds:SignatureMethod Algorithm="` + algRSASHA256 + `"/>`)
	sb.WriteString(`<ds:Reference URI="">`)
	sb.WriteString(`<ds:Transforms><ds:Transform Algorithm="` + transformEnveloped + `"/></ds:Transforms>`)
	sb.WriteString(`<ds:DigestMethod Algorithm="` + algSHA256 + `"/>`)
	sb.WriteString(`<ds:DigestValue>` + docDigestB64 + `</ds:DigestValue>`)
	sb.WriteString(`</ds:Reference>`)
	sb.WriteString(`</ds:SignedInfo>`)
	return sb.String()
}

func buildSignatureXML(signedInfoXML, signatureValueB64, certB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<ds:Signature xmlns:ds="` + namespaceDS + `" Id="signatureKG">`)
	sb.WriteString(signedInfoXML)
	sb.WriteString(`<ds:SignatureValue>` + signatureValueB64 + `</ds:SignatureValue>`)
	sb.WriteString(`<ds:KeyInfo><ds:X509Data><ds:X509Certificate>` + certB64 + `</ds:X509Certificate></ds:X509Data></ds:KeyInfo>`)
	sb.WriteString(`</ds:Signature>`)
	return sb.String()
}

// injectSignature ubica ext:UBLExtensions > UBLExtension > ExtensionContent
// (el primero vacío) y cuelga ahí el nodo ds:Signature.
func injectSignature(xmlBytes []byte, signatureXML string) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("firma: parsear XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("firma: documento sin raíz")
	}

	var extContent *etree.Element
	for _, child := range root.ChildElements() {
		if localTag(child) != "UBLExtensions" {
			continue
		}
		for _, ext := range child.ChildElements() {
			if localTag(ext) != "UBLExtension" {
				continue
			}
			for _, ec := range ext.ChildElements() {
				if localTag(ec) == "ExtensionContent" && len(ec.ChildElements()) == 0 {
					extContent = ec
					break
				}
			}
			if extContent != nil {
				break
			}
		}
		break
	}
	if extContent == nil {
		return nil, fmt.Errorf("firma: no se encontró ext:ExtensionContent libre para la firma")
	}

	sigDoc := etree.NewDocument()
	if err := sigDoc.ReadFromString(signatureXML); err != nil {
		return nil, fmt.Errorf("firma: parsear nodo Signature: %w", err)
	}
	if sigRoot := sigDoc.Root(); sigRoot != nil {
		extContent.AddChild(sigRoot)
	}

	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("firma: serializar XML firmado: %w", err)
	}
	return out.Bytes(), nil
}

func localTag(e *etree.Element) string {
	tag := e.Tag
	if idx := strings.Index(tag, ":"); idx != -1 {
		tag = tag[idx+1:]
	}
	return tag
}

var _ billing.Signer = (*DigitalSignatureService)(nil)
