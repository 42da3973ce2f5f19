package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facturaperu/gestion-api/internal/application/dto"
	"github.com/facturaperu/gestion-api/internal/domain"
	"github.com/facturaperu/gestion-api/internal/domain/entity"
	"github.com/facturaperu/gestion-api/internal/domain/repository"
	"github.com/facturaperu/gestion-api/internal/domain/validation"
	"github.com/facturaperu/gestion-api/pkg/logger"
	"github.com/facturaperu/gestion-api/pkg/sunat"
)

// EmitDocumentUseCase emite un comprobante y conduce su ciclo de envío:
//
//	DRAFT → PENDING → SUBMITTING → (ACCEPTED | REJECTED | ERROR)
//
// La validación y la numeración ocurren en la petición; el pipeline
// XML → firma → ZIP → WS SUNAT → acuse corre en una goroutine independiente
// (ProcessAsync) con su propio context.Background más el timeout del servicio,
// desacoplado del ciclo HTTP: un caller que aborta después de SUBMITTING no
// revierte el envío remoto, el registro local queda SUBMITTING hasta el
// siguiente sondeo.
type EmitDocumentUseCase struct {
	txRunner   BillingTxRunner
	docs       repository.DocumentRepository
	companies  repository.CompanyRepository
	branches   repository.BranchRepository
	configs    *ConfigStore
	vault      *CredentialVault
	resolver   *EnvironmentResolver
	xmlBuilder XMLBuilder
	signer     Signer
	submitter  Submitter
	files      FileStore
	log        *logger.Logger
	validate   *validator.Validate

	now func() time.Time
}

// NewEmitDocumentUseCase construye el caso de uso con todas sus dependencias.
func NewEmitDocumentUseCase(
	txRunner BillingTxRunner,
	docs repository.DocumentRepository,
	companies repository.CompanyRepository,
	branches repository.BranchRepository,
	configs *ConfigStore,
	vault *CredentialVault,
	resolver *EnvironmentResolver,
	xmlBuilder XMLBuilder,
	signer Signer,
	submitter Submitter,
	files FileStore,
	log *logger.Logger,
) *EmitDocumentUseCase {
	return &EmitDocumentUseCase{
		txRunner:   txRunner,
		docs:       docs,
		companies:  companies,
		branches:   branches,
		configs:    configs,
		vault:      vault,
		resolver:   resolver,
		xmlBuilder: xmlBuilder,
		signer:     signer,
		submitter:  submitter,
		files:      files,
		log:        log,
		validate:   NewValidator(),
		now:        time.Now,
	}
}

// Emit valida el payload, reserva el correlativo y persiste el comprobante en
// PENDING dentro de una sola transacción. Si la empresa tiene envío automático
// dispara el procesamiento asíncrono.
func (uc *EmitDocumentUseCase) Emit(ctx context.Context, companyID, userID string, in dto.EmitDocumentRequest) (*dto.DocumentResponse, *validation.Resultado, error) {
	// Etapa estructural (tags del DTO).
	res := StructuralResult(uc.validate, in)

	company, err := uc.companies.GetByID(ctx, companyID)
	if err != nil || company == nil {
		return nil, nil, domain.ErrNotFound
	}
	branch, err := uc.branches.GetByID(ctx, in.BranchID)
	if err != nil {
		return nil, nil, fmt.Errorf("leer sucursal: %w", err)
	}

	cfg := uc.configs.Facturacion(ctx, companyID)
	doc, items := uc.buildDocument(companyID, userID, in, cfg)

	// Etapas de catálogo, consistencia y condicionales cruzados.
	res.Merge(validation.ValidateDocumento(doc, items, company, branch))
	res.Merge(validation.ValidateNota(doc))
	res.Merge(validation.ValidateGuia(doc))
	if !res.Valid() {
		return nil, res, nil
	}

	// Numeración + persistencia como unidad atómica: un crash no quema un
	// número sin fila que lo referencie.
	if err := uc.persistWithCorrelative(ctx, doc, items); err != nil {
		return nil, nil, err
	}

	uc.log.Info().Str("document_id", doc.ID).Str("numero", doc.Numero()).
		Str("tipo", doc.TipoDoc).Msg("comprobante emitido")

	if cfg.EnviarAuto {
		uc.ProcessAsync(doc.ID)
	}
	return toResponse(doc), nil, nil
}

func (uc *EmitDocumentUseCase) buildDocument(companyID, userID string, in dto.EmitDocumentRequest, cfg entity.FacturacionConfig) (*entity.FiscalDocument, []*entity.DocumentItem) {
	now := uc.now()
	igvRate := decimal.NewFromFloat(cfg.IGVPorcentaje).Div(decimal.NewFromInt(100))

	doc := &entity.FiscalDocument{
		ID:                 uuid.New().String(),
		CompanyID:          companyID,
		BranchID:           in.BranchID,
		TipoDoc:            in.TipoDoc,
		Serie:              in.Serie,
		Moneda:             in.Moneda,
		FechaEmision:       now,
		ClienteTipoDoc:     in.ClienteTipoDoc,
		ClienteNumDoc:      in.ClienteNumDoc,
		ClienteRazonSocial: in.ClienteRazonSocial,
		DocAfectadoTipo:    in.DocAfectadoTipo,
		DocAfectadoNumero:  in.DocAfectadoNumero,
		CodMotivo:          in.CodMotivo,
		DesMotivo:          in.DesMotivo,
		SunatStatus:        entity.EstadoDraft,
		CreatedBy:          userID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if in.Guia != nil {
		doc.Guia = &entity.GuiaRemisionData{
			ModTraslado:              in.Guia.ModTraslado,
			CodTraslado:              in.Guia.CodTraslado,
			PesoBrutoKg:              in.Guia.PesoBrutoKg,
			FechaTraslado:            in.Guia.FechaTraslado,
			IndicadorM1L:             in.Guia.IndicadorM1L,
			TransportistaTipoDoc:     in.Guia.TransportistaTipoDoc,
			TransportistaNumDoc:      in.Guia.TransportistaNumDoc,
			TransportistaRazonSocial: in.Guia.TransportistaRazonSocial,
			ConductorTipoDoc:         in.Guia.ConductorTipoDoc,
			ConductorNumDoc:          in.Guia.ConductorNumDoc,
			ConductorLicencia:        in.Guia.ConductorLicencia,
			ConductorNombres:         in.Guia.ConductorNombres,
			ConductorApellidos:       in.Guia.ConductorApellidos,
			VehiculoPlaca:            in.Guia.VehiculoPlaca,
			PartidaUbigeo:            in.Guia.PartidaUbigeo,
			PartidaDireccion:         in.Guia.PartidaDireccion,
			LlegadaUbigeo:            in.Guia.LlegadaUbigeo,
			LlegadaDireccion:         in.Guia.LlegadaDireccion,
		}
	}

	items := make([]*entity.DocumentItem, len(in.Items))
	var totalGravado, totalIGV, totalVenta decimal.Decimal
	for i, it := range in.Items {
		unidad := it.Unidad
		if unidad == "" {
			unidad = "NIU"
		}
		subtotal := it.Cantidad.Mul(it.ValorUnitario).Round(2)
		igv := decimal.Zero
		if it.CodAfectacion == sunat.AfectacionGravada {
			igv = subtotal.Mul(igvRate).Round(2)
		}
		items[i] = &entity.DocumentItem{
			ID:            uuid.New().String(),
			DocumentID:    doc.ID,
			Codigo:        it.Codigo,
			Descripcion:   it.Descripcion,
			Unidad:        unidad,
			Cantidad:      it.Cantidad,
			ValorUnitario: it.ValorUnitario,
			CodAfectacion: it.CodAfectacion,
			Subtotal:      subtotal,
			IGV:           igv,
			Total:         subtotal.Add(igv),
		}
		totalGravado = totalGravado.Add(subtotal)
		totalIGV = totalIGV.Add(igv)
		totalVenta = totalVenta.Add(subtotal.Add(igv))
	}
	doc.TotalGravado = totalGravado.Round(2)
	doc.TotalIGV = totalIGV.Round(2)
	doc.TotalVenta = totalVenta.Round(2)
	return doc, items
}

// persistWithCorrelative reserva el correlativo y crea cabecera y líneas en la
// misma transacción. Un conflicto de numeración se reintenta una vez; si
// persiste se expone como transitorio y la carrera no llega al caller.
func (uc *EmitDocumentUseCase) persistWithCorrelative(ctx context.Context, doc *entity.FiscalDocument, items []*entity.DocumentItem) error {
	run := func() error {
		return uc.txRunner.RunEmision(ctx, func(
			docs repository.DocumentRepository,
			correlativos repository.CorrelativeRepository,
		) error {
			n, err := correlativos.ReserveRange(ctx, doc.BranchID, doc.TipoDoc, doc.Serie, 1)
			if err != nil {
				return err
			}
			doc.Correlativo = n
			doc.SunatStatus = entity.EstadoPending
			if err := docs.Create(ctx, doc); err != nil {
				return err
			}
			for _, it := range items {
				if err := docs.CreateItem(ctx, it); err != nil {
					return err
				}
			}
			return nil
		})
	}
	err := run()
	if errors.Is(err, domain.ErrConflicto) {
		err = run()
		if errors.Is(err, domain.ErrConflicto) {
			return fmt.Errorf("%w: numeración en conflicto tras el reintento", domain.ErrTransporte)
		}
	}
	return err
}

// ProcessAsync dispara el pipeline de envío en una goroutine independiente.
func (uc *EmitDocumentUseCase) ProcessAsync(documentID string) {
	go func() {
		if err := uc.Process(context.Background(), documentID); err != nil {
			uc.log.Error().Err(err).Str("document_id", documentID).Msg("procesamiento SUNAT falló")
		}
	}()
}

// Process núcleo síncrono del pipeline. Siempre termina persistiendo el estado
// alcanzado (SUBMITTING, ACCEPTED, REJECTED o ERROR).
func (uc *EmitDocumentUseCase) Process(ctx context.Context, documentID string) error {
	return uc.process(ctx, documentID, false)
}

// Retry re-dispara manualmente un documento en ERROR (o re-sondea uno en
// SUBMITTING). Un REJECTED no se reintenta: requiere corrección humana y un
// comprobante nuevo.
func (uc *EmitDocumentUseCase) Retry(ctx context.Context, documentID string) error {
	return uc.process(ctx, documentID, true)
}

func (uc *EmitDocumentUseCase) process(ctx context.Context, documentID string, manual bool) error {
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil || doc == nil {
		return fmt.Errorf("documento %s no encontrado: %w", documentID, domain.ErrNotFound)
	}

	switch doc.SunatStatus {
	case entity.EstadoPending:
		// sigue
	case entity.EstadoSubmitting:
		if doc.TicketSunat != "" {
			return uc.pollTicket(ctx, doc)
		}
	case entity.EstadoError:
		if !manual {
			return fmt.Errorf("%w: documento en ERROR requiere re-disparo manual", domain.ErrEstadoInvalido)
		}
		doc.Intentos = 0
	case entity.EstadoRejected:
		if manual {
			return fmt.Errorf("%w: un documento rechazado no se reenvía, emita uno nuevo", domain.ErrEstadoInvalido)
		}
		return nil
	default:
		uc.log.Debug().Str("document_id", documentID).Str("estado", doc.SunatStatus).
			Msg("estado no procesable, se omite")
		return nil
	}

	company, err := uc.companies.GetByID(ctx, doc.CompanyID)
	if err != nil || company == nil {
		return uc.markError(ctx, doc, "fetch-company", fmt.Sprintf("empresa %s no encontrada", doc.CompanyID))
	}
	branch, err := uc.branches.GetByID(ctx, doc.BranchID)
	if err != nil || branch == nil {
		return uc.markError(ctx, doc, "fetch-branch", fmt.Sprintf("sucursal %s no encontrada", doc.BranchID))
	}
	items, err := uc.docs.GetItems(ctx, doc.ID)
	if err != nil {
		return uc.markError(ctx, doc, "fetch-items", err.Error())
	}

	creds, err := uc.vault.ResolveForTransport(ctx, doc.CompanyID, company.Environment())
	if err != nil {
		return uc.markError(ctx, doc, "credenciales", err.Error())
	}

	// PENDING → SUBMITTING: generar y firmar el XML. Un fallo aquí es dato
	// malformado, no transitorio: ERROR sin reintento automático.
	signedXML, err := uc.buildAndSign(ctx, doc, items, company, branch)
	if err != nil {
		return uc.markError(ctx, doc, "xml-firma", fmt.Errorf("%w: %v", domain.ErrEnvioPermanente, err).Error())
	}

	doc.SunatStatus = entity.EstadoSubmitting
	doc.UpdatedAt = uc.now()
	if err := uc.docs.Update(ctx, doc); err != nil {
		return fmt.Errorf("persistir SUBMITTING: %w", err)
	}

	return uc.transmit(ctx, doc, company, signedXML, creds)
}

// buildAndSign construye el UBL, lo firma y persiste el artefacto XML.
func (uc *EmitDocumentUseCase) buildAndSign(ctx context.Context, doc *entity.FiscalDocument, items []*entity.DocumentItem, company *entity.Company, branch *entity.Branch) ([]byte, error) {
	xmlBytes, err := uc.xmlBuilder.Build(doc, items, company, branch)
	if err != nil {
		return nil, fmt.Errorf("construir XML: %w", err)
	}
	signed, digest, err := uc.signer.Sign(xmlBytes)
	if err != nil {
		return nil, fmt.Errorf("firmar XML: %w", err)
	}
	doc.Hash = digest

	name := artifactName(company.RUC, doc) + ".xml"
	path, err := uc.files.Save(ctx, name, signed)
	if err != nil {
		return nil, fmt.Errorf("guardar XML: %w", err)
	}
	doc.XMLPath = path
	return signed, nil
}

// transmit envía el ZIP firmado con backoff exponencial sobre errores
// transitorios hasta el tope configurado de la empresa.
func (uc *EmitDocumentUseCase) transmit(ctx context.Context, doc *entity.FiscalDocument, company *entity.Company, signedXML []byte, creds entity.CredentialSet) error {
	servicio := serviceFor(doc.TipoDoc)
	endpoint := uc.endpointFor(ctx, company, servicio)
	timeout := uc.resolver.Timeout(ctx, company, servicio)
	cfg := uc.configs.Facturacion(ctx, doc.CompanyID)

	filename := artifactName(company.RUC, doc) + ".zip"

	var result *SubmitResult
	operation := func() error {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		r, err := uc.submitter.Submit(callCtx, signedXML, filename, endpoint, creds)
		if err != nil {
			doc.Intentos++
			if errors.Is(err, domain.ErrTransporte) && doc.Intentos < cfg.Reintentos {
				return err // backoff reintenta
			}
			return backoff.Permanent(err)
		}
		result = r
		return nil
	}

	policy := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return uc.markError(ctx, doc, "envio", err.Error())
	}

	return uc.applyResult(ctx, doc, company, result)
}

// applyResult materializa el acuse en el estado del documento.
func (uc *EmitDocumentUseCase) applyResult(ctx context.Context, doc *entity.FiscalDocument, company *entity.Company, result *SubmitResult) error {
	doc.UpdatedAt = uc.now()
	switch {
	case result.Pending:
		// Envío asíncrono (resumen/baja): guardar ticket y esperar el sondeo.
		doc.TicketSunat = result.Ticket
		uc.log.Info().Str("document_id", doc.ID).Str("ticket", result.Ticket).
			Msg("envío aceptado con ticket, acuse pendiente")

	case result.Accepted:
		if len(result.CDR) > 0 {
			name := "R-" + artifactName(company.RUC, doc) + ".zip"
			if path, err := uc.files.Save(ctx, name, result.CDR); err == nil {
				doc.CDRPath = path
			} else {
				uc.log.Warn().Err(err).Str("document_id", doc.ID).Msg("no se pudo guardar el CDR")
			}
		}
		doc.SunatStatus = entity.EstadoAccepted
		doc.SunatErrors = ""
		uc.log.Info().Str("document_id", doc.ID).Str("numero", doc.Numero()).Msg("aceptado por SUNAT")
		if doc.TipoDoc == sunat.DocTipoBaja {
			uc.voidTargets(ctx, doc)
		}

	case result.Rejected:
		doc.SunatStatus = entity.EstadoRejected
		doc.SunatErrors = result.Errors
		uc.log.Warn().Str("document_id", doc.ID).Str("errores", result.Errors).Msg("rechazado por SUNAT")
	}

	if err := uc.docs.Update(ctx, doc); err != nil {
		return fmt.Errorf("persistir estado final %s: %w", doc.SunatStatus, err)
	}
	return nil
}

// pollTicket consulta el acuse de un envío asíncrono pendiente.
func (uc *EmitDocumentUseCase) pollTicket(ctx context.Context, doc *entity.FiscalDocument) error {
	company, err := uc.companies.GetByID(ctx, doc.CompanyID)
	if err != nil || company == nil {
		return fmt.Errorf("empresa %s no encontrada: %w", doc.CompanyID, domain.ErrNotFound)
	}
	creds, err := uc.vault.ResolveForTransport(ctx, doc.CompanyID, company.Environment())
	if err != nil {
		return uc.markError(ctx, doc, "credenciales", err.Error())
	}
	servicio := serviceFor(doc.TipoDoc)
	endpoint := uc.endpointFor(ctx, company, servicio)
	timeout := uc.resolver.Timeout(ctx, company, servicio)

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	result, err := uc.submitter.PollStatus(callCtx, doc.TicketSunat, endpoint, creds)
	if err != nil {
		if errors.Is(err, domain.ErrTransporte) {
			return err // el siguiente barrido vuelve a consultar
		}
		return uc.markError(ctx, doc, "consulta-ticket", err.Error())
	}
	if result.Pending {
		return nil // sigue en proceso en SUNAT
	}
	return uc.applyResult(ctx, doc, company, result)
}

// voidTargets marca VOIDED los documentos comunicados por una baja aceptada.
func (uc *EmitDocumentUseCase) voidTargets(ctx context.Context, baja *entity.FiscalDocument) {
	for _, it := range baja.BajaItems {
		corr, err := strconv.ParseUint(it.Correlativo, 10, 64)
		if err != nil {
			continue
		}
		target, err := uc.docs.GetByNumero(ctx, baja.CompanyID, it.TipoDocumento, it.Serie, corr)
		if err != nil || target == nil {
			uc.log.Warn().Str("baja_id", baja.ID).
				Str("numero", it.Serie+"-"+it.Correlativo).Msg("documento de la baja no encontrado")
			continue
		}
		if !entity.CanTransition(target.SunatStatus, entity.EstadoVoided) {
			uc.log.Warn().Str("document_id", target.ID).Str("estado", target.SunatStatus).
				Msg("documento no anulable desde su estado actual")
			continue
		}
		target.SunatStatus = entity.EstadoVoided
		target.UpdatedAt = uc.now()
		if err := uc.docs.Update(ctx, target); err != nil {
			uc.log.Error().Err(err).Str("document_id", target.ID).Msg("no se pudo marcar VOIDED")
		}
	}
}

// Status vista actual del documento para el caller.
func (uc *EmitDocumentUseCase) Status(ctx context.Context, documentID string) (*dto.DocumentResponse, error) {
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil || doc == nil {
		return nil, domain.ErrNotFound
	}
	return toResponse(doc), nil
}

func (uc *EmitDocumentUseCase) markError(ctx context.Context, doc *entity.FiscalDocument, step, msg string) error {
	doc.SunatStatus = entity.EstadoError
	doc.SunatErrors = msg
	doc.UpdatedAt = uc.now()
	if err := uc.docs.Update(ctx, doc); err != nil {
		uc.log.Error().Err(err).Str("document_id", doc.ID).Msg("no se pudo persistir ERROR")
	}
	uc.log.Error().Str("document_id", doc.ID).Str("paso", step).Str("detalle", msg).Msg("pipeline SUNAT en ERROR")
	return fmt.Errorf("documento %s en ERROR (%s): %s", doc.ID, step, msg)
}

func (uc *EmitDocumentUseCase) endpointFor(ctx context.Context, company *entity.Company, servicio string) string {
	// Las guías usan el API REST cuando está definido; el resto va por SOAP.
	if servicio == sunat.ServicioGuias {
		if api := uc.resolver.Resolve(ctx, company, servicio, sunat.AtributoAPIEndpoint); api != "" {
			return api
		}
	}
	return uc.resolver.Resolve(ctx, company, servicio, sunat.AtributoEndpoint)
}

func serviceFor(tipoDoc string) string {
	switch tipoDoc {
	case sunat.DocTipoGuiaRemision:
		return sunat.ServicioGuias
	case sunat.DocTipoRetencion:
		return sunat.ServicioRetenciones
	default:
		return sunat.ServicioFacturacion
	}
}

// artifactName convención {RUC}-{tipo}-{serie}-{numero}.
func artifactName(ruc string, doc *entity.FiscalDocument) string {
	return ruc + "-" + doc.TipoDoc + "-" + doc.Numero()
}

func toResponse(doc *entity.FiscalDocument) *dto.DocumentResponse {
	return &dto.DocumentResponse{
		ID:          doc.ID,
		TipoDoc:     doc.TipoDoc,
		Numero:      doc.Numero(),
		SunatStatus: doc.SunatStatus,
		Ticket:      doc.TicketSunat,
		SunatErrors: doc.SunatErrors,
		XMLPath:     doc.XMLPath,
		CDRPath:     doc.CDRPath,
		PDFPath:     doc.PDFPath,
	}
}
