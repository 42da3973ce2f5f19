package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/facturaperu/gestion-api/internal/domain"
	"github.com/facturaperu/gestion-api/internal/domain/entity"
)

// DocumentRepository implementación PostgreSQL de repository.DocumentRepository.
// Los datos de guía y los ítems de baja se persisten como JSONB: son
// estructuras que solo el comprobante dueño lee y escribe.
type DocumentRepository struct {
	q Querier
}

func NewDocumentRepository(q Querier) *DocumentRepository {
	return &DocumentRepository{q: q}
}

const documentColumns = `
	id, company_id, branch_id, tipo_doc, serie, correlativo, moneda, fecha_emision,
	COALESCE(cliente_tipo_doc, ''), COALESCE(cliente_num_doc, ''), COALESCE(cliente_razon_social, ''),
	total_gravado, total_igv, total_venta,
	COALESCE(doc_afectado_tipo, ''), COALESCE(doc_afectado_numero, ''),
	COALESCE(cod_motivo, ''), COALESCE(des_motivo, ''),
	guia_data, fecha_referencia, baja_items,
	incluida_en_resumen, COALESCE(resumen_id, ''),
	sunat_status, COALESCE(ticket_sunat, ''), COALESCE(sunat_errors, ''), intentos,
	COALESCE(xml_path, ''), COALESCE(cdr_path, ''), COALESCE(pdf_path, ''), COALESCE(hash, ''),
	COALESCE(created_by, ''), created_at, updated_at`

func (r *DocumentRepository) Create(ctx context.Context, d *entity.FiscalDocument) error {
	guiaJSON, bajaJSON, err := marshalDocumentJSON(d)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO fiscal_documents (
			id, company_id, branch_id, tipo_doc, serie, correlativo, moneda, fecha_emision,
			cliente_tipo_doc, cliente_num_doc, cliente_razon_social,
			total_gravado, total_igv, total_venta,
			doc_afectado_tipo, doc_afectado_numero, cod_motivo, des_motivo,
			guia_data, fecha_referencia, baja_items,
			incluida_en_resumen, resumen_id,
			sunat_status, ticket_sunat, sunat_errors, intentos,
			xml_path, cdr_path, pdf_path, hash,
			created_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11,
			$12, $13, $14,
			$15, $16, $17, $18,
			$19, $20, $21,
			$22, $23,
			$24, $25, $26, $27,
			$28, $29, $30, $31,
			$32, $33, $34
		)`

	_, err = r.q.Exec(ctx, query,
		d.ID, d.CompanyID, d.BranchID, d.TipoDoc, d.Serie, d.Correlativo, d.Moneda, d.FechaEmision,
		nullIfEmpty(d.ClienteTipoDoc), nullIfEmpty(d.ClienteNumDoc), nullIfEmpty(d.ClienteRazonSocial),
		d.TotalGravado, d.TotalIGV, d.TotalVenta,
		nullIfEmpty(d.DocAfectadoTipo), nullIfEmpty(d.DocAfectadoNumero),
		nullIfEmpty(d.CodMotivo), nullIfEmpty(d.DesMotivo),
		guiaJSON, d.FechaReferencia, bajaJSON,
		d.IncluidaEnResumen, nullIfEmpty(d.ResumenID),
		d.SunatStatus, nullIfEmpty(d.TicketSunat), nullIfEmpty(d.SunatErrors), d.Intentos,
		nullIfEmpty(d.XMLPath), nullIfEmpty(d.CDRPath), nullIfEmpty(d.PDFPath), nullIfEmpty(d.Hash),
		nullIfEmpty(d.CreatedBy), d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		// Número ya tomado: el llamador reserva otro correlativo y reintenta.
		if isUniqueViolation(err) {
			return domain.ErrConflicto
		}
		return fmt.Errorf("insertar documento: %w", err)
	}
	return nil
}

func (r *DocumentRepository) CreateItem(ctx context.Context, it *entity.DocumentItem) error {
	const query = `
		INSERT INTO document_items (
			id, document_id, codigo, descripcion, unidad, cantidad,
			valor_unitario, cod_afectacion, subtotal, igv, total
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.q.Exec(ctx, query,
		it.ID, it.DocumentID, nullIfEmpty(it.Codigo), it.Descripcion, it.Unidad,
		it.Cantidad, it.ValorUnitario, it.CodAfectacion, it.Subtotal, it.IGV, it.Total,
	)
	if err != nil {
		return fmt.Errorf("insertar línea: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*entity.FiscalDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM fiscal_documents WHERE id = $1`
	return r.scanOne(r.q.QueryRow(ctx, query, id))
}

func (r *DocumentRepository) GetByNumero(ctx context.Context, companyID, tipoDoc, serie string, correlativo uint64) (*entity.FiscalDocument, error) {
	query := `SELECT ` + documentColumns + `
		FROM fiscal_documents
		WHERE company_id = $1 AND tipo_doc = $2 AND serie = $3 AND correlativo = $4`
	return r.scanOne(r.q.QueryRow(ctx, query, companyID, tipoDoc, serie, correlativo))
}

func (r *DocumentRepository) GetItems(ctx context.Context, documentID string) ([]*entity.DocumentItem, error) {
	const query = `
		SELECT id, document_id, COALESCE(codigo, ''), descripcion, unidad, cantidad,
		       valor_unitario, cod_afectacion, subtotal, igv, total
		FROM document_items
		WHERE document_id = $1
		ORDER BY id`

	rows, err := r.q.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("listar líneas: %w", err)
	}
	defer rows.Close()

	var out []*entity.DocumentItem
	for rows.Next() {
		var it entity.DocumentItem
		if err := rows.Scan(
			&it.ID, &it.DocumentID, &it.Codigo, &it.Descripcion, &it.Unidad, &it.Cantidad,
			&it.ValorUnitario, &it.CodAfectacion, &it.Subtotal, &it.IGV, &it.Total,
		); err != nil {
			return nil, fmt.Errorf("escanear línea: %w", err)
		}
		out = append(out, &it)
	}
	return out, rows.Err()
}

func (r *DocumentRepository) Update(ctx context.Context, d *entity.FiscalDocument) error {
	const query = `
		UPDATE fiscal_documents
		SET sunat_status = $2, ticket_sunat = $3, sunat_errors = $4, intentos = $5,
		    xml_path = $6, cdr_path = $7, pdf_path = $8, hash = $9,
		    incluida_en_resumen = $10, resumen_id = $11, updated_at = $12
		WHERE id = $1`

	tag, err := r.q.Exec(ctx, query,
		d.ID, d.SunatStatus, nullIfEmpty(d.TicketSunat), nullIfEmpty(d.SunatErrors), d.Intentos,
		nullIfEmpty(d.XMLPath), nullIfEmpty(d.CDRPath), nullIfEmpty(d.PDFPath), nullIfEmpty(d.Hash),
		d.IncluidaEnResumen, nullIfEmpty(d.ResumenID), d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("actualizar documento: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *DocumentRepository) ListPendientes(ctx context.Context, olderThan time.Time, limit int) ([]*entity.FiscalDocument, error) {
	query := `SELECT ` + documentColumns + `
		FROM fiscal_documents
		WHERE sunat_status IN ('PENDING', 'SUBMITTING') AND updated_at < $1
		ORDER BY updated_at
		LIMIT $2`

	rows, err := r.q.Query(ctx, query, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("listar pendientes: %w", err)
	}
	defer rows.Close()
	return r.scanMany(rows)
}

func (r *DocumentRepository) ListBoletasParaResumen(ctx context.Context, companyID string, fecha time.Time) ([]*entity.FiscalDocument, error) {
	query := `SELECT ` + documentColumns + `
		FROM fiscal_documents
		WHERE company_id = $1
		  AND tipo_doc = '03'
		  AND fecha_emision::date <= $2::date
		  AND NOT incluida_en_resumen
		  AND sunat_status NOT IN ('VOIDED')
		ORDER BY serie, correlativo`

	rows, err := r.q.Query(ctx, query, companyID, fecha)
	if err != nil {
		return nil, fmt.Errorf("listar boletas para resumen: %w", err)
	}
	defer rows.Close()
	return r.scanMany(rows)
}

func (r *DocumentRepository) MarcarIncluidasEnResumen(ctx context.Context, documentIDs []string, resumenID string) error {
	const query = `
		UPDATE fiscal_documents
		SET incluida_en_resumen = TRUE, resumen_id = $2, updated_at = NOW()
		WHERE id = ANY($1) AND NOT incluida_en_resumen`

	_, err := r.q.Exec(ctx, query, documentIDs, resumenID)
	if err != nil {
		return fmt.Errorf("marcar boletas incluidas: %w", err)
	}
	return nil
}

func (r *DocumentRepository) scanOne(row pgx.Row) (*entity.FiscalDocument, error) {
	d, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("escanear documento: %w", err)
	}
	return d, nil
}

func (r *DocumentRepository) scanMany(rows pgx.Rows) ([]*entity.FiscalDocument, error) {
	var out []*entity.FiscalDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("escanear documento: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDocument(row pgx.Row) (*entity.FiscalDocument, error) {
	var d entity.FiscalDocument
	var guiaJSON, bajaJSON []byte

	err := row.Scan(
		&d.ID, &d.CompanyID, &d.BranchID, &d.TipoDoc, &d.Serie, &d.Correlativo, &d.Moneda, &d.FechaEmision,
		&d.ClienteTipoDoc, &d.ClienteNumDoc, &d.ClienteRazonSocial,
		&d.TotalGravado, &d.TotalIGV, &d.TotalVenta,
		&d.DocAfectadoTipo, &d.DocAfectadoNumero, &d.CodMotivo, &d.DesMotivo,
		&guiaJSON, &d.FechaReferencia, &bajaJSON,
		&d.IncluidaEnResumen, &d.ResumenID,
		&d.SunatStatus, &d.TicketSunat, &d.SunatErrors, &d.Intentos,
		&d.XMLPath, &d.CDRPath, &d.PDFPath, &d.Hash,
		&d.CreatedBy, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(guiaJSON) > 0 {
		var g entity.GuiaRemisionData
		if err := json.Unmarshal(guiaJSON, &g); err != nil {
			return nil, fmt.Errorf("decodificar datos de guía: %w", err)
		}
		d.Guia = &g
	}
	if len(bajaJSON) > 0 {
		if err := json.Unmarshal(bajaJSON, &d.BajaItems); err != nil {
			return nil, fmt.Errorf("decodificar ítems de baja: %w", err)
		}
	}
	return &d, nil
}

func marshalDocumentJSON(d *entity.FiscalDocument) (guia, baja any, err error) {
	if d.Guia != nil {
		b, err := json.Marshal(d.Guia)
		if err != nil {
			return nil, nil, fmt.Errorf("codificar datos de guía: %w", err)
		}
		guia = b
	}
	if len(d.BajaItems) > 0 {
		b, err := json.Marshal(d.BajaItems)
		if err != nil {
			return nil, nil, fmt.Errorf("codificar ítems de baja: %w", err)
		}
		baja = b
	}
	return guia, baja, nil
}
