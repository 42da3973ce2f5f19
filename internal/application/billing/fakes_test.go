package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/facturaperu/gestion-api/internal/domain"
	"github.com/facturaperu/gestion-api/internal/domain/entity"
	"github.com/facturaperu/gestion-api/internal/domain/repository"
	"github.com/facturaperu/gestion-api/pkg/logger"
	"github.com/facturaperu/gestion-api/pkg/sunat"
)

// Dobles en memoria de los puertos del paquete. Todos son seguros para uso
// concurrente: varios tests ejercitan carreras reales.

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "production", Level: "error"})
}

// ── Cache ─────────────────────────────────────────────────────────────────────

type memCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemCache() *memCache { return &memCache{m: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = value
}

func (c *memCache) DeletePrefix(_ context.Context, prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.m {
		if strings.HasPrefix(k, prefix) {
			delete(c.m, k)
		}
	}
}

// ── Documentos ────────────────────────────────────────────────────────────────

type fakeDocs struct {
	mu    sync.Mutex
	docs  map[string]*entity.FiscalDocument
	items map[string][]*entity.DocumentItem
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{
		docs:  make(map[string]*entity.FiscalDocument),
		items: make(map[string][]*entity.DocumentItem),
	}
}

func cloneDoc(d *entity.FiscalDocument) *entity.FiscalDocument {
	c := *d
	return &c
}

func (f *fakeDocs) Create(_ context.Context, doc *entity.FiscalDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.docs {
		if existing.CompanyID == doc.CompanyID && existing.TipoDoc == doc.TipoDoc &&
			existing.Serie == doc.Serie && existing.Correlativo == doc.Correlativo {
			return fmt.Errorf("%w: número ya tomado", domain.ErrConflicto)
		}
	}
	f.docs[doc.ID] = cloneDoc(doc)
	return nil
}

func (f *fakeDocs) CreateItem(_ context.Context, item *entity.DocumentItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *item
	f.items[item.DocumentID] = append(f.items[item.DocumentID], &c)
	return nil
}

func (f *fakeDocs) GetByID(_ context.Context, id string) (*entity.FiscalDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[id]
	if !ok {
		return nil, nil
	}
	return cloneDoc(d), nil
}

func (f *fakeDocs) GetByNumero(_ context.Context, companyID, tipoDoc, serie string, correlativo uint64) (*entity.FiscalDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.docs {
		if d.CompanyID == companyID && d.TipoDoc == tipoDoc && d.Serie == serie && d.Correlativo == correlativo {
			return cloneDoc(d), nil
		}
	}
	return nil, nil
}

func (f *fakeDocs) GetItems(_ context.Context, documentID string) ([]*entity.DocumentItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[documentID], nil
}

func (f *fakeDocs) Update(_ context.Context, doc *entity.FiscalDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[doc.ID]; !ok {
		return domain.ErrNotFound
	}
	f.docs[doc.ID] = cloneDoc(doc)
	return nil
}

func (f *fakeDocs) ListPendientes(_ context.Context, olderThan time.Time, limit int) ([]*entity.FiscalDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.FiscalDocument
	for _, d := range f.docs {
		if len(out) >= limit {
			break
		}
		if (d.SunatStatus == entity.EstadoPending || d.SunatStatus == entity.EstadoSubmitting) &&
			d.UpdatedAt.Before(olderThan) {
			out = append(out, cloneDoc(d))
		}
	}
	return out, nil
}

func (f *fakeDocs) ListBoletasParaResumen(_ context.Context, companyID string, fecha time.Time) ([]*entity.FiscalDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.FiscalDocument
	for _, d := range f.docs {
		if d.CompanyID == companyID && d.TipoDoc == sunat.DocTipoBoleta &&
			!d.IncluidaEnResumen && d.SunatStatus != entity.EstadoVoided &&
			!d.FechaEmision.After(fecha.Add(24*time.Hour)) {
			out = append(out, cloneDoc(d))
		}
	}
	return out, nil
}

func (f *fakeDocs) MarcarIncluidasEnResumen(_ context.Context, documentIDs []string, resumenID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range documentIDs {
		if d, ok := f.docs[id]; ok && !d.IncluidaEnResumen {
			d.IncluidaEnResumen = true
			d.ResumenID = resumenID
		}
	}
	return nil
}

// ── Correlativos ──────────────────────────────────────────────────────────────

type fakeCorrelativos struct {
	mu       sync.Mutex
	counters map[string]uint64
	// conflictos fuerza ErrConflicto en las próximas n reservas.
	conflictos int
}

func newFakeCorrelativos() *fakeCorrelativos {
	return &fakeCorrelativos{counters: make(map[string]uint64)}
}

func correlativeKey(branchID, tipoDoc, serie string) string {
	return branchID + "|" + tipoDoc + "|" + serie
}

func (f *fakeCorrelativos) ReserveRange(_ context.Context, branchID, tipoDoc, serie string, count uint64) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conflictos > 0 {
		f.conflictos--
		return 0, fmt.Errorf("%w: carrera simulada", domain.ErrConflicto)
	}
	key := correlativeKey(branchID, tipoDoc, serie)
	f.counters[key] += count
	return f.counters[key] - count + 1, nil
}

func (f *fakeCorrelativos) Current(_ context.Context, branchID, tipoDoc, serie string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counters[correlativeKey(branchID, tipoDoc, serie)], nil
}

// ── Credenciales ──────────────────────────────────────────────────────────────

type fakeCreds struct {
	mu   sync.Mutex
	rows map[string]*entity.CredentialSet // companyID|ambiente
}

func newFakeCreds() *fakeCreds { return &fakeCreds{rows: make(map[string]*entity.CredentialSet)} }

func credKey(companyID, ambiente string) string { return companyID + "|" + ambiente }

func (f *fakeCreds) Get(_ context.Context, companyID, ambiente string) (*entity.CredentialSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[credKey(companyID, ambiente)]
	if !ok {
		return nil, nil
	}
	c := *row
	return &c, nil
}

func (f *fakeCreds) Upsert(_ context.Context, companyID, ambiente string, fields map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := credKey(companyID, ambiente)
	row, ok := f.rows[key]
	if !ok {
		row = &entity.CredentialSet{CompanyID: companyID, Ambiente: ambiente}
		f.rows[key] = row
	}
	for k, v := range fields {
		switch k {
		case entity.CredClientID:
			row.ClientID = v
		case entity.CredClientSecret:
			row.ClientSecret = v
		case entity.CredRUCProveedor:
			row.RUCProveedor = v
		case entity.CredUsuarioSOL:
			row.UsuarioSOL = v
		case entity.CredClaveSOL:
			row.ClaveSOL = v
		}
	}
	return nil
}

func (f *fakeCreds) ClearAPI(_ context.Context, companyID, ambiente string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[credKey(companyID, ambiente)]; ok {
		row.ClientID = ""
		row.ClientSecret = ""
	}
	return nil
}

// ── Configuración ─────────────────────────────────────────────────────────────

type fakeConfigs struct {
	mu   sync.Mutex
	rows []*entity.ConfigurationEntry
}

func newFakeConfigs() *fakeConfigs { return &fakeConfigs{} }

func (f *fakeConfigs) GetEntry(_ context.Context, companyID, configType, ambiente, serviceType string) (*entity.ConfigurationEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.rows {
		if e.CompanyID == companyID && e.ConfigType == configType &&
			e.Ambiente == ambiente && e.ServiceType == serviceType && e.Active {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeConfigs) ListByCompany(_ context.Context, companyID string) ([]*entity.ConfigurationEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.ConfigurationEntry
	for _, e := range f.rows {
		if e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeConfigs) Upsert(_ context.Context, entry *entity.ConfigurationEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.rows {
		if e.CompanyID == entry.CompanyID && e.ConfigType == entry.ConfigType &&
			e.Ambiente == entry.Ambiente && e.ServiceType == entry.ServiceType {
			f.rows[i] = entry
			return nil
		}
	}
	f.rows = append(f.rows, entry)
	return nil
}

func (f *fakeConfigs) CountByCompany(_ context.Context, companyID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.rows {
		if e.CompanyID == companyID {
			n++
		}
	}
	return n, nil
}

func (f *fakeConfigs) CreateBatch(_ context.Context, entries []*entity.ConfigurationEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, entries...)
	return nil
}

// ── Empresas y sucursales ─────────────────────────────────────────────────────

type fakeCompanies struct {
	mu   sync.Mutex
	rows map[string]*entity.Company
}

func newFakeCompanies(companies ...*entity.Company) *fakeCompanies {
	f := &fakeCompanies{rows: make(map[string]*entity.Company)}
	for _, c := range companies {
		f.rows[c.ID] = c
	}
	return f
}

func (f *fakeCompanies) GetByID(_ context.Context, id string) (*entity.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cc := *c
	return &cc, nil
}

func (f *fakeCompanies) Update(_ context.Context, company *entity.Company) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cc := *company
	f.rows[company.ID] = &cc
	return nil
}

type fakeBranches struct {
	rows map[string]*entity.Branch
}

func newFakeBranches(branches ...*entity.Branch) *fakeBranches {
	f := &fakeBranches{rows: make(map[string]*entity.Branch)}
	for _, b := range branches {
		f.rows[b.ID] = b
	}
	return f
}

func (f *fakeBranches) GetByID(_ context.Context, id string) (*entity.Branch, error) {
	b, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return b, nil
}

func (f *fakeBranches) ListByCompany(_ context.Context, companyID string) ([]*entity.Branch, error) {
	var out []*entity.Branch
	for _, b := range f.rows {
		if b.CompanyID == companyID {
			out = append(out, b)
		}
	}
	return out, nil
}

// ── Transacciones ─────────────────────────────────────────────────────────────

// fakeTxRunner pasa los repositorios compartidos directamente; la atomicidad
// real la cubren los tests de integración del paquete postgres.
type fakeTxRunner struct {
	docs         *fakeDocs
	correlativos *fakeCorrelativos
}

func (f *fakeTxRunner) RunEmision(ctx context.Context, fn func(
	docs repository.DocumentRepository,
	correlativos repository.CorrelativeRepository,
) error) error {
	return fn(f.docs, f.correlativos)
}

// ── Pipeline SUNAT ────────────────────────────────────────────────────────────

type submitCall struct {
	zipName  string
	endpoint string
	creds    entity.CredentialSet
}

type fakeSubmitter struct {
	mu      sync.Mutex
	results []*SubmitResult
	errs    []error
	calls   []submitCall
	polls   []string
}

func (f *fakeSubmitter) queue(r *SubmitResult, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, r)
	f.errs = append(f.errs, err)
}

func (f *fakeSubmitter) next() (*SubmitResult, error) {
	if len(f.results) == 0 {
		return &SubmitResult{Accepted: true}, nil
	}
	r, err := f.results[0], f.errs[0]
	f.results, f.errs = f.results[1:], f.errs[1:]
	return r, err
}

func (f *fakeSubmitter) Submit(_ context.Context, _ []byte, zipName, endpoint string, creds entity.CredentialSet) (*SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, submitCall{zipName: zipName, endpoint: endpoint, creds: creds})
	return f.next()
}

func (f *fakeSubmitter) PollStatus(_ context.Context, ticket, _ string, _ entity.CredentialSet) (*SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls = append(f.polls, ticket)
	return f.next()
}

type fakeXMLBuilder struct{ err error }

func (f *fakeXMLBuilder) Build(doc *entity.FiscalDocument, _ []*entity.DocumentItem, _ *entity.Company, _ *entity.Branch) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("<Invoice>" + doc.Numero() + "</Invoice>"), nil
}

type fakeSigner struct{ err error }

func (f *fakeSigner) Sign(xmlBytes []byte) ([]byte, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return xmlBytes, "DIGEST-DE-PRUEBA", nil
}

type fakeFiles struct {
	mu    sync.Mutex
	saved map[string][]byte
}

func newFakeFiles() *fakeFiles { return &fakeFiles{saved: make(map[string][]byte)} }

func (f *fakeFiles) Save(_ context.Context, relPath string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := "/artefactos/" + relPath
	f.saved[path] = data
	return path, nil
}

func (f *fakeFiles) Read(_ context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.saved[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

type fakeProber struct {
	status  int
	latency time.Duration
	err     error
}

func (f *fakeProber) Probe(_ context.Context, _ string, _ time.Duration) (int, time.Duration, error) {
	return f.status, f.latency, f.err
}

type fakeRenderer struct{}

func (fakeRenderer) Render(_ context.Context, _ *entity.FiscalDocument, _ []*entity.DocumentItem, _ *entity.Company, _ string) ([]byte, error) {
	return []byte("%PDF-1.7"), nil
}

// ── Fixture ───────────────────────────────────────────────────────────────────

type fixture struct {
	docs         *fakeDocs
	correlativos *fakeCorrelativos
	creds        *fakeCreds
	configs      *fakeConfigs
	companies    *fakeCompanies
	branches     *fakeBranches
	submitter    *fakeSubmitter
	files        *fakeFiles
	cache        *memCache

	store    *ConfigStore
	resolver *EnvironmentResolver
	vault    *CredentialVault
	emit     *EmitDocumentUseCase
}

const (
	testCompanyID = "11111111-1111-4111-8111-111111111111"
	testBranchID  = "22222222-2222-4222-8222-222222222222"
	testUserID    = "33333333-3333-4333-8333-333333333333"
)

// newFixture arma el caso de uso de emisión con todos los dobles. El envío
// automático queda deshabilitado para que los tests conduzcan el pipeline de
// forma síncrona vía Process.
func newFixture() *fixture {
	f := &fixture{
		docs:         newFakeDocs(),
		correlativos: newFakeCorrelativos(),
		creds:        newFakeCreds(),
		configs:      newFakeConfigs(),
		submitter:    &fakeSubmitter{},
		files:        newFakeFiles(),
		cache:        newMemCache(),
	}
	f.companies = newFakeCompanies(&entity.Company{
		ID: testCompanyID, RUC: "20601030013", RazonSocial: "ACME SAC", ProductionMode: false,
	})
	f.branches = newFakeBranches(&entity.Branch{
		ID: testBranchID, CompanyID: testCompanyID, Codigo: "0000",
	})

	facturacion, _ := json.Marshal(entity.FacturacionConfig{
		IGVPorcentaje: 18, EnviarAuto: false, Reintentos: 3, FormatoPDFDefecto: "A4",
	})
	f.configs.rows = append(f.configs.rows, &entity.ConfigurationEntry{
		ID: "cfg-1", CompanyID: testCompanyID, ConfigType: entity.ConfigTipoFacturacion,
		Ambiente: sunat.AmbienteGeneral, Payload: facturacion, Active: true,
	})

	log := testLogger()
	f.store = NewConfigStore(f.configs, f.cache, log)
	f.resolver = NewEnvironmentResolver(f.store)
	f.vault = NewCredentialVault(f.creds, f.cache, f.resolver, &fakeProber{status: 200}, log)
	f.emit = NewEmitDocumentUseCase(
		&fakeTxRunner{docs: f.docs, correlativos: f.correlativos},
		f.docs, f.companies, f.branches,
		f.store, f.vault, f.resolver,
		&fakeXMLBuilder{}, &fakeSigner{}, f.submitter, f.files, log,
	)
	return f
}
