// Package iptu is the typed surface of the IPTU API: one method per endpoint,
// each validating its parameters before handing a request to the
// httpclient engine.
package iptu

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/iptuapi/iptuapi-go/config"
	"github.com/iptuapi/iptuapi-go/httpclient"
	"github.com/iptuapi/iptuapi-go/logger"
	"github.com/iptuapi/iptuapi-go/validation"
)

// Version is the client library version
const Version = httpclient.Version

// ErrNilConfig is returned by NewFromConfig when cfg is nil
var ErrNilConfig = errors.New("iptu: config is required")

// Client calls the IPTU API. It is safe for concurrent use.
type Client struct {
	http      *httpclient.Client
	validator *validation.Validator
	// shares in-flight reference data lookups between concurrent callers
	reference singleflight.Group
}

// Option customizes a Client built by NewFromConfig
type Option func(*httpclient.Config)

// WithTransport replaces the HTTP transport
func WithTransport(t httpclient.Transport) Option {
	return func(c *httpclient.Config) {
		c.Transport = t
	}
}

// WithLogger replaces the logger built from the log section
func WithLogger(l logger.Logger) Option {
	return func(c *httpclient.Config) {
		c.Logger = l
	}
}

// New creates a Client. A nil cfg uses httpclient.DefaultConfig.
func New(apiKey string, cfg *httpclient.Config) (*Client, error) {
	hc, err := httpclient.New(apiKey, cfg)
	if err != nil {
		return nil, err
	}
	return &Client{http: hc, validator: validation.Default()}, nil
}

// NewFromConfig creates a Client from loaded configuration.
//
//	cfg, err := config.Load()
//	if err != nil {
//		return err
//	}
//	client, err := iptu.NewFromConfig(cfg)
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	policy := cfg.Retry.Policy()
	hc := &httpclient.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		Retry:     &policy,
		UserAgent: cfg.API.UserAgent,
	}
	for _, opt := range opts {
		opt(hc)
	}
	if hc.Logger == nil {
		hc.Logger = logger.New(cfg.Log.Level, cfg.Log.Pretty)
	}

	return New(cfg.API.Key, hc)
}

// RateLimit returns the most recent rate-limit snapshot reported by the API.
func (c *Client) RateLimit() (httpclient.RateLimit, bool) {
	return c.http.RateLimit()
}

// LastRequestID returns the X-Request-ID of the most recent response.
func (c *Client) LastRequestID() string {
	return c.http.LastRequestID()
}

// ConsultaEndereco looks up a property by address. An empty Cidade means DefaultCidade.
func (c *Client) ConsultaEndereco(ctx context.Context, p ConsultaEnderecoParams) (*httpclient.Result, error) {
	p.Cidade = cidadeOrDefault(p.Cidade)
	return c.get(ctx, "/consulta/endereco", &p)
}

// ConsultaSQL looks up a property by SQL number. An empty Cidade means DefaultCidade.
func (c *Client) ConsultaSQL(ctx context.Context, p ConsultaSQLParams) (*httpclient.Result, error) {
	p.Cidade = cidadeOrDefault(p.Cidade)
	return c.get(ctx, "/consulta/sql/{sql}", &p)
}

// ConsultaSQLMany runs ConsultaSQL for every entry with at most concurrency
// calls in flight (DefaultSQLConcurrency when concurrency <= 0). All params
// are validated before any request is sent. Results are in input order; the
// first failure cancels the remaining calls and is returned.
func (c *Client) ConsultaSQLMany(ctx context.Context, params []ConsultaSQLParams, concurrency int) ([]*httpclient.Result, error) {
	prepared := make([]ConsultaSQLParams, len(params))
	for i, p := range params {
		p.Cidade = cidadeOrDefault(p.Cidade)
		if err := c.validator.Validate(&p); err != nil {
			return nil, fmt.Errorf("params[%d]: %w", i, err)
		}
		prepared[i] = p
	}
	if concurrency <= 0 {
		concurrency = DefaultSQLConcurrency
	}

	results := make([]*httpclient.Result, len(prepared))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range prepared {
		g.Go(func() error {
			res, err := c.send(gctx, "/consulta/sql/{sql}", &prepared[i])
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ConsultaCEP lists properties at a CEP. Formatting characters are stripped before sending.
func (c *Client) ConsultaCEP(ctx context.Context, cep, cidade string) (*httpclient.Result, error) {
	p := cepParams{CEP: cep, Cidade: cidadeOrDefault(cidade)}
	if err := c.validator.Validate(&p); err != nil {
		return nil, err
	}
	p.CEP = validation.Digits(p.CEP)
	return c.send(ctx, "/consulta/cep/{cep}", &p)
}

// ConsultaZoneamento returns the zoning of a coordinate.
func (c *Client) ConsultaZoneamento(ctx context.Context, latitude, longitude float64) (*httpclient.Result, error) {
	return c.get(ctx, "/consulta/zoneamento", &zoneamentoParams{Latitude: &latitude, Longitude: &longitude})
}

// ValuationEstimate estimates the market value of a property. Requires a Pro plan.
func (c *Client) ValuationEstimate(ctx context.Context, p ValuationParams) (*httpclient.Result, error) {
	return c.post(ctx, "/valuation/estimate", &p)
}

// ValuationBatch values up to MaxBatchSize properties in one call. Requires an Enterprise plan.
func (c *Client) ValuationBatch(ctx context.Context, imoveis []ValuationParams) (*httpclient.Result, error) {
	return c.post(ctx, "/valuation/estimate/batch", &batchParams{Imoveis: imoveis})
}

// ValuationComparables lists comparable properties. A zero Limit means DefaultComparables.
func (c *Client) ValuationComparables(ctx context.Context, p ComparablesParams) (*httpclient.Result, error) {
	p.Cidade = cidadeOrDefault(p.Cidade)
	if p.Limit == 0 {
		p.Limit = DefaultComparables
	}
	return c.get(ctx, "/valuation/comparables", &p)
}

// DadosIPTUHistorico returns the yearly IPTU history of a property.
func (c *Client) DadosIPTUHistorico(ctx context.Context, sql, cidade string) (*httpclient.Result, error) {
	return c.get(ctx, "/dados/iptu/historico/{sql}", &historicoParams{SQL: sql, Cidade: cidadeOrDefault(cidade)})
}

// DadosCNPJ returns registry data of a company. Formatting characters are stripped before sending.
func (c *Client) DadosCNPJ(ctx context.Context, cnpj string) (*httpclient.Result, error) {
	p := cnpjParams{CNPJ: cnpj}
	if err := c.validator.Validate(&p); err != nil {
		return nil, err
	}
	p.CNPJ = validation.Digits(p.CNPJ)
	return c.send(ctx, "/dados/cnpj/{cnpj}", &p)
}

// DadosIPCACorrigir corrects a value by the IPCA index.
func (c *Client) DadosIPCACorrigir(ctx context.Context, p IPCAParams) (*httpclient.Result, error) {
	return c.get(ctx, "/dados/ipca/corrigir", &p)
}

// IPTUToolsCidades lists the cities with an IPTU calendar. Concurrent calls share one request.
func (c *Client) IPTUToolsCidades(ctx context.Context) (*httpclient.Result, error) {
	return c.shared(ctx, "/iptu-tools/cidades", nil)
}

// IPTUToolsCalendario returns the IPTU calendar of a city. Concurrent calls
// for the same city share one request.
func (c *Client) IPTUToolsCalendario(ctx context.Context, cidade string) (*httpclient.Result, error) {
	p := cidadeParams{Cidade: cidadeOrDefault(cidade)}
	if err := c.validator.Validate(&p); err != nil {
		return nil, err
	}
	query, err := validation.EncodeQuery(&p)
	if err != nil {
		return nil, err
	}
	return c.shared(ctx, "/iptu-tools/calendario", query)
}

// IPTUToolsSimulador simulates paying in full against instalments.
func (c *Client) IPTUToolsSimulador(ctx context.Context, p SimuladorParams) (*httpclient.Result, error) {
	p.Cidade = cidadeOrDefault(p.Cidade)
	return c.post(ctx, "/iptu-tools/simulador", &p)
}

// IPTUToolsIsencao checks whether a property qualifies for exemption.
func (c *Client) IPTUToolsIsencao(ctx context.Context, valorVenal float64, cidade string) (*httpclient.Result, error) {
	return c.get(ctx, "/iptu-tools/isencao", &isencaoParams{ValorVenal: valorVenal, Cidade: cidadeOrDefault(cidade)})
}

// IPTUToolsProximoVencimento returns the next due date of an instalment (1 to 12).
// A zero parcela means the first instalment.
func (c *Client) IPTUToolsProximoVencimento(ctx context.Context, cidade string, parcela int) (*httpclient.Result, error) {
	if parcela == 0 {
		parcela = 1
	}
	return c.get(ctx, "/iptu-tools/proximo-vencimento", &vencimentoParams{Cidade: cidadeOrDefault(cidade), Parcela: parcela})
}

// get validates params, then sends them as path and query parameters
func (c *Client) get(ctx context.Context, pattern string, params any) (*httpclient.Result, error) {
	if err := c.validator.Validate(params); err != nil {
		return nil, err
	}
	return c.send(ctx, pattern, params)
}

// send expands pattern and encodes the query of already validated params
func (c *Client) send(ctx context.Context, pattern string, params any) (*httpclient.Result, error) {
	path, err := validation.ExpandPath(pattern, params)
	if err != nil {
		return nil, err
	}
	query, err := validation.EncodeQuery(params)
	if err != nil {
		return nil, err
	}
	return c.http.Get(ctx, path, query)
}

// post validates body and sends it as JSON
func (c *Client) post(ctx context.Context, path string, body any) (*httpclient.Result, error) {
	if err := c.validator.Validate(body); err != nil {
		return nil, err
	}
	return c.http.Post(ctx, path, body)
}

// shared collapses concurrent identical GETs into one call. The returned
// Result is shared between the callers and must be treated as read-only.
// The call keeps the starting caller's context values but not its
// cancellation; each caller stops waiting when its own ctx is done.
func (c *Client) shared(ctx context.Context, path string, query httpclient.Query) (*httpclient.Result, error) {
	key := path
	if len(query) > 0 {
		key += "?" + query.Encode()
	}
	detached := context.WithoutCancel(ctx)
	ch := c.reference.DoChan(key, func() (any, error) {
		return c.http.Get(detached, path, query)
	})

	select {
	case <-ctx.Done():
		return nil, httpclient.NewNetworkError("request canceled", ctx.Err()).WithRetryable(false)
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*httpclient.Result), nil
	}
}
