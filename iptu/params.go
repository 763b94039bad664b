package iptu

// DefaultCidade is used when a call leaves the city empty
const DefaultCidade = "sp"

// Limits enforced before a request is sent
const (
	MaxBatchSize          = 100
	DefaultComparables    = 10
	MaxComparables        = 100
	DefaultSQLConcurrency = 4
)

// ConsultaEnderecoParams looks up a property by street address.
type ConsultaEnderecoParams struct {
	Logradouro         string `query:"logradouro" validate:"required"`
	Numero             string `query:"numero"`
	Cidade             string `query:"cidade" validate:"required,cidade"`
	IncluirHistorico   bool   `query:"incluir_historico"`
	IncluirComparaveis bool   `query:"incluir_comparaveis"`
	IncluirZoneamento  bool   `query:"incluir_zoneamento"`
}

// ConsultaSQLParams looks up a property by its SQL (taxpayer) number.
type ConsultaSQLParams struct {
	SQL                string `param:"sql" validate:"required"`
	Cidade             string `query:"cidade" validate:"required,cidade"`
	IncluirHistorico   bool   `query:"incluir_historico"`
	IncluirComparaveis bool   `query:"incluir_comparaveis"`
}

// ValuationParams describes one property to value. It is the body of
// ValuationEstimate and an element of ValuationBatch.
type ValuationParams struct {
	AreaTerreno    float64 `json:"area_terreno" validate:"gt=0"`
	AreaConstruida float64 `json:"area_construida" validate:"gt=0"`
	Bairro         string  `json:"bairro" validate:"required"`
	Zona           string  `json:"zona,omitempty"`
	TipoUso        string  `json:"tipo_uso,omitempty"`
	TipoPadrao     string  `json:"tipo_padrao,omitempty"`
	AnoConstrucao  int     `json:"ano_construcao,omitempty" validate:"omitempty,gte=1800"`
	Cidade         string  `json:"cidade" validate:"required,cidade"`
}

// ComparablesParams searches comparable properties in a neighbourhood.
// A zero Limit requests DefaultComparables results.
type ComparablesParams struct {
	Bairro  string  `query:"bairro" validate:"required"`
	AreaMin float64 `query:"area_min" validate:"gt=0"`
	AreaMax float64 `query:"area_max" validate:"gtefield=AreaMin"`
	Cidade  string  `query:"cidade" validate:"required,cidade"`
	Limit   int     `query:"limit" validate:"min=1,max=100"`
}

// IPCAParams corrects a value by the IPCA index between two months (YYYY-MM).
// An empty DataDestino means the current month.
type IPCAParams struct {
	Valor       float64 `query:"valor" validate:"gt=0"`
	DataOrigem  string  `query:"data_origem" validate:"required,year_month"`
	DataDestino string  `query:"data_destino" validate:"omitempty,year_month"`
}

// SimuladorParams compares paying the IPTU in full against instalments.
// ValorVenal, when set, lets the API check exemption eligibility too.
type SimuladorParams struct {
	ValorIPTU  float64  `json:"valor_iptu" validate:"gt=0"`
	Cidade     string   `json:"cidade" validate:"required,cidade"`
	ValorVenal *float64 `json:"valor_venal,omitempty" validate:"omitempty,gt=0"`
}

type batchParams struct {
	Imoveis []ValuationParams `json:"imoveis" validate:"required,min=1,max=100,dive"`
}

type cepParams struct {
	CEP    string `param:"cep" validate:"required,cep"`
	Cidade string `query:"cidade" validate:"required,cidade"`
}

type zoneamentoParams struct {
	Latitude  *float64 `query:"latitude" validate:"required,latitude"`
	Longitude *float64 `query:"longitude" validate:"required,longitude"`
}

type historicoParams struct {
	SQL    string `param:"sql" validate:"required"`
	Cidade string `query:"cidade" validate:"required,cidade"`
}

type cnpjParams struct {
	CNPJ string `param:"cnpj" validate:"required,cnpj"`
}

type cidadeParams struct {
	Cidade string `query:"cidade" validate:"required,cidade"`
}

type isencaoParams struct {
	ValorVenal float64 `query:"valor_venal" validate:"gt=0"`
	Cidade     string  `query:"cidade" validate:"required,cidade"`
}

type vencimentoParams struct {
	Cidade  string `query:"cidade" validate:"required,cidade"`
	Parcela int    `query:"parcela" validate:"min=1,max=12"`
}

func cidadeOrDefault(cidade string) string {
	if cidade == "" {
		return DefaultCidade
	}
	return cidade
}
