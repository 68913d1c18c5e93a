package products

import (
	"errors"
	"sort"
	"time"

	"golang.org/x/exp/maps"

	"code.openwager.io/openwager/core/idgeneration"
	"code.openwager.io/openwager/libs/num"
	"code.openwager.io/openwager/logging"
)

var (
	ErrProductAlreadyExists = errors.New("product already exists")
	ErrProductNotFound      = errors.New("product not found")
	ErrProductInvalidRate   = errors.New("product commission rate must be in [0, 1)")
	ErrProductNotAuthorised = errors.New("product can only be updated by its authority")
)

// Engine is the commission product registry.
type Engine struct {
	Config
	log *logging.Logger

	products map[string]*Product
}

// New instantiates a new products engine.
func New(log *logging.Logger, config Config) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	return &Engine{
		Config:   config,
		log:      log,
		products: map[string]*Product{},
	}
}

// ReloadConf updates the internal configuration of the products engine.
func (e *Engine) ReloadConf(cfg Config) {
	e.log.Info("reloading configuration")
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.Info("updating log level",
			logging.String("old", e.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		e.log.SetLevel(cfg.Level.Get())
	}
	e.Config = cfg
}

// CreateProduct registers a product with its initial commission rate. The
// product id and its escrow account id are derived from the title and
// authority so recreation is rejected deterministically.
func (e *Engine) CreateProduct(title, authority string, rate num.Decimal, now time.Time) (*Product, error) {
	if err := validRate(rate); err != nil {
		return nil, err
	}
	id := idgeneration.ProductID(title, authority)
	if _, ok := e.products[id]; ok {
		return nil, ErrProductAlreadyExists
	}

	p := &Product{
		ID:        id,
		Title:     title,
		Authority: authority,
		EscrowID:  idgeneration.ProductEscrowID(id),
		history:   []RateChange{{Rate: rate, From: now}},
	}
	e.products[id] = p

	e.log.Info("product created",
		logging.String("product-id", p.ID),
		logging.String("title", title),
		logging.Decimal("rate", rate),
	)
	return p, nil
}

// UpdateRate appends a new commission rate to the product's history.
func (e *Engine) UpdateRate(id, authority string, rate num.Decimal, now time.Time) error {
	p, ok := e.products[id]
	if !ok {
		return ErrProductNotFound
	}
	if p.Authority != authority {
		return ErrProductNotAuthorised
	}
	if err := validRate(rate); err != nil {
		return err
	}
	p.history = append(p.history, RateChange{Rate: rate, From: now})

	e.log.Info("product rate updated",
		logging.String("product-id", id),
		logging.Decimal("rate", rate),
	)
	return nil
}

// Get returns the product for an id.
func (e *Engine) Get(id string) (*Product, error) {
	p, ok := e.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return p, nil
}

// Products returns all registered products sorted by id.
func (e *Engine) Products() []*Product {
	ids := maps.Keys(e.products)
	sort.Strings(ids)
	out := make([]*Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, e.products[id])
	}
	return out
}

func validRate(rate num.Decimal) error {
	if rate.IsNegative() || rate.GreaterThanOrEqual(num.DecimalOne()) {
		return ErrProductInvalidRate
	}
	return nil
}
