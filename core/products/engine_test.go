package products_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.openwager.io/openwager/core/products"
	"code.openwager.io/openwager/libs/num"
	"code.openwager.io/openwager/logging"
)

func getTestEngine(t *testing.T) *products.Engine {
	t.Helper()
	return products.New(logging.NewTestLogger(), products.NewDefaultConfig())
}

func TestCreateProduct(t *testing.T) {
	e := getTestEngine(t)
	now := time.Now()

	p, err := e.CreateProduct("BETDAQ", "authority-1", num.DecimalFromFloat(0.05), now)
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.NotEmpty(t, p.EscrowID)
	assert.True(t, p.CurrentRate().Equal(num.DecimalFromFloat(0.05)))

	// same seeds, same id, rejected
	_, err = e.CreateProduct("BETDAQ", "authority-1", num.DecimalFromFloat(0.1), now)
	assert.ErrorIs(t, err, products.ErrProductAlreadyExists)

	// different authority derives a different id
	p2, err := e.CreateProduct("BETDAQ", "authority-2", num.DecimalFromFloat(0.1), now)
	require.NoError(t, err)
	assert.NotEqual(t, p.ID, p2.ID)
}

func TestCreateProductRejectsBadRate(t *testing.T) {
	e := getTestEngine(t)
	now := time.Now()

	_, err := e.CreateProduct("a", "auth", num.DecimalFromInt64(1), now)
	assert.ErrorIs(t, err, products.ErrProductInvalidRate)
	_, err = e.CreateProduct("a", "auth", num.DecimalFromInt64(-1), now)
	assert.ErrorIs(t, err, products.ErrProductInvalidRate)
}

func TestUpdateRateKeepsHistory(t *testing.T) {
	e := getTestEngine(t)
	t0 := time.Now()
	t1 := t0.Add(time.Hour)

	p, err := e.CreateProduct("BETDAQ", "auth", num.DecimalFromFloat(0.05), t0)
	require.NoError(t, err)

	require.NoError(t, e.UpdateRate(p.ID, "auth", num.DecimalFromFloat(0.1), t1))
	assert.True(t, p.CurrentRate().Equal(num.DecimalFromFloat(0.1)))

	// the historical rate is still resolvable for trades matched earlier
	assert.True(t, p.RateAt(t0.Add(time.Minute)).Equal(num.DecimalFromFloat(0.05)))
	assert.True(t, p.RateAt(t1.Add(time.Minute)).Equal(num.DecimalFromFloat(0.1)))
	assert.Len(t, p.History(), 2)
}

func TestUpdateRateAuthority(t *testing.T) {
	e := getTestEngine(t)
	now := time.Now()

	p, err := e.CreateProduct("BETDAQ", "auth", num.DecimalFromFloat(0.05), now)
	require.NoError(t, err)

	err = e.UpdateRate(p.ID, "someone-else", num.DecimalFromFloat(0.1), now)
	assert.ErrorIs(t, err, products.ErrProductNotAuthorised)

	err = e.UpdateRate("missing", "auth", num.DecimalFromFloat(0.1), now)
	assert.ErrorIs(t, err, products.ErrProductNotFound)
}
