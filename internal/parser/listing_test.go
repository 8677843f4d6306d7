package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/JakeFAU/productscraper/internal/product"
)

const listingHTML = `<!doctype html>
<html><body><ul class="products">
<li><div class="product-inner">
  <div class="mf-product-thumbnail"><a href="#"><img src="data:image/svg+xml,placeholder" data-lazy-src="https://cdn.shop.test/img/kurta.jpg"></a></div>
  <h2 class="woo-loop-product__title"> Cotton Kurta </h2>
  <span class="price"><del><span class="woocommerce-Price-amount">₹1,599</span></del><ins><span class="woocommerce-Price-amount">₹1,299</span></ins></span>
</div></li>
<li><div class="product-inner">
  <div class="mf-product-thumbnail"><img src="https://cdn.shop.test/img/saree.png"></div>
  <h2 class="woo-loop-product__title">Silk Saree</h2>
  <span class="price"><span class="woocommerce-Price-amount">₹450</span></span>
</div></li>
<li><div class="product-inner">
  <div class="mf-product-thumbnail"><img src="https://cdn.shop.test/img/scarf.jpg"></div>
  <h2 class="woo-loop-product__title">Scarf</h2>
</div></li>
<li><div class="product-inner">
  <div class="mf-product-thumbnail"><img src="https://cdn.shop.test/img/bag.jpg"></div>
  <span class="price"><span class="woocommerce-Price-amount">₹99</span></span>
</div></li>
<li><div class="product-inner">
  <h2 class="woo-loop-product__title">No Image</h2>
  <span class="price"><span class="woocommerce-Price-amount">₹10</span></span>
</div></li>
<li><div class="product-inner">
  <div class="mf-product-thumbnail"><img src="https://cdn.shop.test/img/icon.svg"></div>
  <h2 class="woo-loop-product__title">Vector</h2>
  <span class="price"><span class="woocommerce-Price-amount">₹5</span></span>
</div></li>
</ul></body></html>`

func TestExtractKeepsValidProductsInOrder(t *testing.T) {
	t.Parallel()

	records, err := New(zaptest.NewLogger(t)).Extract([]byte(listingHTML))
	require.NoError(t, err)

	assert.Equal(t, []product.Record{
		{Title: "Cotton Kurta", Price: 1299, ImagePath: "https://cdn.shop.test/img/kurta.jpg"},
		{Title: "Silk Saree", Price: 450, ImagePath: "https://cdn.shop.test/img/saree.png"},
		{Title: "Unknown", Price: 99, ImagePath: "https://cdn.shop.test/img/bag.jpg"},
	}, records)
}

func TestCandidatesApplyFallbacks(t *testing.T) {
	t.Parallel()

	candidates, err := New(nil).Candidates([]byte(listingHTML))
	require.NoError(t, err)
	require.Len(t, candidates, 6)

	assert.Equal(t, PriceNotAvailable, candidates[2].Price)
	assert.Equal(t, UnknownTitle, candidates[3].Title)
	assert.Empty(t, candidates[4].Image)
	assert.Equal(t, "1,299", candidates[0].Price)
}

func TestExtractEmptyPage(t *testing.T) {
	t.Parallel()

	records, err := New(nil).Extract([]byte(`<html><body><p>No products were found.</p></body></html>`))
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = New(nil).Extract(nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCustomSelectors(t *testing.T) {
	t.Parallel()

	sel := DefaultSelectors()
	sel.Product = "article.card"
	sel.Title = "h3"
	sel.Thumbnail = ".thumb"

	html := `<article class="card"><div class="thumb"><img src="https://x.test/a.webp"></div><h3>Card</h3>` +
		`<span class="woocommerce-Price-amount">₹7</span></article>`
	records, err := NewWithSelectors(sel, nil).Extract([]byte(html))
	require.NoError(t, err)
	assert.Equal(t, []product.Record{{Title: "Card", Price: 7, ImagePath: "https://x.test/a.webp"}}, records)
}
