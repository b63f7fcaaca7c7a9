package service

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dhia7/weary-sub000/internal/repo"
)

type fakeSearcher struct {
	ids []uint
	err error
}

func (f *fakeSearcher) Search(context.Context, string, int, int) (int64, []uint, error) {
	return int64(len(f.ids)), f.ids, f.err
}

func newTestProductService(t *testing.T) (*ProductService, *fakeIndexer, *fakePublisher) {
	t.Helper()
	idx := &fakeIndexer{}
	pub := &fakePublisher{}
	return &ProductService{Repo: newRepo(t), Indexer: idx, Events: pub}, idx, pub
}

func TestProductService_CreateDerivesSlugAndSumsSizes(t *testing.T) {
	svc, idx, pub := newTestProductService(t)
	ctx := context.Background()

	cat, err := (&CategoryService{Repo: svc.Repo}).Create(ctx, CategoryInput{Name: strPtr("T-Shirts")})
	require.NoError(t, err)
	assert.Equal(t, "t-shirts", cat.Slug)

	p, err := svc.Create(ctx, ProductInput{
		Name:        strPtr("Classic Tee"),
		SKU:         strPtr("TEE-001"),
		Price:       decPtr("19.99"),
		SizeStock:   map[string]int{"S": 2, "M": 5},
		CategoryIDs: []uint{cat.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "classic-tee", p.Slug)
	assert.Equal(t, 7, p.Stock)
	assert.True(t, p.IsActive)
	require.Len(t, p.Categories, 1)
	assert.Equal(t, cat.ID, p.Categories[0].ID)

	assert.Equal(t, []uint{p.ID}, idx.indexed)
	assert.Equal(t, []string{"product_created"}, pub.types())
}

func TestProductService_UniqueSKUAndSlug(t *testing.T) {
	svc, _, _ := newTestProductService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, ProductInput{Name: strPtr("Hoodie"), SKU: strPtr("H-1"), Price: decPtr("40")})
	require.NoError(t, err)

	_, err = svc.Create(ctx, ProductInput{Name: strPtr("Other"), SKU: strPtr("H-1"), Price: decPtr("40")})
	require.ErrorIs(t, err, ErrConflict)

	_, err = svc.Create(ctx, ProductInput{Name: strPtr("Hoodie"), SKU: strPtr("H-2"), Price: decPtr("40")})
	require.ErrorIs(t, err, ErrConflict)
}

func TestProductService_CreateValidation(t *testing.T) {
	svc, _, _ := newTestProductService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, ProductInput{Name: strPtr("No price"), SKU: strPtr("NP")})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, ProductInput{Name: strPtr("Neg"), SKU: strPtr("NEG"), Price: decPtr("-1")})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, ProductInput{Name: strPtr("Bad size"), SKU: strPtr("BS"), Price: decPtr("1"), SizeStock: map[string]int{"S": -1}})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, ProductInput{Name: strPtr("Ghost cat"), SKU: strPtr("GC"), Price: decPtr("1"), CategoryIDs: []uint{999}})
	require.ErrorIs(t, err, ErrValidation)
}

func TestProductService_ListFiltersAndSorts(t *testing.T) {
	svc, _, _ := newTestProductService(t)
	ctx := context.Background()

	cheap := seedProduct(t, svc.Repo, "A", "5.00", 3, nil)
	mid := seedProduct(t, svc.Repo, "B", "15.00", 3, map[string]int{"M": 3})
	pricey := seedProduct(t, svc.Repo, "C", "50.00", 3, nil)
	hidden := seedProduct(t, svc.Repo, "D", "25.00", 3, nil)
	_, err := svc.Update(ctx, hidden.ID, ProductInput{IsActive: boolPtr(false)})
	require.NoError(t, err)

	all, err := svc.List(ctx, ProductQuery{Filter: repo.ProductFilter{Sort: repo.SortPriceAsc}})
	require.NoError(t, err)
	require.Len(t, all.Items, 3)
	assert.Equal(t, []uint{cheap.ID, mid.ID, pricey.ID}, []uint{all.Items[0].ID, all.Items[1].ID, all.Items[2].ID})
	assert.Equal(t, int64(3), all.Pagination.Total)

	lo, hi := 10.0, 20.0
	ranged, err := svc.List(ctx, ProductQuery{Filter: repo.ProductFilter{MinPrice: &lo, MaxPrice: &hi}})
	require.NoError(t, err)
	require.Len(t, ranged.Items, 1)
	assert.Equal(t, mid.ID, ranged.Items[0].ID)

	sized, err := svc.List(ctx, ProductQuery{Filter: repo.ProductFilter{Size: "M"}})
	require.NoError(t, err)
	require.Len(t, sized.Items, 1)
	assert.Equal(t, mid.ID, sized.Items[0].ID)

	paged, err := svc.List(ctx, ProductQuery{Page: 2, Limit: 2, Filter: repo.ProductFilter{Sort: repo.SortPriceDesc}})
	require.NoError(t, err)
	require.Len(t, paged.Items, 1)
	assert.Equal(t, cheap.ID, paged.Items[0].ID)
	assert.False(t, paged.Pagination.HasNext)
	assert.True(t, paged.Pagination.HasPrev)

	admin, err := svc.List(ctx, ProductQuery{Filter: repo.ProductFilter{IncludeInactive: true}})
	require.NoError(t, err)
	assert.Len(t, admin.Items, 4)
}

func TestProductService_GetByIDOrSlug(t *testing.T) {
	svc, _, _ := newTestProductService(t)
	ctx := context.Background()
	p := seedProduct(t, svc.Repo, "G", "9.99", 1, nil)

	byID, err := svc.Get(ctx, strconv.FormatUint(uint64(p.ID), 10), false)
	require.NoError(t, err)
	assert.Equal(t, p.ID, byID.ID)

	bySlug, err := svc.Get(ctx, p.Slug, false)
	require.NoError(t, err)
	assert.Equal(t, p.ID, bySlug.ID)

	_, err = svc.Get(ctx, "nope", false)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(ctx, p.ID, ProductInput{IsActive: boolPtr(false)})
	require.NoError(t, err)
	_, err = svc.Get(ctx, p.Slug, false)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Get(ctx, p.Slug, true)
	require.NoError(t, err)
}

func TestProductService_SearchFallsBackToDatabase(t *testing.T) {
	svc, _, _ := newTestProductService(t)
	ctx := context.Background()
	a := seedProduct(t, svc.Repo, "S1", "10", 1, nil)
	b := seedProduct(t, svc.Repo, "S2", "10", 1, nil)

	svc.Searcher = &fakeSearcher{ids: []uint{b.ID, a.ID}}
	res, err := svc.Search(ctx, "product", 1, 10)
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, b.ID, res.Items[0].ID)

	svc.Searcher = &fakeSearcher{err: errors.New("es down")}
	res, err = svc.Search(ctx, "s2", 1, 10)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, b.ID, res.Items[0].ID)

	_, err = svc.Search(ctx, "  ", 1, 10)
	require.ErrorIs(t, err, ErrValidation)
}

func TestProductService_DeleteUnindexes(t *testing.T) {
	svc, idx, _ := newTestProductService(t)
	ctx := context.Background()
	p := seedProduct(t, svc.Repo, "DEL", "1", 1, nil)

	require.NoError(t, svc.Delete(ctx, p.ID))
	assert.Equal(t, []uint{p.ID}, idx.deleted)
	require.ErrorIs(t, svc.Delete(ctx, p.ID), ErrNotFound)
}

func TestProductService_ExportImportRoundTrip(t *testing.T) {
	src, _, _ := newTestProductService(t)
	ctx := context.Background()
	_, err := src.Create(ctx, ProductInput{
		Name: strPtr("Tee"), SKU: strPtr("X-1"), Price: decPtr("12.50"),
		SizeStock: map[string]int{"S": 1, "L": 2},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, src.Export(ctx, &buf))
	require.NotZero(t, buf.Len())

	dst, _, _ := newTestProductService(t)
	res, err := dst.Import(ctx, bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Empty(t, res.Errors)

	p, err := dst.Repo.GetProductBySKU(ctx, "X-1")
	require.NoError(t, err)
	assert.Equal(t, "12.5", p.Price.String())
	assert.Equal(t, 3, p.Stock)
	assert.Equal(t, map[string]int{"S": 1, "L": 2}, p.Sizes())

	// importing the same sheet again updates in place
	res, err = dst.Import(ctx, bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 1, res.Updated)
}

func TestParseSizeStock(t *testing.T) {
	sizes, err := ParseSizeStock("S:1, M:2,")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"S": 1, "M": 2}, sizes)
	assert.Equal(t, "M:2,S:1", FormatSizeStock(sizes))

	_, err = ParseSizeStock("S=1")
	require.Error(t, err)
}
