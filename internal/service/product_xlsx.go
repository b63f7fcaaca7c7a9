package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"

	"github.com/Dhia7/weary-sub000/pkg/logging"
)

var sheetHeaders = []string{
	"SKU", "Name", "Slug", "Description", "Price", "CompareAtPrice",
	"Stock", "SizeStock", "IsActive", "IsFeatured", "Categories", "Image",
}

const (
	colSKU = iota
	colName
	colSlug
	colDescription
	colPrice
	colCompareAt
	colStock
	colSizeStock
	colActive
	colFeatured
	colCategories
	colImage
)

type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// FormatSizeStock renders sizes as "M:3,S:2" in label order.
func FormatSizeStock(sizes map[string]int) string {
	keys := make([]string, 0, len(sizes))
	for k := range sizes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+":"+strconv.Itoa(sizes[k]))
	}
	return strings.Join(parts, ",")
}

func ParseSizeStock(s string) (map[string]int, error) {
	out := map[string]int{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		label, qty, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("size entry %q is not label:quantity", part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(qty))
		if err != nil {
			return nil, fmt.Errorf("size entry %q has a bad quantity", part)
		}
		out[strings.TrimSpace(label)] = n
	}
	return out, nil
}

func (s *ProductService) Export(ctx context.Context, w io.Writer) error {
	products, err := s.Repo.AllProducts(ctx)
	if err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return err
	}

	header := sheet.AddRow()
	for _, h := range sheetHeaders {
		header.AddCell().SetString(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetString(p.SKU)
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.Slug)
		row.AddCell().SetString(p.Description)
		row.AddCell().SetString(p.Price.StringFixed(2))
		if p.CompareAtPrice.Valid {
			row.AddCell().SetString(p.CompareAtPrice.Decimal.StringFixed(2))
		} else {
			row.AddCell().SetString("")
		}
		row.AddCell().SetInt(p.Stock)
		row.AddCell().SetString(FormatSizeStock(p.Sizes()))
		row.AddCell().SetString(strconv.FormatBool(p.IsActive))
		row.AddCell().SetString(strconv.FormatBool(p.IsFeatured))

		slugs := make([]string, 0, len(p.Categories))
		for _, c := range p.Categories {
			slugs = append(slugs, c.Slug)
		}
		row.AddCell().SetString(strings.Join(slugs, ","))
		row.AddCell().SetString(p.Image)
	}

	return file.Write(w)
}

// Import creates or updates products keyed by SKU, one sheet row at a time.
func (s *ProductService) Import(ctx context.Context, r io.ReaderAt, size int64) (*ImportResult, error) {
	l := logging.FromContext(ctx).With("svc", "product.import")

	file, err := xlsx.OpenReaderAt(r, size)
	if err != nil {
		return nil, fail(ErrValidation, "cannot read spreadsheet: %v", err)
	}
	if len(file.Sheets) == 0 || len(file.Sheets[0].Rows) < 2 {
		return nil, fail(ErrValidation, "spreadsheet is empty or missing a header row")
	}

	res := &ImportResult{Errors: []string{}}
	rows := file.Sheets[0].Rows
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if row == nil {
			continue
		}
		get := func(idx int) string {
			if idx < len(row.Cells) && row.Cells[idx] != nil {
				return strings.TrimSpace(row.Cells[idx].String())
			}
			return ""
		}
		if get(colSKU) == "" && get(colName) == "" {
			continue
		}

		created, err := s.importRow(ctx, get)
		if err != nil {
			res.Skipped++
			msg := Message(err)
			if msg == "" {
				msg = err.Error()
			}
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %s", i+1, msg))
			continue
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}

	l.Info("import_finished", "created", res.Created, "updated", res.Updated, "skipped", res.Skipped)
	return res, nil
}

func (s *ProductService) importRow(ctx context.Context, get func(int) string) (bool, error) {
	in := ProductInput{}
	str := func(v string) *string { return &v }

	sku := get(colSKU)
	if sku == "" {
		return false, fail(ErrValidation, "sku is required")
	}
	in.SKU = str(sku)
	if v := get(colName); v != "" {
		in.Name = str(v)
	}
	if v := get(colSlug); v != "" {
		in.Slug = str(v)
	}
	if v := get(colDescription); v != "" {
		in.Description = str(v)
	}
	if v := get(colPrice); v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil {
			return false, fail(ErrValidation, "price %q is not a number", v)
		}
		in.Price = &price
	}
	if v := get(colCompareAt); v != "" {
		cmp, err := decimal.NewFromString(v)
		if err != nil {
			return false, fail(ErrValidation, "compareAtPrice %q is not a number", v)
		}
		in.CompareAtPrice = &cmp
	}
	if v := get(colStock); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return false, fail(ErrValidation, "stock %q is not an integer", v)
		}
		in.Stock = &n
	}
	if v := get(colSizeStock); v != "" {
		sizes, err := ParseSizeStock(v)
		if err != nil {
			return false, fail(ErrValidation, "%v", err)
		}
		in.SizeStock = sizes
	}
	if v := get(colActive); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fail(ErrValidation, "isActive %q is not a boolean", v)
		}
		in.IsActive = &b
	}
	if v := get(colFeatured); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fail(ErrValidation, "isFeatured %q is not a boolean", v)
		}
		in.IsFeatured = &b
	}
	if v := get(colCategories); v != "" {
		var slugs []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				slugs = append(slugs, part)
			}
		}
		cats, err := s.Repo.CategoriesBySlugs(ctx, slugs)
		if err != nil {
			return false, err
		}
		if len(cats) != len(slugs) {
			return false, fail(ErrValidation, "unknown category in %q", v)
		}
		in.CategoryIDs = make([]uint, len(cats))
		for i, c := range cats {
			in.CategoryIDs[i] = c.ID
		}
	}
	if v := get(colImage); v != "" {
		in.Image = str(v)
	}

	existing, err := s.Repo.GetProductBySKU(ctx, sku)
	if err != nil && !isNotFound(err) {
		return false, err
	}
	if existing != nil {
		_, err := s.Update(ctx, existing.ID, in)
		return false, err
	}
	_, err = s.Create(ctx, in)
	return true, err
}
