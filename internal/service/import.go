package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tealeg/xlsx"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/validator"
)

// Spreadsheet columns, in order.
const (
	colTitle = iota
	colDescription
	colPrice
	colDiscountedPrice
	colDiscountPercentage
	colQuantity
	colBrand
	colColor
	colSizes
	colImageURL
	colTopLevelCategory
	colSecondLevelCategory
	colThirdLevelCategory
	importColumns
)

// ImportRowError explains why a spreadsheet row was skipped. Row is 1-based
// as shown in spreadsheet tools.
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult summarizes a spreadsheet import.
type ImportResult struct {
	Created int              `json:"created"`
	Skipped int              `json:"skipped"`
	Errors  []ImportRowError `json:"errors,omitempty"`
}

// ImportProducts creates a product for every valid row of the first sheet.
// The first row is a header. Invalid rows are skipped and reported; a
// storage failure aborts the import.
func (s *ProductService) ImportProducts(ctx context.Context, r io.ReaderAt, size int64) (*ImportResult, error) {
	file, err := xlsx.OpenReaderAt(r, size)
	if err != nil {
		return nil, apperrors.InvalidInput("file is not a readable xlsx spreadsheet")
	}
	if len(file.Sheets) == 0 || len(file.Sheets[0].Rows) < 2 {
		return nil, apperrors.InvalidInput("spreadsheet is empty or missing the header row")
	}

	result := &ImportResult{}
	for i, row := range file.Sheets[0].Rows[1:] {
		rowNum := i + 2
		if row == nil || isBlankRow(row) {
			continue
		}

		input, err := parseProductRow(row)
		if err == nil {
			_, err = s.CreateProduct(ctx, input)
		}
		if err != nil {
			if !isRowError(err) {
				return nil, fmt.Errorf("import row %d: %w", rowNum, err)
			}
			result.Skipped++
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		result.Created++
	}

	s.logger.InfoContext(ctx, "products imported",
		slog.Int("created", result.Created),
		slog.Int("skipped", result.Skipped),
	)
	return result, nil
}

// isRowError reports whether err is caused by the row content rather than
// the backing stores.
func isRowError(err error) bool {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		return true
	}
	return apperrors.KindOf(err) == apperrors.KindValidation
}

func isBlankRow(row *xlsx.Row) bool {
	for _, c := range row.Cells {
		if strings.TrimSpace(c.String()) != "" {
			return false
		}
	}
	return true
}

func parseProductRow(row *xlsx.Row) (*CreateProductInput, error) {
	get := func(i int) string {
		if i < len(row.Cells) {
			return strings.TrimSpace(row.Cells[i].String())
		}
		return ""
	}
	if len(row.Cells) < importColumns {
		return nil, apperrors.InvalidInput(fmt.Sprintf("expected %d columns, got %d", importColumns, len(row.Cells)))
	}

	price, err := parseInt(get(colPrice), "price")
	if err != nil {
		return nil, err
	}
	discounted, err := parseInt(get(colDiscountedPrice), "discountedPrice")
	if err != nil {
		return nil, err
	}
	percentage, err := parseInt(get(colDiscountPercentage), "discountPercentage")
	if err != nil {
		return nil, err
	}
	quantity, err := parseInt(get(colQuantity), "quantity")
	if err != nil {
		return nil, err
	}
	sizes, err := ParseSizes(get(colSizes))
	if err != nil {
		return nil, err
	}

	return &CreateProductInput{
		Title:               get(colTitle),
		Description:         get(colDescription),
		Price:               price,
		DiscountedPrice:     discounted,
		DiscountPercentage:  int(percentage),
		Quantity:            int(quantity),
		Brand:               get(colBrand),
		Color:               get(colColor),
		Sizes:               sizes,
		ImageURL:            get(colImageURL),
		TopLevelCategory:    get(colTopLevelCategory),
		SecondLevelCategory: get(colSecondLevelCategory),
		ThirdLevelCategory:  get(colThirdLevelCategory),
	}, nil
}

func parseInt(v, field string) (int64, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		// Spreadsheet tools often store whole numbers as floats.
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, apperrors.InvalidInput(fmt.Sprintf("%s must be a whole number, got %q", field, v))
		}
		n = int64(f)
	}
	return n, nil
}

// ParseSizes parses "S:10,M:5" into sizes. A bare name means quantity 0.
func ParseSizes(v string) ([]domain.Size, error) {
	sizes := []domain.Size{}
	if strings.TrimSpace(v) == "" {
		return sizes, nil
	}
	for _, part := range strings.Split(v, ",") {
		name, qty, hasQty := strings.Cut(strings.TrimSpace(part), ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid size entry %q", part))
		}
		size := domain.Size{Name: name}
		if hasQty {
			n, err := strconv.Atoi(strings.TrimSpace(qty))
			if err != nil || n < 0 {
				return nil, apperrors.InvalidInput(fmt.Sprintf("invalid quantity for size %q", name))
			}
			size.Quantity = n
		}
		sizes = append(sizes, size)
	}
	return sizes, nil
}
