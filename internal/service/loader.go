package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"gorm.io/gorm/clause"
)

const loadBatchSize = 500

// LoadIngredients reads "name,measurement_unit" rows and inserts them in
// batches. Rows already in the catalog are skipped. It returns the number
// of inserted ingredients.
func (s *CatalogService) LoadIngredients(ctx context.Context, r io.Reader) (int64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		inserted int64
		line     int
		batch    = make([]models.Ingredient, 0, loadBatchSize)
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&batch)
		if result.Error != nil {
			return fmt.Errorf("failed to insert ingredients: %w", result.Error)
		}
		inserted += result.RowsAffected
		logging.Ctx(ctx).Debug().Int("line", line).Int64("inserted", inserted).Msg("ingredient batch loaded")
		batch = batch[:0]
		return nil
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return inserted, fmt.Errorf("line %d: %w", line, err)
		}
		if len(record) < 2 {
			return inserted, fmt.Errorf("line %d: expected name and measurement unit", line)
		}

		name := strings.TrimSpace(record[0])
		unit := strings.TrimSpace(record[1])
		if name == "" || unit == "" {
			logging.Ctx(ctx).Warn().Int("line", line).Msg("skipping incomplete ingredient row")
			continue
		}

		batch = append(batch, models.Ingredient{Name: name, MeasurementUnit: unit})
		if len(batch) == loadBatchSize {
			if err := flush(); err != nil {
				return inserted, err
			}
		}
	}

	if err := flush(); err != nil {
		return inserted, err
	}
	return inserted, nil
}
