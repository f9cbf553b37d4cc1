package pipeline

import (
	"context"

	"github.com/cockroachdb/errors"

	"lobrecon/feature"
)

// CrossSectionalWorker normalizes one Store's CrossSectional fields, one
// time index at a time, polling the store's progress fence per §5's bounded
// wait rather than blocking on a condition variable. Each CrossSectional
// field's raw input lives in the same schema's TimeSeries range, per
// crossSectionalSources.
type CrossSectionalWorker struct {
	store     *feature.Store
	numAssets int
}

func NewCrossSectionalWorker(store *feature.Store, numAssets int) *CrossSectionalWorker {
	return &CrossSectionalWorker{store: store, numAssets: numAssets}
}

// Run walks every time index of date in order, waiting for every
// sequential worker to have advanced past it, then transforms each
// declared CrossSectional field before marking the date's pool slot done.
func (w *CrossSectionalWorker) Run(ctx context.Context, date string) error {
	schema := w.store.Schema()
	t := w.store.Level().T()

	for idx := 0; idx < t; idx++ {
		if err := w.store.WaitForTime(ctx, idx); err != nil {
			return errors.Wrapf(err, "wait for time %d", idx)
		}
		if err := w.transformOne(date, idx, schema); err != nil {
			return err
		}
	}
	return w.store.Pool().MarkCSDone(date)
}

func (w *CrossSectionalWorker) transformOne(date string, t int, schema *feature.Schema) error {
	for _, field := range schema.Fields() {
		if field.Kind != feature.KindCrossSectional {
			continue
		}
		rawCode, ok := crossSectionalSources[field.Code]
		if !ok {
			continue
		}
		rawOffset, ok := schema.Offset(rawCode)
		if !ok {
			return errors.Newf("cross-sectional field %s has no raw source %s in schema", field.Code, rawCode)
		}

		raw := make([]float32, w.numAssets)
		for a := 0; a < w.numAssets; a++ {
			v, err := w.store.ReadCell(date, t, rawOffset, a)
			if err != nil {
				return errors.Wrapf(err, "read %s at t=%d a=%d", rawCode, t, a)
			}
			raw[a] = v
		}

		transformed := applyNormalization(field.Normalization, raw)

		fOffset, _ := schema.Offset(field.Code)
		if err := w.store.WriteCrossSectional(date, t, fOffset, transformed); err != nil {
			return errors.Wrapf(err, "write %s at t=%d", field.Code, t)
		}
	}
	return nil
}

func applyNormalization(n feature.Normalization, values []float32) []float32 {
	switch n {
	case feature.NormZScore:
		return zscore(values)
	case feature.NormRank:
		return rank(values)
	case feature.NormInverseNormalCDF:
		return inverseNormalCDF(values)
	default:
		return values
	}
}
