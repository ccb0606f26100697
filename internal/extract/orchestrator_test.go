package extract

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-legal/extract-cli/internal/model"
)

// stubStrategy is a fixed-output strategy for orchestration tests.
type stubStrategy struct {
	name   string
	conf   int
	fields *model.ExtractedFields
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) CanExtract(ctx context.Context, text string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.conf > 0, nil
}

func (s *stubStrategy) Confidence(ctx context.Context, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.conf, nil
}

func (s *stubStrategy) Extract(ctx context.Context, text string) (*model.ExtractedFields, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.fields == nil {
		return nil, nil
	}
	return s.fields.Clone(), nil
}

func TestOrchestrator_StructuredDocumentEndToEnd(t *testing.T) {
	o := DefaultOrchestrator(DefaultTuning())
	ctx := context.Background()

	confs, err := o.Confidences(ctx, docStructured)
	require.NoError(t, err)
	require.Len(t, confs, 5)
	assert.Equal(t, NameStructured, confs[0].StrategyName)
	assert.Equal(t, 90, confs[0].Confidence)

	fields, err := o.Extract(ctx, docStructured, model.ModeBestStrategy, nil)
	require.NoError(t, err)
	require.NotNil(t, fields)
	assert.Equal(t, "A/AS1-2505-088637-PHM", fields.Expediente)
	assert.Equal(t, "Lavado de dinero", fields.Causa)
	assert.Equal(t, "Aseguramiento precautorio", fields.AccionSolicitada)
	require.Len(t, fields.Montos, 1)
	assert.Equal(t, "MXN", fields.Montos[0].Currency)
	assert.True(t, fields.Montos[0].Value.Equal(decimal.RequireFromString("100000")))
	assert.Equal(t, "$100,000.00 MXN", fields.Montos[0].OriginalText)
}

func TestOrchestrator_EmptyInput(t *testing.T) {
	o := DefaultOrchestrator(DefaultTuning())
	ctx := context.Background()

	confs, err := o.Confidences(ctx, "")
	require.NoError(t, err)
	require.Len(t, confs, 5, "every strategy reports, even at zero")
	for _, c := range confs {
		assert.Zero(t, c.Confidence, c.StrategyName)
	}

	for _, mode := range []model.ExtractionMode{model.ModeBestStrategy, model.ModeMergeAll, model.ModeComplement} {
		fields, err := o.Extract(ctx, "", mode, nil)
		require.NoError(t, err)
		assert.Nil(t, fields, "mode %s", mode)
	}
}

func TestOrchestrator_UnrelatedText(t *testing.T) {
	o := DefaultOrchestrator(DefaultTuning())
	ctx := context.Background()

	confs, err := o.Confidences(ctx, "Random unrelated text")
	require.NoError(t, err)
	for _, c := range confs {
		assert.Zero(t, c.Confidence, c.StrategyName)
	}

	for _, mode := range []model.ExtractionMode{model.ModeBestStrategy, model.ModeMergeAll} {
		fields, err := o.Extract(ctx, "Random unrelated text", mode, nil)
		require.NoError(t, err)
		assert.Nil(t, fields, "mode %s", mode)
	}
}

func TestOrchestrator_TableDocument(t *testing.T) {
	o := DefaultOrchestrator(DefaultTuning())
	ctx := context.Background()

	confs, err := o.Confidences(ctx, docTable)
	require.NoError(t, err)
	var tableConf int
	for _, c := range confs {
		if c.StrategyName == NameTable {
			tableConf = c.Confidence
		}
	}
	assert.GreaterOrEqual(t, tableConf, 85)

	fields, err := o.Extract(ctx, docTable, model.ModeBestStrategy, nil)
	require.NoError(t, err)
	require.NotNil(t, fields)
	assert.Equal(t, "A/AS1-2505-088637-PHM", fields.Expediente)
}

func TestOrchestrator_ComplementPreservesExistingFields(t *testing.T) {
	existing := model.NewExtractedFields()
	existing.Expediente = "EXISTING"

	o := DefaultOrchestrator(DefaultTuning())
	fields, err := o.Extract(context.Background(), docStructured, model.ModeComplement, existing)
	require.NoError(t, err)
	require.NotNil(t, fields)

	assert.Equal(t, "EXISTING", fields.Expediente, "existing values are never overwritten")
	assert.Equal(t, "Lavado de dinero", fields.Causa, "gaps fill from the document")
	assert.Equal(t, "Aseguramiento precautorio", fields.AccionSolicitada)
}

func TestOrchestrator_ComplementWithNilExisting(t *testing.T) {
	o := DefaultOrchestrator(DefaultTuning())
	fields, err := o.Extract(context.Background(), docStructured, model.ModeComplement, nil)
	require.NoError(t, err)
	require.NotNil(t, fields)
	assert.Equal(t, "A/AS1-2505-088637-PHM", fields.Expediente)
}

func TestOrchestrator_ComplementDoesNotMutateExisting(t *testing.T) {
	existing := model.NewExtractedFields()
	existing.Expediente = "EXISTING"

	o := DefaultOrchestrator(DefaultTuning())
	_, err := o.Extract(context.Background(), docStructured, model.ModeComplement, existing)
	require.NoError(t, err)

	assert.Equal(t, "EXISTING", existing.Expediente)
	assert.Empty(t, existing.Causa)
	assert.Empty(t, existing.Montos)
}

func TestOrchestrator_ConfidencesSortedWithStableTies(t *testing.T) {
	o := NewOrchestrator(
		&stubStrategy{name: "a", conf: 60, fields: &model.ExtractedFields{Causa: "a"}},
		&stubStrategy{name: "b", conf: 80, fields: &model.ExtractedFields{Causa: "b"}},
		&stubStrategy{name: "c", conf: 80, fields: &model.ExtractedFields{Causa: "c"}},
	)

	confs, err := o.Confidences(context.Background(), "x")
	require.NoError(t, err)
	require.Len(t, confs, 3)
	assert.Equal(t, "b", confs[0].StrategyName, "ties keep registration order")
	assert.Equal(t, "c", confs[1].StrategyName)
	assert.Equal(t, "a", confs[2].StrategyName)
}

func TestOrchestrator_BestStrategyFirstRegisteredWinsTies(t *testing.T) {
	o := NewOrchestrator(
		&stubStrategy{name: "first", conf: 80, fields: &model.ExtractedFields{Causa: "from first"}},
		&stubStrategy{name: "second", conf: 80, fields: &model.ExtractedFields{Causa: "from second"}},
	)

	fields, err := o.Extract(context.Background(), "x", model.ModeBestStrategy, nil)
	require.NoError(t, err)
	require.NotNil(t, fields)
	assert.Equal(t, "from first", fields.Causa)
}

func TestOrchestrator_MergeAllScalarConflictFirstRegisteredWins(t *testing.T) {
	o := NewOrchestrator(
		&stubStrategy{name: "low", conf: 40, fields: &model.ExtractedFields{Causa: "from low", Fechas: []string{"15/03/2024"}}},
		&stubStrategy{name: "high", conf: 90, fields: &model.ExtractedFields{Causa: "from high", Expediente: "A/AS1-2505-088637-PHM", Fechas: []string{"16/03/2024"}}},
	)

	fields, err := o.Extract(context.Background(), "x", model.ModeMergeAll, nil)
	require.NoError(t, err)
	require.NotNil(t, fields)

	assert.Equal(t, "from low", fields.Causa, "registration order decides scalar conflicts, not confidence")
	assert.Equal(t, "A/AS1-2505-088637-PHM", fields.Expediente)
	assert.Equal(t, []string{"15/03/2024", "16/03/2024"}, fields.Fechas)
}

func TestOrchestrator_MergeAllSkipsEmptyStrategies(t *testing.T) {
	o := NewOrchestrator(
		&stubStrategy{name: "empty", conf: 0, fields: nil},
		&stubStrategy{name: "data", conf: 50, fields: &model.ExtractedFields{Expediente: "A/AS1-2505-088637-PHM"}},
	)

	fields, err := o.Extract(context.Background(), "x", model.ModeMergeAll, nil)
	require.NoError(t, err)
	require.NotNil(t, fields)
	assert.Equal(t, "A/AS1-2505-088637-PHM", fields.Expediente)
}

func TestOrchestrator_MergeAllAllEmptyReturnsNil(t *testing.T) {
	o := NewOrchestrator(
		&stubStrategy{name: "a", conf: 0, fields: nil},
		&stubStrategy{name: "b", conf: 0, fields: nil},
	)

	fields, err := o.Extract(context.Background(), "x", model.ModeMergeAll, nil)
	require.NoError(t, err)
	assert.Nil(t, fields)
}

func TestOrchestrator_CancelledContext(t *testing.T) {
	o := DefaultOrchestrator(DefaultTuning())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Confidences(ctx, docStructured)
	assert.ErrorIs(t, err, context.Canceled)

	for _, mode := range []model.ExtractionMode{model.ModeBestStrategy, model.ModeMergeAll, model.ModeComplement} {
		fields, err := o.Extract(ctx, docStructured, mode, nil)
		assert.ErrorIs(t, err, context.Canceled, "mode %s", mode)
		assert.Nil(t, fields)
	}
}

func TestOrchestrator_UnknownModeYieldsNothing(t *testing.T) {
	o := DefaultOrchestrator(DefaultTuning())
	fields, err := o.Extract(context.Background(), docStructured, model.ExtractionMode("bogus"), nil)
	require.NoError(t, err)
	assert.Nil(t, fields)
}

func TestOrchestrator_StrategiesInRegistrationOrder(t *testing.T) {
	o := DefaultOrchestrator(DefaultTuning())
	assert.Equal(t,
		[]string{NameStructured, NameContextual, NameTable, NameComplement, NameSearch},
		o.Strategies(),
	)
}
