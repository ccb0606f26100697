package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-legal/extract-cli/internal/model"
)

func TestComplement_UnboundTreatsEverythingAsGap(t *testing.T) {
	s := NewComplement(DefaultTuning())
	ctx := context.Background()

	conf, err := s.Confidence(ctx, docStructured)
	require.NoError(t, err)
	assert.Equal(t, 85, conf, "three or more fillable gaps score the top tier")

	fields, err := s.Extract(ctx, docStructured)
	require.NoError(t, err)
	require.NotNil(t, fields)
	assert.Equal(t, "A/AS1-2505-088637-PHM", fields.Expediente)
	assert.Equal(t, "Lavado de dinero", fields.Causa)
	assert.Equal(t, "Aseguramiento precautorio", fields.AccionSolicitada)
	assert.Len(t, fields.Montos, 1)
}

func TestComplement_BoundReturnsOnlyGapValues(t *testing.T) {
	existing := model.NewExtractedFields()
	existing.Expediente = "EXISTING"

	s := NewComplement(DefaultTuning())
	bound := s.WithExisting(existing)
	fields, err := bound.Extract(context.Background(), docStructured)
	require.NoError(t, err)
	require.NotNil(t, fields)

	assert.Empty(t, fields.Expediente, "already-known fields are never re-emitted")
	assert.Equal(t, "Lavado de dinero", fields.Causa)
	assert.Equal(t, "Aseguramiento precautorio", fields.AccionSolicitada)
	assert.Len(t, fields.Montos, 1)
}

func TestComplement_FullyPopulatedRecordLeavesNothingToFill(t *testing.T) {
	existing := model.NewExtractedFields()
	existing.Expediente = "A/AS1-2505-088637-PHM"
	existing.Causa = "Lavado de dinero"
	existing.AccionSolicitada = "Aseguramiento precautorio"
	existing.AddMonto(mxn("100000", "$100,000.00 MXN"))

	s := NewComplement(DefaultTuning())
	bound := s.WithExisting(existing)
	ctx := context.Background()

	conf, err := bound.Confidence(ctx, docStructured)
	require.NoError(t, err)
	assert.Zero(t, conf)

	can, err := bound.CanExtract(ctx, docStructured)
	require.NoError(t, err)
	assert.False(t, can)

	fields, err := bound.Extract(ctx, docStructured)
	require.NoError(t, err)
	assert.Nil(t, fields)
}

func TestComplement_OnlyNewFechas(t *testing.T) {
	existing := model.NewExtractedFields()
	existing.AddFecha("15/03/2024")

	s := NewComplement(DefaultTuning())
	bound := s.WithExisting(existing)
	text := "con fecha 15/03/2024 y con fecha 16/03/2024 derivado de fraude fiscal"
	fields, err := bound.Extract(context.Background(), text)
	require.NoError(t, err)
	require.NotNil(t, fields)

	assert.Equal(t, []string{"16/03/2024"}, fields.Fechas)
	assert.Equal(t, "fraude fiscal", fields.Causa)
}

func TestComplement_MontosOnlyWhenExistingHasNone(t *testing.T) {
	existing := model.NewExtractedFields()
	existing.AddMonto(mxn("500", "$500.00"))

	s := NewComplement(DefaultTuning())
	bound := s.WithExisting(existing)
	fields, err := bound.Extract(context.Background(), docStructured)
	require.NoError(t, err)
	require.NotNil(t, fields)
	assert.Empty(t, fields.Montos, "amounts carry no dedup rule, so a populated record is left alone")
}

func TestComplement_ConfidenceScalesWithGapCount(t *testing.T) {
	// docStructured supplies expediente, causa, acción and montos. Masking
	// them one at a time in the existing record walks the tiers down.
	base := model.NewExtractedFields()
	base.AddMonto(mxn("100000", "$100,000.00 MXN"))
	base.Expediente = "A/AS1-2505-088637-PHM"

	s := NewComplement(DefaultTuning())
	ctx := context.Background()

	twoGaps := s.WithExisting(base)
	conf, err := twoGaps.Confidence(ctx, docStructured)
	require.NoError(t, err)
	assert.Equal(t, 70, conf)

	withCausa := base.Clone()
	withCausa.Causa = "Lavado de dinero"
	oneGap := s.WithExisting(withCausa)
	conf, err = oneGap.Confidence(ctx, docStructured)
	require.NoError(t, err)
	assert.Equal(t, 50, conf)
}

func TestComplement_WithExistingDoesNotMutateReceiver(t *testing.T) {
	full := model.NewExtractedFields()
	full.Expediente = "A/AS1-2505-088637-PHM"
	full.Causa = "Lavado de dinero"
	full.AccionSolicitada = "Aseguramiento precautorio"
	full.AddMonto(mxn("100000", "$100,000.00 MXN"))

	s := NewComplement(DefaultTuning())
	_ = s.WithExisting(full)

	conf, err := s.Confidence(context.Background(), docStructured)
	require.NoError(t, err)
	assert.Equal(t, 85, conf, "the registered instance stays unbound")
}

func TestComplement_WithExistingClonesTheRecord(t *testing.T) {
	existing := model.NewExtractedFields()
	existing.Expediente = "EXISTING"

	s := NewComplement(DefaultTuning())
	bound := s.WithExisting(existing)
	// Later caller-side mutation must not leak into the bound strategy.
	existing.Causa = "Lavado de dinero"

	fields, err := bound.Extract(context.Background(), docStructured)
	require.NoError(t, err)
	require.NotNil(t, fields)
	assert.Equal(t, "Lavado de dinero", fields.Causa, "causa was a gap at binding time")
}
