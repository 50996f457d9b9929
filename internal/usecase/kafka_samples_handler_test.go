package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CarbonDesk/internal/repository"
	pkgkafka "CarbonDesk/pkg/kafka"
	"CarbonDesk/pkg/metrics"
)

func TestKafkaSamplesHandler(t *testing.T) {
	store := repository.NewMemorySampleStore()
	h := NewKafkaSamplesHandler("carbon.samples", store, metrics.Nop{})
	ctx := context.Background()
	assert.Equal(t, "carbon.samples", h.Topic())

	require.NoError(t, h.Handle(ctx, []byte(`{"asset_id":"mangrove","ts_ms":1704067200000,"price":21.5,"volume":300}`)))
	// replays are dropped without an error so the consumer commits them
	require.NoError(t, h.Handle(ctx, []byte(`{"asset_id":"mangrove","ts_ms":1704067200000,"price":22,"volume":1}`)))

	latest, err := store.Latest(ctx, "mangrove")
	require.NoError(t, err)
	assert.Equal(t, 21.5, latest.Price)

	err = h.Handle(ctx, []byte(`not json`))
	assert.True(t, pkgkafka.IsPermanent(err))
	err = h.Handle(ctx, []byte(`{"asset_id":"","ts_ms":1}`))
	assert.True(t, pkgkafka.IsPermanent(err))
}
