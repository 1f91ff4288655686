package importer

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/ne2keep/internal/entities"
)

func TestLabelResolver_CreatesMissingLabel(t *testing.T) {
	dest := newMockDestination()
	var out bytes.Buffer

	resolver := NewLabelResolver(dest, &out)
	labels, err := resolver.Resolve(context.Background(), []entities.Folder{
		{Title: "Shopping", Color: entities.ColorBlue},
	})

	require.NoError(t, err)
	require.Contains(t, labels, "Shopping")
	assert.Equal(t, "Shopping", labels["Shopping"].Name())
	assert.Equal(t, []string{"Shopping"}, dest.created)
	assert.Equal(t, 1, dest.syncs)
	assert.Equal(t, 1, resolver.Created())
	assert.Equal(t, "Processing labels 1/1\n", out.String())
}

func TestLabelResolver_ReusesExistingLabel(t *testing.T) {
	dest := newMockDestination("Work")

	resolver := NewLabelResolver(dest, &bytes.Buffer{})
	labels, err := resolver.Resolve(context.Background(), []entities.Folder{{Title: "Work"}})

	require.NoError(t, err)
	assert.Same(t, dest.existing["Work"], labels["Work"])
	assert.Empty(t, dest.created)
	assert.Zero(t, dest.syncs)
	assert.Equal(t, 1, resolver.Reused())
}

func TestLabelResolver_IdempotentPerTitle(t *testing.T) {
	dest := newMockDestination()
	var out bytes.Buffer

	resolver := NewLabelResolver(dest, &out)
	_, err := resolver.Resolve(context.Background(), []entities.Folder{
		{Title: "Shopping"},
		{Title: "Shopping", Color: entities.ColorRed},
	})
	require.NoError(t, err)

	// A second pass in the same run creates nothing either
	labels, err := resolver.Resolve(context.Background(), []entities.Folder{{Title: "Shopping"}})
	require.NoError(t, err)

	assert.Len(t, labels, 1)
	assert.Equal(t, []string{"Shopping"}, dest.created)
	assert.Equal(t, 1, resolver.Created())
	assert.Equal(t, "Processing labels 1/2\nProcessing labels 2/2\nProcessing labels 1/1\n", out.String())
}

func TestLabelResolver_SkipsEmptyTitle(t *testing.T) {
	dest := newMockDestination()
	var out bytes.Buffer

	labels, err := NewLabelResolver(dest, &out).Resolve(context.Background(), []entities.Folder{
		{Title: ""},
		{Title: "Home"},
	})

	require.NoError(t, err)
	assert.NotContains(t, labels, "")
	assert.Equal(t, []string{"Home"}, dest.created)
	assert.Equal(t, "Processing labels 1/2\nProcessing labels 2/2\n", out.String())
}

func TestLabelResolver_CreateError(t *testing.T) {
	dest := newMockDestination()
	dest.createErr = errors.New("boom")

	_, err := NewLabelResolver(dest, &bytes.Buffer{}).Resolve(context.Background(), []entities.Folder{{Title: "A"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), `failed to create label "A"`)
}

func TestLabelResolver_SyncError(t *testing.T) {
	dest := newMockDestination()
	dest.failSyncAt = 1
	dest.syncErr = errors.New("network down")

	_, err := NewLabelResolver(dest, &bytes.Buffer{}).Resolve(context.Background(), []entities.Folder{{Title: "A"}})

	assert.ErrorIs(t, err, dest.syncErr)
}

func TestLabelResolver_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLabelResolver(newMockDestination(), &bytes.Buffer{}).Resolve(ctx, []entities.Folder{{Title: "A"}})
	assert.ErrorIs(t, err, context.Canceled)
}
