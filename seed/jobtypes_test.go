package seed_test

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/job-tracker/seed"
	"github.com/warp/job-tracker/store/sqlite"
	"github.com/warp/job-tracker/tracker"
)

func TestLoadJobTypes(t *testing.T) {
	doc := `
job_types:
  - name: Install
    credits: 2.5
  - name: Repair
    credits: "1.25"
  - name: Callback
    credits: 0
`
	types, err := seed.LoadJobTypes(strings.NewReader(doc))
	require.NoError(t, err)

	require.Len(t, types, 3)
	assert.Equal(t, "Install", types[0].Name)
	assert.True(t, decimal.RequireFromString("2.5").Equal(types[0].Credits))
	assert.True(t, decimal.RequireFromString("1.25").Equal(types[1].Credits))
	assert.True(t, types[2].Credits.IsZero())
}

func TestLoadJobTypes_Rejects(t *testing.T) {
	cases := map[string]string{
		"negative credits": "job_types:\n  - name: A\n    credits: -1\n",
		"three decimals":   "job_types:\n  - name: A\n    credits: 1.125\n",
		"not a number":     "job_types:\n  - name: A\n    credits: lots\n",
		"missing name":     "job_types:\n  - credits: 1\n",
		"duplicate name":   "job_types:\n  - name: A\n    credits: 1\n  - name: A\n    credits: 2\n",
		"unknown field":    "job_types:\n  - name: A\n    credits: 1\n    colour: red\n",
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := seed.LoadJobTypes(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadJobTypes_Empty(t *testing.T) {
	types, err := seed.LoadJobTypes(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, types)
}

func TestImportJobTypes_IsRepeatable(t *testing.T) {
	ctx := context.Background()
	store, err := sqlite.New(sqlite.MemoryPath)
	require.NoError(t, err)
	defer store.Close()

	types := []tracker.JobType{
		{Name: "Install", Credits: decimal.RequireFromString("2")},
		{Name: "Repair", Credits: decimal.RequireFromString("1")},
	}
	first, err := seed.ImportJobTypes(ctx, store, types)
	require.NoError(t, err)

	types[0].Credits = decimal.RequireFromString("3")
	second, err := seed.ImportJobTypes(ctx, store, types)
	require.NoError(t, err)

	assert.Equal(t, first[0].ID, second[0].ID)
	listed, err := store.ListJobTypes(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.True(t, decimal.RequireFromString("3").Equal(listed[0].Credits))
}
