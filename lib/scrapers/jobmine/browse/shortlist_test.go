package browse

import (
	"context"
	"testing"

	"github.com/hkpeprah/jerbminer/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestAddToShortlist(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/jobmine/browse")
	defer cleanup()

	portal := searchFixture()
	portal.details = map[string]string{
		"3333333": "Job Title: Tester\nEmployer: Umbrella\nJob Description\nExercise the product.",
	}
	client := startFixture(t, portal)

	added, err := client.AddToShortlist(context.Background(), "3333333", nil)
	require.NoError(t, err)
	require.True(t, added)

	// the job sits on the second page at absolute row 2, and the
	// shortlist action spends the next state counter value
	require.True(t, portal.sawAction("UW_CO_SLIST_HL$2"))
	portal.mu.Lock()
	state := portal.shortlistState
	portal.mu.Unlock()
	require.Equal(t, "12", state)
}

func TestAddToShortlistAlreadyListed(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/jobmine/browse")
	defer cleanup()

	portal := searchFixture()
	portal.searchPages[0][0].shortList = "On Short List"
	portal.details = map[string]string{
		"1111111": "Job Title: Developer\nEmployer: Initech\nJob Description\nWrite code.",
	}
	client := startFixture(t, portal)

	added, err := client.AddToShortlist(context.Background(), "1111111", nil)
	require.NoError(t, err)
	require.False(t, added)

	// already-shortlisted short-circuits before any mutating request
	require.False(t, portal.sawAction("UW_CO_SLIST_HL"))
}

func TestAddToShortlistNotFound(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/jobmine/browse")
	defer cleanup()

	portal := searchFixture()
	client := startFixture(t, portal)

	added, err := client.AddToShortlist(context.Background(), "9999999", nil)
	require.NoError(t, err)
	require.False(t, added)
	require.False(t, portal.sawAction("UW_CO_SLIST_HL"))
}

func TestRemoveFromShortlist(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/jobmine/browse")
	defer cleanup()

	portal := &fixturePortal{
		shortlist: []searchRow{
			{id: "1111111", title: "Developer", employer: "Initech"},
			{id: "2222222", title: "Analyst", employer: "Globex"},
		},
	}
	client := startFixture(t, portal)
	ctx := context.Background()

	removed, err := client.RemoveFromShortlist(ctx, "2222222")
	require.NoError(t, err)
	require.True(t, removed)
	require.True(t, portal.sawAction("UW_CO_STUJOBLST$delete$1$$0"))

	remaining, err := client.ListShortlist(ctx)
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, remaining, 1)
	require.Equal(t, "1111111", remaining[0].Get("Job Identifier"))

	removed, err = client.RemoveFromShortlist(ctx, "9999999")
	require.NoError(t, err)
	require.False(t, removed)
}
