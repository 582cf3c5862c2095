package guest

import (
	"context"
	"strings"
	"testing"

	"gala-ops/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileFlagsAnomalies(t *testing.T) {
	l := newLedger()
	seedGuest(l, "clean", "", vnd(5_000_000), models.PaymentSourceSponsor)
	seedGuest(l, "flagged", "", vnd(2_000_000), models.PaymentSourceSponsor)
	l.revenues["flagged"].IsUpsaled = true // no upsale events behind the flag

	svc := newTestService(l, nil)

	findings, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "flagged", findings[0].GuestID)
	assert.Equal(t, "flag_without_evidence", findings[0].Kind)
}

func TestReconcileWarmsCache(t *testing.T) {
	l := newLedger()
	seedGuest(l, "g1", "", vnd(1_000_000), models.PaymentSourceSponsor)
	cache := newFakeCache()

	svc := newTestService(l, cache)

	_, err := svc.Reconcile(context.Background())
	require.NoError(t, err)

	cached, ok := cache.GetSummary(context.Background(), "g1")
	require.True(t, ok)
	assert.True(t, cached.Effective.Equal(vnd(1_000_000)))
}

func TestFindingsDigestIsOneMessage(t *testing.T) {
	findings := []Finding{
		{GuestID: "g1", Kind: "negative_effective", Detail: "-500000"},
		{GuestID: "g2", Kind: "flag_without_evidence", Detail: "upsale flag set with no upsale events"},
	}

	digest := FindingsDigest(findings)

	assert.Contains(t, digest, "2 finding(s)")
	assert.Contains(t, digest, "[negative_effective] guest g1: -500000")
	assert.Contains(t, digest, "[flag_without_evidence] guest g2")
	// One line per finding plus the header
	assert.Equal(t, 3, strings.Count(digest, "\n"))
}
