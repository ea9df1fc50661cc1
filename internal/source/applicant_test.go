package source

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentops/pricing-engine/internal/model"
)

func applicantRows(rows ...[]any) *pgxmock.Rows {
	r := pgxmock.NewRows([]string{"desired_title", "expected_salary", "salary_period", "applied_at"})
	for _, row := range rows {
		r.AddRow(row...)
	}
	return r
}

func TestApplicantGatherer_AnnualizesMonthly(t *testing.T) {
	mock := newMockPool(t)
	applied := fixedNow.AddDate(0, 0, -100)

	mock.ExpectQuery(`FROM applicant_records\s+WHERE applied_at`).
		WithArgs(fixedNow.AddDate(0, -24, 0)).
		WillReturnRows(applicantRows(
			[]any{"Software Engineer", 6000.0, "monthly", applied},
			[]any{"Software Engineer", 84000.0, "annual", applied},
		))

	g := NewApplicant(mock, testSourcesConfig(), testMatchingConfig()).
		WithNow(func() time.Time { return fixedNow })

	c, err := g.Gather(context.Background(), model.JobRequest{Title: "Software Engineer"})
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.Equal(t, model.SourceApplicantRecords, c.SourceName)
	assert.Equal(t, []float64{72000, 84000}, c.DataPoints, "6000/month becomes 72000/year")
	assert.Equal(t, 0.7, c.MatchQuality)
	require.NotNil(t, c.RecencyDays)
	assert.InDelta(t, 100, *c.RecencyDays, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicantGatherer_FiltersByTitle(t *testing.T) {
	mock := newMockPool(t)
	applied := fixedNow.AddDate(0, 0, -10)

	mock.ExpectQuery(`FROM applicant_records\s+WHERE applied_at`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(applicantRows(
			[]any{"Veterinary Assistant", 4000.0, "monthly", applied},
		))

	g := NewApplicant(mock, testSourcesConfig(), testMatchingConfig()).
		WithNow(func() time.Time { return fixedNow })

	c, err := g.Gather(context.Background(), model.JobRequest{Title: "Software Engineer"})
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestAnnualize(t *testing.T) {
	assert.Equal(t, 72000.0, annualize(6000, "monthly"))
	assert.Equal(t, 72000.0, annualize(6000, " Monthly "))
	assert.Equal(t, 84000.0, annualize(84000, "annual"))
	assert.Equal(t, 84000.0, annualize(84000, ""))
}
