package align

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LiqPull/internal/domain/models"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func obs(t time.Time, v float64) models.RawObservation {
	return models.RawObservation{Date: t, Value: v}
}

func TestAlignMonthlyExactYear(t *testing.T) {
	in := []models.RawObservation{
		obs(d(2025, 3, 1), 110),
		obs(d(2025, 2, 1), 108),
		obs(d(2024, 4, 1), 101),
		obs(d(2024, 3, 1), 100),
		obs(d(2024, 2, 1), 99),
	}

	got, err := Align(in, models.Monthly)
	require.NoError(t, err)
	assert.Equal(t, d(2025, 3, 1), got.Latest.Date)
	assert.Equal(t, 110.0, got.Latest.Value)
	assert.Equal(t, d(2024, 3, 1), got.YoY.Date)
	assert.Equal(t, 100.0, got.YoY.Value)
	assert.Nil(t, got.Period, "monthly series have no period comparator")
}

func TestAlignUnsortedInputAndMissingValues(t *testing.T) {
	in := []models.RawObservation{
		obs(d(2024, 3, 1), 100),
		{Date: d(2025, 4, 1), Missing: true},
		obs(d(2025, 3, 1), 110),
		obs(d(2024, 9, 1), 105),
	}

	got, err := Align(in, models.Monthly)
	require.NoError(t, err)
	assert.Equal(t, d(2025, 3, 1), got.Latest.Date)
	assert.Equal(t, d(2024, 3, 1), got.YoY.Date)
}

func TestAlignTieResolvesToNewer(t *testing.T) {
	latest := d(2025, 6, 15)
	target := latest.AddDate(-1, 0, 0)
	in := []models.RawObservation{
		obs(latest, 50),
		obs(target.AddDate(0, 0, 3), 41),
		obs(target.AddDate(0, 0, -3), 40),
	}

	got, err := Align(in, models.Daily)
	require.NoError(t, err)
	assert.Equal(t, 41.0, got.YoY.Value)
}

func TestAlignQuarterlyWiderTolerance(t *testing.T) {
	latest := d(2025, 1, 1)
	in := []models.RawObservation{
		obs(latest, 1.4),
		obs(latest.AddDate(-1, 0, 40), 1.2),
		obs(d(2023, 7, 1), 1.1),
	}

	got, err := Align(in, models.Quarterly)
	require.NoError(t, err)
	assert.Equal(t, 1.2, got.YoY.Value)

	_, ok := nearest(in[1:], latest.AddDate(-1, 0, 0), Tolerance(models.Monthly))
	assert.False(t, ok, "40 days is outside the monthly band")
}

func TestAlignFallbackToOldest(t *testing.T) {
	// daily history capped short of a full year
	latest := d(2025, 6, 1)
	var in []models.RawObservation
	for i := 0; i <= 300; i += 5 {
		in = append(in, obs(latest.AddDate(0, 0, -i), float64(1000-i)))
	}

	got, err := Align(in, models.Daily)
	require.NoError(t, err)
	assert.Equal(t, latest.AddDate(0, 0, -300), got.YoY.Date)
	assert.Equal(t, 700.0, got.YoY.Value)
}

func TestAlignInsufficientHistory(t *testing.T) {
	latest := d(2025, 6, 1)
	in := []models.RawObservation{
		obs(latest, 10),
		obs(latest.AddDate(0, 0, -100), 9),
	}

	_, err := Align(in, models.Daily)
	assert.ErrorIs(t, err, ErrInsufficientHistory)

	_, err = Align(in[:1], models.Daily)
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestAlignNoObservations(t *testing.T) {
	_, err := Align(nil, models.Weekly)
	assert.ErrorIs(t, err, ErrNoObservations)

	_, err = Align([]models.RawObservation{{Date: d(2025, 1, 1), Missing: true}}, models.Weekly)
	assert.ErrorIs(t, err, ErrNoObservations)
}

func TestAlignZeroComparatorRejected(t *testing.T) {
	in := []models.RawObservation{
		obs(d(2025, 3, 1), 5),
		obs(d(2024, 3, 1), 0),
	}

	_, err := Align(in, models.Monthly)
	assert.ErrorIs(t, err, ErrZeroComparator)
}

func TestAlignComparatorStrictlyEarlier(t *testing.T) {
	latest := d(2025, 3, 5)
	in := []models.RawObservation{
		obs(latest, 10),
		obs(latest, 11),
		obs(latest.AddDate(-1, 0, 0), 8),
	}

	got, err := Align(in, models.Weekly)
	require.NoError(t, err)
	assert.True(t, got.YoY.Date.Before(got.Latest.Date))
}

func TestAlignWeeklyPeriodComparator(t *testing.T) {
	latest := d(2025, 3, 26)
	var in []models.RawObservation
	for i := 0; i < 60; i++ {
		in = append(in, obs(latest.AddDate(0, 0, -7*i), float64(500-i)))
	}

	got, err := Align(in, models.Weekly)
	require.NoError(t, err)
	require.NotNil(t, got.Period)
	age := got.Latest.Date.Sub(got.Period.Date).Hours() / 24
	assert.GreaterOrEqual(t, age, 28.0)
	assert.LessOrEqual(t, age, 35.0)
	assert.True(t, got.Period.Date.Before(got.Latest.Date))
}

func TestAlignPeriodAbsentKeepsYoY(t *testing.T) {
	latest := d(2025, 3, 26)
	in := []models.RawObservation{
		obs(latest, 10),
		obs(latest.AddDate(0, 0, -60), 9),
		obs(latest.AddDate(-1, 0, 0), 8),
	}

	got, err := Align(in, models.Daily)
	require.NoError(t, err)
	assert.Nil(t, got.Period)
	assert.Equal(t, 8.0, got.YoY.Value)
}
