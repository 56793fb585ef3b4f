package trade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stuuu223/myquanttool/internal/domain/snapshot"
)

func buyRecord() snapshot.InstrumentRecord {
	return snapshot.InstrumentRecord{
		Code:       "603607.SH",
		Code6Digit: "603607",
		Price:      snapshot.PriceData{Close: 25.5, PctChg: 0.02, AmountYuan: 500_000_000},
		RiskScore:  28,
	}
}

func TestNew_ValidatesBuySide(t *testing.T) {
	tr, err := New("20260112", buyRecord(), 25.5)
	require.NoError(t, err)
	assert.Equal(t, "603607.SH", tr.Code)
	assert.False(t, tr.Closed())

	_, err = New("20260112", buyRecord(), 0)
	require.Error(t, err)

	bad := buyRecord()
	bad.Code6Digit = "000000"
	_, err = New("20260112", bad, 25.5)
	require.Error(t, err)
}

func TestAddSell_ComputesHoldingDays(t *testing.T) {
	tr, err := New("20260112", buyRecord(), 25.0) // Monday
	require.NoError(t, err)

	rec, err := tr.AddSell("20260119", 27.5) // next Monday, 5 trading days
	require.NoError(t, err)
	assert.Equal(t, 5, rec.HoldingDays)
	assert.InDelta(t, 0.10, rec.PnlPct, 1e-12)
	assert.True(t, tr.Closed())
}

func TestAddSell_SameDayIsZeroDays(t *testing.T) {
	tr, err := New("20260112", buyRecord(), 25.0)
	require.NoError(t, err)

	rec, err := tr.AddSell("20260112", 24.0)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.HoldingDays)
	assert.GreaterOrEqual(t, rec.HoldingDays, 0)
}

func TestAddSell_SellBeforeBuyFailsLoudly(t *testing.T) {
	tr, err := New("20260112", buyRecord(), 25.0)
	require.NoError(t, err)

	_, err = tr.AddSell("20260109", 26.0)
	require.Error(t, err)
	var ve *snapshot.ValidationError
	assert.ErrorAs(t, err, &ve, "negative holding period must be a ValidationError, never a stored negative")
	assert.Empty(t, tr.SellRecords, "failed sell must not be appended")
}
