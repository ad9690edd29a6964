package redistribution

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/domain"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNetwork is an in-memory hospital network backing both repository
// interfaces, with the same transfer rules as the SQL implementation.
type fakeNetwork struct {
	hospitals  map[int64]domain.Hospital
	cells      []domain.InventoryCell
	nextCellID int64
	listErr    error
}

var (
	_ repository.InventoryRepository = (*fakeNetwork)(nil)
	_ repository.HospitalRepository  = (*fakeNetwork)(nil)
)

func newFakeNetwork() *fakeNetwork {
	return &fakeNetwork{hospitals: make(map[int64]domain.Hospital)}
}

func (f *fakeNetwork) addHospital(id int64, name, location string) {
	f.hospitals[id] = domain.Hospital{ID: id, Name: name, Location: location}
}

func (f *fakeNetwork) addCell(hospitalID int64, bloodType string, current, min, max int) {
	f.nextCellID++
	hospital := f.hospitals[hospitalID]
	f.cells = append(f.cells, domain.InventoryCell{
		ID:           f.nextCellID,
		HospitalID:   hospitalID,
		HospitalName: hospital.Name,
		Location:     hospital.Location,
		BloodType:    bloodType,
		CurrentUnits: current,
		MinRequired:  min,
		MaxCapacity:  max,
	})
}

func (f *fakeNetwork) units(hospitalID int64, bloodType string) int {
	if i := f.cellIndex(hospitalID, bloodType); i >= 0 {
		return f.cells[i].CurrentUnits
	}
	return -1
}

func (f *fakeNetwork) cellIndex(hospitalID int64, bloodType string) int {
	for i := range f.cells {
		if f.cells[i].HospitalID == hospitalID && f.cells[i].BloodType == bloodType {
			return i
		}
	}
	return -1
}

func (f *fakeNetwork) ListCells(_ context.Context, filter domain.InventoryFilter) ([]domain.InventoryCell, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}

	var out []domain.InventoryCell
	for _, cell := range f.cells {
		if filter.BloodType != "" && cell.BloodType != filter.BloodType {
			continue
		}
		if filter.HospitalID != 0 && cell.HospitalID != filter.HospitalID {
			continue
		}
		if filter.Location != "" && !strings.Contains(cell.Location, filter.Location) {
			continue
		}
		out = append(out, cell)
	}
	return out, nil
}

func (f *fakeNetwork) cellAt(hospitalID int64, bloodType string) *domain.InventoryCell {
	if i := f.cellIndex(hospitalID, bloodType); i >= 0 {
		cell := f.cells[i]
		return &cell
	}
	return nil
}

func (f *fakeNetwork) UpsertCell(_ context.Context, hospitalID int64, bloodType string, currentUnits int) (*domain.InventoryCell, error) {
	if i := f.cellIndex(hospitalID, bloodType); i >= 0 {
		f.cells[i].CurrentUnits = currentUnits
		cell := f.cells[i]
		return &cell, nil
	}

	f.addCell(hospitalID, bloodType, currentUnits, 10, 100)
	cell := f.cells[len(f.cells)-1]
	return &cell, nil
}

func (f *fakeNetwork) TotalsByBloodType(_ context.Context) (map[string]int, error) {
	totals := make(map[string]int)
	for _, cell := range f.cells {
		totals[cell.BloodType] += cell.CurrentUnits
	}
	return totals, nil
}

func (f *fakeNetwork) Transfer(_ context.Context, fromHospitalID, toHospitalID int64, bloodType string, units int) (*domain.TransferResult, error) {
	srcIdx := f.cellIndex(fromHospitalID, bloodType)
	if srcIdx < 0 {
		return nil, &domain.InsufficientInventoryError{
			HospitalID: fromHospitalID,
			BloodType:  bloodType,
			Requested:  units,
			Available:  0,
		}
	}

	destIdx := f.cellIndex(toHospitalID, bloodType)
	var dest domain.InventoryCell
	created := false
	if destIdx < 0 {
		f.nextCellID++
		hospital := f.hospitals[toHospitalID]
		dest = domain.InventoryCell{
			ID:           f.nextCellID,
			HospitalID:   toHospitalID,
			HospitalName: hospital.Name,
			Location:     hospital.Location,
			BloodType:    bloodType,
			MinRequired:  10,
			MaxCapacity:  100,
		}
		created = true
	} else {
		dest = f.cells[destIdx]
	}

	source := f.cells[srcIdx]
	if err := source.Debit(units); err != nil {
		return nil, err
	}
	if err := dest.Credit(units); err != nil {
		return nil, err
	}

	f.cells[srcIdx] = source
	if created {
		f.cells = append(f.cells, dest)
	} else {
		f.cells[destIdx] = dest
	}

	return &domain.TransferResult{
		FromHospitalID:   fromHospitalID,
		ToHospitalID:     toHospitalID,
		BloodType:        bloodType,
		UnitsTransferred: units,
		SourceRemaining:  source.CurrentUnits,
		DestNewLevel:     dest.CurrentUnits,
		ExecutedAt:       time.Now(),
	}, nil
}

func (f *fakeNetwork) List(_ context.Context) ([]domain.Hospital, error) {
	hospitals := make([]domain.Hospital, 0, len(f.hospitals))
	for _, hospital := range f.hospitals {
		hospitals = append(hospitals, hospital)
	}
	return hospitals, nil
}

func (f *fakeNetwork) GetByID(_ context.Context, id int64) (*domain.Hospital, error) {
	hospital, ok := f.hospitals[id]
	if !ok {
		return nil, domain.ErrHospitalNotFound
	}
	return &hospital, nil
}

func (f *fakeNetwork) Upsert(_ context.Context, hospital *domain.Hospital) error {
	if hospital.ID == 0 {
		hospital.ID = int64(len(f.hospitals) + 1)
	}
	f.hospitals[hospital.ID] = *hospital
	return nil
}

func TestGradeBands(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		min      int
		max      int
		status   domain.StockStatus
		shortage int
		surplus  float64
	}{
		{"empty cell is critical", 0, 10, 100, domain.StockCritical, 10, 0},
		{"below half minimum is critical", 4, 10, 100, domain.StockCritical, 6, 0},
		{"at half minimum is low", 5, 10, 100, domain.StockLow, 5, 0},
		{"below minimum is low", 7, 10, 100, domain.StockLow, 3, 0},
		{"at minimum is adequate", 10, 10, 100, domain.StockAdequate, 0, 0},
		{"inside working reserve has no surplus", 14, 10, 100, domain.StockAdequate, 0, 0},
		{"above working reserve is movable", 20, 10, 100, domain.StockAdequate, 0, 5},
		{"above ninety percent capacity is excess", 95, 10, 100, domain.StockExcess, 0, 80},
		{"zero minimum is never short", 0, 0, 100, domain.StockAdequate, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := grade(domain.InventoryCell{
				CurrentUnits: tt.current,
				MinRequired:  tt.min,
				MaxCapacity:  tt.max,
			})

			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.shortage, got.Shortage)
			assert.InDelta(t, tt.surplus, got.Surplus, 1e-9)
		})
	}
}

func TestOpportunitiesMatchesSurplusAgainstShortage(t *testing.T) {
	net := newFakeNetwork()
	net.addHospital(1, "Apollo Hospital Delhi", "Sarita Vihar, Delhi")
	net.addHospital(2, "AIIMS Delhi", "Ansari Nagar, Delhi")
	net.addHospital(3, "Fortis Hospital", "Shalimar Bagh, Delhi")
	net.addCell(1, "O+", 40, 10, 100) // surplus 25
	net.addCell(2, "O+", 3, 10, 100)  // critical, shortage 7
	net.addCell(3, "A+", 50, 10, 100) // surplus in an unaffected type

	r := NewRedistributor(net, net)
	opportunities, err := r.Opportunities(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, opportunities, 1)

	opp := opportunities[0]
	assert.Equal(t, int64(1), opp.FromHospitalID)
	assert.Equal(t, "Apollo Hospital Delhi", opp.FromHospitalName)
	assert.Equal(t, int64(2), opp.ToHospitalID)
	assert.Equal(t, "AIIMS Delhi", opp.ToHospitalName)
	assert.Equal(t, "O+", opp.BloodType)
	assert.Equal(t, 7, opp.TransferUnits)
	assert.InDelta(t, 126.5, opp.Priority, 1e-9) // 100 critical + 2*7 shortage + 0.5*25 surplus
	assert.Equal(t, "AIIMS Delhi has 7 unit shortage while Apollo Hospital Delhi has 25 unit surplus", opp.Reason)
	assert.False(t, opp.ForecastBased)

	// Proposals are advisory: nothing moved
	assert.Equal(t, 40, net.units(1, "O+"))
	assert.Equal(t, 3, net.units(2, "O+"))
}

func TestOpportunitiesSortedByPriority(t *testing.T) {
	net := newFakeNetwork()
	net.addHospital(1, "Apollo Hospital Delhi", "Sarita Vihar, Delhi")
	net.addHospital(2, "AIIMS Delhi", "Ansari Nagar, Delhi")
	net.addHospital(3, "Safdarjung Hospital", "Ansari Nagar, Delhi")
	net.addCell(1, "B+", 60, 10, 100) // surplus 45
	net.addCell(2, "B+", 8, 10, 100)  // low, shortage 2
	net.addCell(3, "B+", 2, 10, 100)  // critical, shortage 8

	r := NewRedistributor(net, net)
	opportunities, err := r.Opportunities(context.Background(), "B+")
	require.NoError(t, err)
	require.Len(t, opportunities, 2)

	// Critical destination outranks the low one
	assert.Equal(t, int64(3), opportunities[0].ToHospitalID)
	assert.Equal(t, 8, opportunities[0].TransferUnits)
	assert.InDelta(t, 138.5, opportunities[0].Priority, 1e-9)
	assert.Equal(t, int64(2), opportunities[1].ToHospitalID)
	assert.InDelta(t, 76.5, opportunities[1].Priority, 1e-9)
	assert.GreaterOrEqual(t, opportunities[0].Priority, opportunities[1].Priority)
}

func TestOpportunitiesFloorsFractionalTransfers(t *testing.T) {
	net := newFakeNetwork()
	net.addHospital(1, "Apollo Hospital Delhi", "Sarita Vihar, Delhi")
	net.addHospital(2, "AIIMS Delhi", "Ansari Nagar, Delhi")
	net.addCell(1, "A-", 16, 9, 100) // surplus 16 - 13.5 = 2.5
	net.addCell(2, "A-", 5, 10, 100) // low, shortage 5

	r := NewRedistributor(net, net)
	opportunities, err := r.Opportunities(context.Background(), "A-")
	require.NoError(t, err)
	require.Len(t, opportunities, 1)

	assert.Equal(t, 2, opportunities[0].TransferUnits)
	assert.Equal(t, "AIIMS Delhi has 5 unit shortage while Apollo Hospital Delhi has 2 unit surplus", opportunities[0].Reason)
}

func TestOpportunitiesIgnoreOtherBloodTypes(t *testing.T) {
	net := newFakeNetwork()
	net.addHospital(1, "Apollo Hospital Delhi", "Sarita Vihar, Delhi")
	net.addHospital(2, "AIIMS Delhi", "Ansari Nagar, Delhi")
	net.addCell(1, "O-", 50, 10, 100) // surplus, but wrong type
	net.addCell(2, "AB+", 2, 10, 100) // shortage with no donor

	r := NewRedistributor(net, net)
	opportunities, err := r.Opportunities(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, opportunities)
}

func TestListStatusPropagatesError(t *testing.T) {
	net := newFakeNetwork()
	net.listErr = errors.New("connection refused")

	r := NewRedistributor(net, net)
	_, err := r.ListStatus(context.Background(), domain.InventoryFilter{})
	require.Error(t, err)
}

func TestExecuteTransferMovesUnits(t *testing.T) {
	net := newFakeNetwork()
	net.addHospital(1, "Apollo Hospital Delhi", "Sarita Vihar, Delhi")
	net.addHospital(2, "AIIMS Delhi", "Ansari Nagar, Delhi")
	net.addCell(1, "O+", 40, 10, 100)
	net.addCell(2, "O+", 3, 10, 100)

	r := NewRedistributor(net, net)
	result, err := r.ExecuteTransfer(context.Background(), 1, 2, "O+", 10)
	require.NoError(t, err)

	assert.NotEmpty(t, result.TransferID)
	assert.Equal(t, int64(1), result.FromHospitalID)
	assert.Equal(t, int64(2), result.ToHospitalID)
	assert.Equal(t, 10, result.UnitsTransferred)
	assert.Equal(t, 30, result.SourceRemaining)
	assert.Equal(t, 13, result.DestNewLevel)
	assert.False(t, result.ExecutedAt.IsZero())

	assert.Equal(t, 30, net.units(1, "O+"))
	assert.Equal(t, 13, net.units(2, "O+"))
}

func TestExecuteTransferInsufficientSource(t *testing.T) {
	net := newFakeNetwork()
	net.addHospital(1, "Apollo Hospital Delhi", "Sarita Vihar, Delhi")
	net.addHospital(2, "AIIMS Delhi", "Ansari Nagar, Delhi")
	net.addCell(1, "O+", 40, 10, 100)
	net.addCell(2, "O+", 3, 10, 100)

	r := NewRedistributor(net, net)
	_, err := r.ExecuteTransfer(context.Background(), 1, 2, "O+", 50)
	require.Error(t, err)

	var insufficient *domain.InsufficientInventoryError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 40, insufficient.Available)

	// Failed transfer leaves both sides untouched
	assert.Equal(t, 40, net.units(1, "O+"))
	assert.Equal(t, 3, net.units(2, "O+"))
}

func TestExecuteTransferMissingSourceCell(t *testing.T) {
	net := newFakeNetwork()
	net.addHospital(1, "Apollo Hospital Delhi", "Sarita Vihar, Delhi")
	net.addHospital(2, "AIIMS Delhi", "Ansari Nagar, Delhi")
	net.addCell(2, "O+", 3, 10, 100)

	r := NewRedistributor(net, net)
	_, err := r.ExecuteTransfer(context.Background(), 1, 2, "O+", 5)

	var insufficient *domain.InsufficientInventoryError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 0, insufficient.Available)
}

func TestExecuteTransferCapacityExceeded(t *testing.T) {
	net := newFakeNetwork()
	net.addHospital(1, "Apollo Hospital Delhi", "Sarita Vihar, Delhi")
	net.addHospital(2, "AIIMS Delhi", "Ansari Nagar, Delhi")
	net.addCell(1, "B-", 40, 10, 100)
	net.addCell(2, "B-", 95, 10, 100)

	r := NewRedistributor(net, net)
	_, err := r.ExecuteTransfer(context.Background(), 1, 2, "B-", 10)
	require.Error(t, err)

	var exceeded *domain.CapacityExceededError
	require.True(t, errors.As(err, &exceeded))
	assert.Equal(t, 100, exceeded.Capacity)

	assert.Equal(t, 40, net.units(1, "B-"))
	assert.Equal(t, 95, net.units(2, "B-"))
}

func TestExecuteTransferCreatesDestinationCell(t *testing.T) {
	net := newFakeNetwork()
	net.addHospital(1, "Apollo Hospital Delhi", "Sarita Vihar, Delhi")
	net.addHospital(2, "AIIMS Delhi", "Ansari Nagar, Delhi")
	net.addCell(1, "O-", 40, 10, 100)

	r := NewRedistributor(net, net)
	result, err := r.ExecuteTransfer(context.Background(), 1, 2, "O-", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, result.DestNewLevel)

	cell := net.cellAt(2, "O-")
	require.NotNil(t, cell)
	assert.Equal(t, 5, cell.CurrentUnits)
	assert.Equal(t, 10, cell.MinRequired)
	assert.Equal(t, 100, cell.MaxCapacity)
}

func TestExecuteTransferValidation(t *testing.T) {
	net := newFakeNetwork()
	net.addHospital(1, "Apollo Hospital Delhi", "Sarita Vihar, Delhi")
	net.addHospital(2, "AIIMS Delhi", "Ansari Nagar, Delhi")
	net.addCell(1, "O+", 40, 10, 100)

	r := NewRedistributor(net, net)
	ctx := context.Background()

	_, err := r.ExecuteTransfer(ctx, 1, 2, "O+", 0)
	assert.ErrorIs(t, err, ErrInvalidUnits)

	_, err = r.ExecuteTransfer(ctx, 1, 1, "O+", 5)
	assert.ErrorIs(t, err, ErrSameHospital)

	_, err = r.ExecuteTransfer(ctx, 1, 2, "X+", 5)
	assert.ErrorIs(t, err, ErrUnknownBloodType)

	_, err = r.ExecuteTransfer(ctx, 1, 99, "O+", 5)
	assert.ErrorIs(t, err, domain.ErrHospitalNotFound)
}

func TestSummaryAggregatesNetwork(t *testing.T) {
	net := newFakeNetwork()
	net.addHospital(1, "Apollo Hospital Delhi", "Sarita Vihar, Delhi")
	net.addHospital(2, "AIIMS Delhi", "Ansari Nagar, Delhi")
	net.addCell(1, "O+", 40, 10, 100) // adequate, surplus 25
	net.addCell(1, "A+", 3, 10, 100)  // critical, shortage 7
	net.addCell(2, "O+", 8, 10, 100)  // low, shortage 2
	net.addCell(2, "A+", 95, 10, 100) // excess, surplus 80

	r := NewRedistributor(net, net)
	summary, err := r.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalHospitals)
	assert.Equal(t, 4, summary.TotalInventoryRecords)
	assert.Equal(t, 1, summary.CriticalCount)
	assert.Equal(t, 1, summary.LowCount)
	assert.Equal(t, 1, summary.AdequateCount)
	assert.Equal(t, 1, summary.ExcessCount)
	assert.Equal(t, 9, summary.TotalShortageUnits)
	assert.InDelta(t, 105, summary.TotalSurplusUnits, 1e-9)
	assert.InDelta(t, 9, summary.RedistributionPotential, 1e-9)
	assert.Equal(t, 2, summary.BloodTypesTracked)
}
