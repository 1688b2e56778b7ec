package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rafflepay/internal/domain"
)

func TestStore_CreateRaffle(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	r := domain.NewRaffle("Charizard", "Base Set Charizard", 100, 500, 40000, 0, start, nil, start)
	mock.ExpectQuery(`INSERT INTO raffles`).
		WithArgs("Charizard", "Base Set Charizard", 100, 0, int64(500), int64(40000), int64(0), true, start, nil, start).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("raffle-uuid-1"))

	require.NoError(t, NewStore(db).CreateRaffle(ctx, r))
	assert.Equal(t, "raffle-uuid-1", r.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetRaffle(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(72 * time.Hour)

	tests := []struct {
		name    string
		id      string
		mock    func(mock sqlmock.Sqlmock)
		want    *domain.Raffle
		wantErr error
	}{
		{
			name: "closed raffle with winner",
			id:   testRaffleID,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .* FROM raffles WHERE id = \$1`).
					WithArgs(testRaffleID).
					WillReturnRows(sqlmock.NewRows(raffleCols).
						AddRow(testRaffleID, "Charizard", "Base Set", 10, 10, 500, 40000, 0, false, "u-1", start, end, start))
			},
			want: &domain.Raffle{
				ID: testRaffleID, Title: "Charizard", CardLabel: "Base Set", TotalTickets: 10, SoldTickets: 10,
				TicketPriceCents: 500, RetailPriceCents: 40000, IsActive: false,
				WinnerID: strPtr("u-1"), StartDate: start, EndDate: &end, CreatedAt: start,
			},
		},
		{
			name: "not found",
			id:   missingID,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM raffles WHERE id = \$1`).
					WithArgs(missingID).
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: domain.ErrRaffleNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			got, err := NewStore(db).GetRaffle(ctx, tt.id)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.ErrorIs(t, err, domain.ErrNotFound)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_ListActiveRaffles(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM raffles WHERE is_active`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`LIMIT \$1 OFFSET \$2`).
		WithArgs(2, 2).
		WillReturnRows(sqlmock.NewRows(raffleCols).
			AddRow("raffle-3", "Pikachu", "Illustrator", 50, 1, 100, 0, 0, true, nil, start, nil, start))

	got, total, err := NewStore(db).ListActiveRaffles(ctx, domain.PaginationParams{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, got, 1)
	assert.Equal(t, "raffle-3", got[0].ID)
	assert.Nil(t, got[0].EndDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListRafflesDue(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`end_date <= \$1`).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows(raffleCols))

	got, err := NewStore(db).ListRafflesDue(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func strPtr(s string) *string { return &s }
