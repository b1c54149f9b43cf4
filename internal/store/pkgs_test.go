package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/texbld/texbld-manager/internal/models"
)

func currentIDs(t *testing.T, db *sql.DB) []int64 {
	t.Helper()
	rows, err := db.Query(`SELECT id FROM pkgs WHERE current != 0 ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	return ids
}

func buildIDs(builds []*models.Build) []int64 {
	ids := make([]int64, 0, len(builds))
	for _, b := range builds {
		ids = append(ids, b.ID)
	}
	return ids
}

func TestInsert_AssignsIncreasingIDs(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	stable, err := InsertStable(db, "0.3.0")
	require.NoError(t, err)
	nightly, err := InsertNightly(db)
	require.NoError(t, err)

	assert.Equal(t, int64(1), stable)
	assert.Equal(t, int64(2), nightly)

	b, err := GetBuild(db, nightly)
	require.NoError(t, err)
	assert.Equal(t, models.NightlyVersion, b.Version)
	assert.False(t, b.Current)
	assert.Nil(t, b.UsedAt)
	assert.False(t, b.CreatedAt.IsZero())
}

func TestInsert_IDsNeverReusedAfterRemove(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	var last int64
	for i := 0; i < 3; i++ {
		id, err := InsertNightly(db)
		require.NoError(t, err)
		require.Greater(t, id, last)
		last = id
	}

	require.NoError(t, RemoveBuild(db, last))
	require.NoError(t, RemoveBuild(db, 1))

	id, err := InsertStable(db, "0.4.0")
	require.NoError(t, err)
	assert.Equal(t, last+1, id)
}

func TestInsertStable_RejectsEmptyAndReservedVersions(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := InsertStable(db, "  ")
	require.ErrorIs(t, err, models.ErrInvalidVersion)

	_, err = InsertStable(db, "nightly")
	require.ErrorIs(t, err, models.ErrInvalidVersion)
	var ive *models.InvalidVersionError
	require.ErrorAs(t, err, &ive)
	assert.Equal(t, "nightly", ive.Version)

	all, err := ListAllBuilds(db)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestGetBuild_NotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	b, err := GetBuild(db, 99)
	require.ErrorIs(t, err, models.ErrNotFound)
	assert.Nil(t, b)
}

func TestSwitch_MakesExactlyOneCurrent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	a, err := InsertStable(db, "0.3.0")
	require.NoError(t, err)
	b, err := InsertNightly(db)
	require.NoError(t, err)

	switched, err := Switch(db, a)
	require.NoError(t, err)
	assert.True(t, switched.Current)
	require.NotNil(t, switched.UsedAt)
	assert.Equal(t, []int64{a}, currentIDs(t, db))

	_, err = Switch(db, b)
	require.NoError(t, err)
	assert.Equal(t, []int64{b}, currentIDs(t, db))

	// The previously current build keeps its used_at.
	prev, err := GetBuild(db, a)
	require.NoError(t, err)
	assert.False(t, prev.Current)
	require.NotNil(t, prev.UsedAt)
	assert.True(t, prev.UsedAt.Equal(*switched.UsedAt))
}

func TestSwitch_NotFoundLeavesStateAlone(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	a, err := InsertStable(db, "0.3.0")
	require.NoError(t, err)
	_, err = Switch(db, a)
	require.NoError(t, err)

	_, err = Switch(db, 42)
	require.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, []int64{a}, currentIDs(t, db))
}

func TestSwitch_TwiceRefreshesUsedAt(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	a, err := InsertStable(db, "0.3.0")
	require.NoError(t, err)

	first, err := Switch(db, a)
	require.NoError(t, err)
	second, err := Switch(db, a)
	require.NoError(t, err)

	assert.True(t, second.Current)
	assert.True(t, second.UsedAt.After(*first.UsedAt))
	assert.Equal(t, []int64{a}, currentIDs(t, db))
}

func TestSwitchTx_StampsStrictlyIncreaseWithStoppedClock(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	a, err := InsertStable(db, "0.3.0")
	require.NoError(t, err)
	b, err := InsertStable(db, "0.4.0")
	require.NoError(t, err)

	frozen := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	var stamps []time.Time
	for _, id := range []int64{b, a, b} {
		require.NoError(t, Transact(db, func(tx *sql.Tx) error {
			built, err := SwitchTx(tx, id, frozen)
			if err != nil {
				return err
			}
			stamps = append(stamps, *built.UsedAt)
			return nil
		}))
	}

	require.Len(t, stamps, 3)
	assert.True(t, stamps[1].After(stamps[0]))
	assert.True(t, stamps[2].After(stamps[1]))

	// a was used after the first switch to b, so it is the rollback target.
	target, err := RollbackTarget(db)
	require.NoError(t, err)
	assert.Equal(t, a, target.ID)
}

func TestRollback_FreshStore(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := Rollback(db)
	require.ErrorIs(t, err, models.ErrNothingToRollback)
}

func TestRollback_OnlyOneEverCurrent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	a, err := InsertStable(db, "0.3.0")
	require.NoError(t, err)
	_, err = InsertNightly(db)
	require.NoError(t, err)

	_, err = Switch(db, a)
	require.NoError(t, err)
	_, err = Switch(db, a)
	require.NoError(t, err)

	_, err = Rollback(db)
	require.ErrorIs(t, err, models.ErrNothingToRollback)
	assert.Equal(t, []int64{a}, currentIDs(t, db))
}

func TestRollback_Scenario(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	stable, err := InsertStable(db, "0.3.0")
	require.NoError(t, err)
	require.Equal(t, int64(1), stable)
	nightly, err := InsertNightly(db)
	require.NoError(t, err)
	require.Equal(t, int64(2), nightly)

	_, err = Switch(db, 1)
	require.NoError(t, err)
	_, err = Switch(db, 2)
	require.NoError(t, err)

	rolled, err := Rollback(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rolled.ID)
	assert.True(t, rolled.Current)
	assert.Equal(t, []int64{1}, currentIDs(t, db))

	// Rolling back again returns to the nightly.
	rolled, err = Rollback(db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rolled.ID)
}

func TestRollback_PicksMostRecentlyUsedNonCurrent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	for i := 0; i < 3; i++ {
		_, err := InsertNightly(db)
		require.NoError(t, err)
	}

	// A=1, B=2, C=3: switch B, A, C. Most recently used non-current is A.
	for _, id := range []int64{2, 1, 3} {
		_, err := Switch(db, id)
		require.NoError(t, err)
	}

	target, err := RollbackTarget(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), target.ID)

	// RollbackTarget is read-only.
	assert.Equal(t, []int64{3}, currentIDs(t, db))
}

func TestRemoveBuild_NotFoundLeavesDatabaseUnchanged(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := InsertNightly(db)
	require.NoError(t, err)
	require.NoError(t, RemoveBuild(db, 1))

	before, err := ListAllBuilds(db)
	require.NoError(t, err)

	err = RemoveBuild(db, 1)
	require.ErrorIs(t, err, models.ErrNotFound)

	after, err := ListAllBuilds(db)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestListStables_OrderAndCap(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	for i := 0; i < 12; i++ {
		_, err := InsertStable(db, "0.3."+string(rune('a'+i)))
		require.NoError(t, err)
	}
	_, err := InsertNightly(db)
	require.NoError(t, err)

	// Use 3 then 5: used builds lead, most recent use first.
	_, err = Switch(db, 3)
	require.NoError(t, err)
	_, err = Switch(db, 5)
	require.NoError(t, err)

	stables, err := ListStables(db)
	require.NoError(t, err)
	require.Len(t, stables, 10)
	assert.Equal(t, []int64{5, 3, 12, 11, 10, 9, 8, 7, 6, 4}, buildIDs(stables))
	for _, b := range stables {
		assert.False(t, b.IsNightly())
	}
}

func TestListNightlies_CreatedAtTieBrokenByID(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	stamp := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, Transact(db, func(tx *sql.Tx) error {
		for i := 0; i < 3; i++ {
			if _, err := InsertBuildTx(tx, models.NightlyVersion, stamp); err != nil {
				return err
			}
		}
		_, err := InsertBuildTx(tx, "0.3.0", stamp)
		return err
	}))

	nightlies, err := ListNightlies(db)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2, 1}, buildIDs(nightlies))
}

func TestListNightlies_CapAtTen(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	for i := 0; i < 15; i++ {
		_, err := InsertNightly(db)
		require.NoError(t, err)
	}

	nightlies, err := ListNightlies(db)
	require.NoError(t, err)
	assert.Len(t, nightlies, 10)
	assert.Equal(t, int64(15), nightlies[0].ID)

	all, err := ListAllBuilds(db)
	require.NoError(t, err)
	assert.Len(t, all, 15)
}

func TestHistory_CurrentFirstThenRecency(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	for i := 0; i < 4; i++ {
		_, err := InsertNightly(db)
		require.NoError(t, err)
	}

	for _, id := range []int64{1, 2, 3, 2} {
		_, err := Switch(db, id)
		require.NoError(t, err)
	}

	history, err := History(db)
	require.NoError(t, err)
	// 4 was never used and is excluded.
	assert.Equal(t, []int64{2, 3, 1}, buildIDs(history))
	assert.True(t, history[0].Current)
}

func TestHistory_CapAtTwenty(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	for i := 0; i < 25; i++ {
		id, err := InsertNightly(db)
		require.NoError(t, err)
		_, err = Switch(db, id)
		require.NoError(t, err)
	}

	history, err := History(db)
	require.NoError(t, err)
	assert.Len(t, history, 20)
	assert.Equal(t, int64(25), history[0].ID)
}

func TestGetCurrent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	current, err := GetCurrent(db)
	require.NoError(t, err)
	assert.Nil(t, current)

	id, err := InsertStable(db, "0.3.0")
	require.NoError(t, err)
	_, err = Switch(db, id)
	require.NoError(t, err)

	current, err = GetCurrent(db)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, id, current.ID)

	require.NoError(t, RemoveBuild(db, id))
	current, err = GetCurrent(db)
	require.NoError(t, err)
	assert.Nil(t, current)
}
