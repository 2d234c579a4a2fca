package db

import (
	"net/url"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "school-system/pkg/errors"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var testSpec = ListSpec{
	Table:         "branches",
	Alias:         "b",
	Columns:       []string{"id", "school_id", "name"},
	SearchColumns: []string{"name", "code"},
	RelatedSearches: []RelatedSearch{{
		From:    "schools s",
		Link:    "s.id = b.school_id",
		Columns: []string{"s.name", "s.code"},
	}},
	Filters:     map[string]FilterFunc{"school_id": EqFilter("b.school_id")},
	SortColumns: []string{"name", "created_at"},
	RelatedSorts: map[string]RelatedSort{
		"school_name": {Joins: []string{"LEFT JOIN schools ss ON ss.id = b.school_id"}, Column: "ss.name"},
	},
	SoftDelete: true,
}

func build(t *testing.T, query string) Plan {
	t.Helper()
	values, err := url.ParseQuery(query)
	require.NoError(t, err)
	plan, err := BuildPlan(testSpec, ParseListParams(values))
	require.NoError(t, err)
	return plan
}

func TestBuildPlan_Defaults(t *testing.T) {
	plan := build(t, "")

	sql, args, err := plan.SelectQuery(psql).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT b.id, b.school_id, b.name FROM branches b WHERE b.deleted_at IS NULL ORDER BY b.created_at DESC, b.id DESC LIMIT 15 OFFSET 0",
		sql)
	assert.Empty(t, args)
	assert.Equal(t, "created_at", plan.Applied["sort_by"])
	assert.Equal(t, "desc", plan.Applied["sort_order"])
}

func TestBuildPlan_SearchUsesExistsForParent(t *testing.T) {
	plan := build(t, "search=+Lin%25coln+")

	sql, args, err := plan.CountQuery(psql).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT COUNT(*) FROM branches b WHERE b.deleted_at IS NULL AND (b.name ILIKE $1 OR b.code ILIKE $2 OR EXISTS (SELECT 1 FROM schools s WHERE s.id = b.school_id AND (s.name ILIKE $3 OR s.code ILIKE $4)))",
		sql)
	require.Len(t, args, 4)
	for _, a := range args {
		assert.Equal(t, `%Lin\%coln%`, a, "поисковая строка должна экранироваться и обрезаться")
	}
	assert.Equal(t, "Lin%coln", plan.Applied["search"])
}

func TestBuildPlan_EmptySearchIsNoSearch(t *testing.T) {
	plan := build(t, "search=+++")
	assert.Len(t, plan.Predicates, 1, "только условие deleted_at")
	assert.NotContains(t, plan.Applied, "search")
}

func TestBuildPlan_FilterAndDateRange(t *testing.T) {
	plan := build(t, "school_id=4&date_from=2024-01-01&date_to=2024-01-31&unknown=1")

	sql, args, err := plan.CountQuery(psql).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT COUNT(*) FROM branches b WHERE b.deleted_at IS NULL AND b.school_id = $1 AND b.created_at::date >= $2::date AND b.created_at::date <= $3::date",
		sql)
	assert.Equal(t, []interface{}{uint64(4), "2024-01-01", "2024-01-31"}, args)
	assert.Equal(t, "4", plan.Applied["school_id"])
	assert.NotContains(t, plan.Applied, "unknown")
}

func TestBuildPlan_InvalidFilterValues(t *testing.T) {
	values, _ := url.ParseQuery("school_id=abc&date_from=01/02/2024")
	_, err := BuildPlan(testSpec, ParseListParams(values))

	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "school_id")
	assert.Contains(t, verr.Fields, "date_from")
}

func TestBuildPlan_RelatedSortJoinsButSelectsBaseColumns(t *testing.T) {
	plan := build(t, "sort_by=school_name&sort_order=asc")

	sql, _, err := plan.SelectQuery(psql).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT b.id, b.school_id, b.name FROM branches b LEFT JOIN schools ss ON ss.id = b.school_id WHERE b.deleted_at IS NULL ORDER BY ss.name ASC, b.id ASC LIMIT 15 OFFSET 0",
		sql)

	countSQL, _, _ := plan.CountQuery(psql).ToSql()
	assert.NotContains(t, countSQL, "JOIN")
}

func TestBuildPlan_UnknownSortFallsBackToDefault(t *testing.T) {
	def := build(t, "")
	for _, q := range []string{"sort_by=password", "sort_by=name%3B+DROP+TABLE+x&sort_order=asc", "sort_by=created_at&sort_order=sideways"} {
		plan := build(t, q)
		assert.Equal(t, def.OrderBy, plan.OrderBy, q)
		assert.Empty(t, plan.Joins, q)
	}
}

func TestBuildPlan_SortOrderOtherThanAscIsDesc(t *testing.T) {
	plan := build(t, "sort_by=name&sort_order=UP")
	assert.Equal(t, []string{"b.name DESC", "b.id DESC"}, plan.OrderBy)
}

func TestBuildPlan_TrashedModes(t *testing.T) {
	with := build(t, "trashed=with")
	assert.Empty(t, with.Predicates)

	only := build(t, "trashed=only")
	sql, _, _ := only.CountQuery(psql).ToSql()
	assert.Contains(t, sql, "b.deleted_at IS NOT NULL")
}

func TestBuildPlan_Pagination(t *testing.T) {
	plan := build(t, "page=3&per_page=20")
	assert.Equal(t, uint64(20), plan.Limit())
	assert.Equal(t, uint64(40), plan.Offset())

	capped := build(t, "per_page=1000&page=-2")
	assert.Equal(t, uint64(MaxPerPage), capped.Limit())
	assert.Equal(t, uint64(0), capped.Offset())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now\\`, EscapeLike(`50% off_now\`))
}
