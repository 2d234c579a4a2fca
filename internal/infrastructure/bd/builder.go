package db

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	apperrors "school-system/pkg/errors"
)

const (
	DefaultPerPage = 15
	MaxPerPage     = 100
	dateLayout     = "2006-01-02"
)

// Режимы видимости мягко удалённых строк.
const (
	TrashedExclude = ""
	TrashedWith    = "with"
	TrashedOnly    = "only"
)

// FilterFunc строит условие для значения внешнего ключа.
type FilterFunc func(id uint64) sq.Sqlizer

// EqFilter - точное совпадение по колонке.
func EqFilter(column string) FilterFunc {
	return func(id uint64) sq.Sqlizer { return sq.Eq{column: id} }
}

// ExistsFilter - совпадение через связанную таблицу, например school_id у отделов.
// condition должен содержать ровно один "?".
func ExistsFilter(from, link, condition string) FilterFunc {
	return func(id uint64) sq.Sqlizer {
		return sq.Expr(fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE %s AND %s)", from, link, condition), id)
	}
}

// RelatedSearch ищет по колонкам родительской сущности через EXISTS, без дублирования строк.
type RelatedSearch struct {
	From    string
	Link    string
	Columns []string
}

// RelatedSort сортирует по колонке связанной таблицы, подключая её через Joins.
type RelatedSort struct {
	Joins  []string
	Column string
}

// ListSpec описывает, как сущность ищется, фильтруется и сортируется.
type ListSpec struct {
	Table           string
	Alias           string
	Columns         []string
	SearchColumns   []string
	RelatedSearches []RelatedSearch
	Filters         map[string]FilterFunc
	SortColumns     []string
	RelatedSorts    map[string]RelatedSort
	SoftDelete      bool
}

func (s ListSpec) col(name string) string { return s.Alias + "." + name }

// ListParams - сырые параметры списка из строки запроса.
type ListParams struct {
	Search    string
	DateFrom  string
	DateTo    string
	SortBy    string
	SortOrder string
	Trashed   string
	Page      uint64
	PerPage   uint64
	Filters   map[string]string
}

var reservedParams = map[string]bool{
	"search": true, "date_from": true, "date_to": true, "sort_by": true,
	"sort_order": true, "trashed": true, "page": true, "per_page": true, "format": true,
}

// ParseListParams читает параметры без знания конкретной сущности. Некорректные page/per_page -> значения по умолчанию.
func ParseListParams(values url.Values) ListParams {
	p := ListParams{
		Search:    values.Get("search"),
		DateFrom:  strings.TrimSpace(values.Get("date_from")),
		DateTo:    strings.TrimSpace(values.Get("date_to")),
		SortBy:    strings.TrimSpace(values.Get("sort_by")),
		SortOrder: strings.ToLower(strings.TrimSpace(values.Get("sort_order"))),
		Trashed:   strings.ToLower(strings.TrimSpace(values.Get("trashed"))),
		Page:      1,
		PerPage:   DefaultPerPage,
		Filters:   make(map[string]string),
	}

	if n, err := strconv.ParseUint(values.Get("page"), 10, 64); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.ParseUint(values.Get("per_page"), 10, 64); err == nil && n > 0 {
		p.PerPage = min(n, MaxPerPage)
	}

	for key, vals := range values {
		if reservedParams[key] || len(vals) == 0 {
			continue
		}
		if v := strings.TrimSpace(vals[0]); v != "" {
			p.Filters[key] = v
		}
	}
	return p
}

// Plan - готовое описание запроса списка. Не зависит от драйвера БД.
type Plan struct {
	From       string
	Columns    []string
	Predicates []sq.Sqlizer
	Joins      []string
	OrderBy    []string
	Page       uint64
	PerPage    uint64
	Applied    map[string]string
}

func (p Plan) Limit() uint64  { return p.PerPage }
func (p Plan) Offset() uint64 { return (p.Page - 1) * p.PerPage }

// BuildPlan превращает параметры в план запроса для конкретной сущности.
func BuildPlan(spec ListSpec, params ListParams) (Plan, error) {
	page, perPage := params.Page, params.PerPage
	if page == 0 {
		page = 1
	}
	if perPage == 0 {
		perPage = DefaultPerPage
	}
	perPage = min(perPage, MaxPerPage)

	plan := Plan{
		From:    spec.Table + " " + spec.Alias,
		Page:    page,
		PerPage: perPage,
		Applied: make(map[string]string),
	}
	for _, c := range spec.Columns {
		plan.Columns = append(plan.Columns, spec.col(c))
	}

	verr := &apperrors.ValidationError{}

	// --- 1. МЯГКОЕ УДАЛЕНИЕ ---
	if spec.SoftDelete {
		switch params.Trashed {
		case TrashedWith:
			plan.Applied["trashed"] = TrashedWith
		case TrashedOnly:
			plan.Predicates = append(plan.Predicates, sq.Expr(spec.col("deleted_at")+" IS NOT NULL"))
			plan.Applied["trashed"] = TrashedOnly
		default:
			plan.Predicates = append(plan.Predicates, sq.Expr(spec.col("deleted_at")+" IS NULL"))
		}
	}

	// --- 2. ПОИСК ---
	if term := strings.TrimSpace(params.Search); term != "" {
		plan.Predicates = append(plan.Predicates, searchPredicate(spec, term))
		plan.Applied["search"] = term
	}

	// --- 3. ФИЛЬТРЫ ПО ВНЕШНИМ КЛЮЧАМ ---
	keys := make([]string, 0, len(spec.Filters))
	for k := range spec.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		raw, ok := params.Filters[key]
		if !ok {
			continue
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			verr.Add(key, fmt.Sprintf("The %s must be a positive integer.", humanize(key)))
			continue
		}
		plan.Predicates = append(plan.Predicates, spec.Filters[key](id))
		plan.Applied[key] = raw
	}

	// --- 4. ДИАПАЗОН ДАТ ---
	createdDate := spec.col("created_at") + "::date"
	if params.DateFrom != "" {
		if _, err := time.Parse(dateLayout, params.DateFrom); err != nil {
			verr.Add("date_from", "The date from does not match the format Y-m-d.")
		} else {
			plan.Predicates = append(plan.Predicates, sq.Expr(createdDate+" >= ?::date", params.DateFrom))
			plan.Applied["date_from"] = params.DateFrom
		}
	}
	if params.DateTo != "" {
		if _, err := time.Parse(dateLayout, params.DateTo); err != nil {
			verr.Add("date_to", "The date to does not match the format Y-m-d.")
		} else {
			plan.Predicates = append(plan.Predicates, sq.Expr(createdDate+" <= ?::date", params.DateTo))
			plan.Applied["date_to"] = params.DateTo
		}
	}

	if err := verr.OrNil(); err != nil {
		return Plan{}, err
	}

	// --- 5. СОРТИРОВКА ---
	plan.Joins, plan.OrderBy = orderClause(spec, params, plan.Applied)

	return plan, nil
}

func orderClause(spec ListSpec, params ListParams, applied map[string]string) ([]string, []string) {
	dir := "DESC"
	if params.SortOrder == "asc" {
		dir = "ASC"
	}

	if params.SortBy != "" {
		for _, c := range spec.SortColumns {
			if c == params.SortBy {
				applied["sort_by"], applied["sort_order"] = c, strings.ToLower(dir)
				return nil, []string{spec.col(c) + " " + dir, spec.col("id") + " " + dir}
			}
		}
		if rel, ok := spec.RelatedSorts[params.SortBy]; ok {
			applied["sort_by"], applied["sort_order"] = params.SortBy, strings.ToLower(dir)
			return rel.Joins, []string{rel.Column + " " + dir, spec.col("id") + " " + dir}
		}
	}

	// Неизвестное поле или его отсутствие: новые сверху
	applied["sort_by"], applied["sort_order"] = "created_at", "desc"
	return nil, []string{spec.col("created_at") + " DESC", spec.col("id") + " DESC"}
}

func searchPredicate(spec ListSpec, term string) sq.Sqlizer {
	pattern := "%" + EscapeLike(term) + "%"

	or := sq.Or{}
	for _, c := range spec.SearchColumns {
		or = append(or, sq.ILike{spec.col(c): pattern})
	}
	for _, rel := range spec.RelatedSearches {
		inner := sq.Or{}
		for _, c := range rel.Columns {
			inner = append(inner, sq.ILike{c: pattern})
		}
		innerSQL, args, err := inner.ToSql()
		if err != nil {
			continue
		}
		or = append(or, sq.Expr(fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE %s AND %s)", rel.From, rel.Link, innerSQL), args...))
	}
	return or
}

// EscapeLike экранирует спецсимволы LIKE, чтобы строка искалась буквально.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func humanize(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}

// SelectQuery - выборка страницы. Колонки только базовой таблицы.
func (p Plan) SelectQuery(builder sq.StatementBuilderType) sq.SelectBuilder {
	q := builder.Select(p.Columns...).From(p.From)
	for _, j := range p.Joins {
		q = q.JoinClause(j)
	}
	for _, pred := range p.Predicates {
		q = q.Where(pred)
	}
	return q.OrderBy(p.OrderBy...).Limit(p.Limit()).Offset(p.Offset())
}

// CountQuery - общее количество без пагинации. JOIN-ы сортировки не нужны.
func (p Plan) CountQuery(builder sq.StatementBuilderType) sq.SelectBuilder {
	q := builder.Select("COUNT(*)").From(p.From)
	for _, pred := range p.Predicates {
		q = q.Where(pred)
	}
	return q
}
