package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"examdash/internal/dataset"
)

// LeaderboardSize is the number of students on each improvement leaderboard.
const LeaderboardSize = 5

const (
	scoreMonthlySuffix = "_分数_Monthly"
	scoreMidtermSuffix = "_分数_Midterm"
	rankMonthlySuffix  = "_联考排名_Monthly"
	rankMidtermSuffix  = "_联考排名_Midterm"
)

// layout records which optional columns the comparison table carries and
// the SQL expressions derived from them.
type layout struct {
	have     map[string]bool
	subjects []string

	rankMonthly string
	rankMidterm string
	improvement string
}

func newLayout(cols []string) layout {
	l := layout{have: make(map[string]bool, len(cols))}
	for _, c := range cols {
		l.have[c] = true
	}

	seen := map[string]bool{}
	for _, c := range cols {
		for _, suffix := range []string{scoreMonthlySuffix, rankMonthlySuffix} {
			if name, ok := strings.CutSuffix(c, suffix); ok && name != "" && !seen[name] {
				seen[name] = true
				l.subjects = append(l.subjects, name)
			}
		}
	}

	switch {
	case l.pair("Total_Joint_Rank_Monthly", "Total_Joint_Rank_Midterm"):
		l.rankMonthly, l.rankMidterm = l.num("Total_Joint_Rank_Monthly"), l.num("Total_Joint_Rank_Midterm")
	default:
		l.rankMonthly, l.rankMidterm = l.num("Total_School_Rank_Monthly"), l.num("Total_School_Rank_Midterm")
	}

	switch {
	case l.have["Improvement_School_Rank"]:
		l.improvement = l.num("Improvement_School_Rank")
	case l.pair("Total_School_Rank_Monthly", "Total_School_Rank_Midterm"):
		l.improvement = fmt.Sprintf("(%s - %s)", l.num("Total_School_Rank_Monthly"), l.num("Total_School_Rank_Midterm"))
	default:
		l.improvement = fmt.Sprintf("(%s - %s)", l.rankMonthly, l.rankMidterm)
	}
	return l
}

func (l layout) pair(a, b string) bool {
	return l.have[a] && l.have[b]
}

// num casts a VARCHAR column to DOUBLE; absent columns read as NULL.
func (l layout) num(col string) string {
	if !l.have[col] {
		return "CAST(NULL AS DOUBLE)"
	}
	return fmt.Sprintf("TRY_CAST(%s AS DOUBLE)", quoteIdent(col))
}

func (l layout) text(col string) string {
	if !l.have[col] {
		return "CAST(NULL AS VARCHAR)"
	}
	return fmt.Sprintf("trim(%s)", quoteIdent(col))
}

// BuildDataset derives the dashboard document from the comparison table.
func (w *Warehouse) BuildDataset(ctx context.Context) (*dataset.Dataset, error) {
	start := time.Now()
	cols, err := w.Columns(ctx, ComparisonTable)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s is empty or missing, import a file first", ComparisonTable)
	}
	l := newLayout(cols)

	ds := &dataset.Dataset{}
	if ds.GlobalStats, err = w.globalStats(ctx, l); err != nil {
		return nil, err
	}
	if ds.SubjectStats, err = w.subjectStats(ctx, l); err != nil {
		return nil, err
	}
	if ds.ClassStats, err = w.classStats(ctx, l); err != nil {
		return nil, err
	}
	if ds.TopImprovers, err = w.improvers(ctx, l, "DESC"); err != nil {
		return nil, err
	}
	if ds.BottomImprovers, err = w.improvers(ctx, l, "ASC"); err != nil {
		return nil, err
	}
	if ds.Students, err = w.students(ctx, l); err != nil {
		return nil, err
	}

	w.logger.Info("Dataset built",
		"students", len(ds.Students),
		"subjects", len(ds.SubjectStats),
		"classes", len(ds.ClassStats),
		"duration", time.Since(start).String())
	return ds.Normalize(), nil
}

func (w *Warehouse) globalStats(ctx context.Context, l layout) (dataset.GlobalStats, error) {
	monthly, midterm := l.num("Total_Score_Monthly"), l.num("Total_Score_Midterm")

	var (
		g          dataset.GlobalStats
		count      int64
		avgMonthly sql.NullFloat64
		avgMidterm sql.NullFloat64
	)
	query := fmt.Sprintf(`SELECT count(*), avg(%s), avg(%s) FROM %s`, monthly, midterm, ComparisonTable)
	if err := w.conn.QueryRowContext(ctx, query).Scan(&count, &avgMonthly, &avgMidterm); err != nil {
		return g, fmt.Errorf("failed to compute global stats: %w", err)
	}
	g.TotalStudents = int(count)
	g.AvgScoreMonthly = avgMonthly.Float64
	g.AvgScoreMidterm = avgMidterm.Float64

	var err error
	if g.ScoreDistribution.Monthly, err = w.floats(ctx, monthly); err != nil {
		return g, err
	}
	if g.ScoreDistribution.Midterm, err = w.floats(ctx, midterm); err != nil {
		return g, err
	}
	return g, nil
}

// floats returns the non-null values of expr in table order.
func (w *Warehouse) floats(ctx context.Context, expr string) ([]float64, error) {
	query := fmt.Sprintf(`
		SELECT v FROM (SELECT rowid AS rid, %s AS v FROM %s)
		WHERE v IS NOT NULL
		ORDER BY rid
	`, expr, ComparisonTable)
	rows, err := w.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read scores: %w", err)
	}
	defer rows.Close()

	values := []float64{}
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func (w *Warehouse) subjectStats(ctx context.Context, l layout) ([]dataset.SubjectStat, error) {
	stats := []dataset.SubjectStat{}
	for _, sub := range l.subjects {
		mon, mid := sub+scoreMonthlySuffix, sub+scoreMidtermSuffix
		if !l.pair(mon, mid) {
			continue
		}

		var avgMonthly, avgMidterm sql.NullFloat64
		query := fmt.Sprintf(`SELECT avg(%s), avg(%s) FROM %s`, l.num(mon), l.num(mid), ComparisonTable)
		if err := w.conn.QueryRowContext(ctx, query).Scan(&avgMonthly, &avgMidterm); err != nil {
			return nil, fmt.Errorf("failed to compute %s averages: %w", sub, err)
		}

		stat := dataset.SubjectStat{
			Subject:    sub,
			AvgMonthly: avgMonthly.Float64,
			AvgMidterm: avgMidterm.Float64,
		}
		if avgMonthly.Valid && avgMidterm.Valid {
			stat.Delta = round2(avgMidterm.Float64 - avgMonthly.Float64)
		}
		stats = append(stats, stat)
	}
	return stats, nil
}

func (w *Warehouse) classStats(ctx context.Context, l layout) ([]dataset.ClassStat, error) {
	monthly, midterm := l.num("Total_Score_Monthly"), l.num("Total_Score_Midterm")
	query := fmt.Sprintf(`
		SELECT class, avg(monthly), avg(midterm), avg(midterm - monthly), avg(improvement)
		FROM (
			SELECT trim("Class_Midterm") AS class, %s AS monthly, %s AS midterm, %s AS improvement
			FROM %s
		)
		WHERE class IS NOT NULL AND class <> ''
		GROUP BY class
		ORDER BY TRY_CAST(class AS DOUBLE) NULLS LAST, class
	`, monthly, midterm, l.improvement, ComparisonTable)

	rows, err := w.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to compute class stats: %w", err)
	}
	defer rows.Close()

	stats := []dataset.ClassStat{}
	for rows.Next() {
		var (
			class                    string
			mon, mid, change, improv sql.NullFloat64
		)
		if err := rows.Scan(&class, &mon, &mid, &change, &improv); err != nil {
			return nil, fmt.Errorf("failed to scan class stats: %w", err)
		}
		stats = append(stats, dataset.ClassStat{
			ClassLabel:         dataset.ParseLabel(class),
			AvgMonthly:         mon.Float64,
			AvgMidterm:         mid.Float64,
			AvgScoreChange:     change.Float64,
			AvgRankImprovement: improv.Float64,
		})
	}
	return stats, rows.Err()
}

// improvers returns the LeaderboardSize students with the largest (DESC) or
// smallest (ASC) rank improvement. Ties keep table order.
func (w *Warehouse) improvers(ctx context.Context, l layout, direction string) ([]dataset.Improver, error) {
	query := fmt.Sprintf(`
		SELECT name, class, improvement FROM (
			SELECT rowid AS rid, %s AS name, %s AS class, %s AS improvement FROM %s
		)
		WHERE improvement IS NOT NULL
		ORDER BY improvement %s, rid
		LIMIT %d
	`, l.text("Name_Midterm"), l.text("Class_Midterm"), l.improvement, ComparisonTable, direction, LeaderboardSize)

	rows, err := w.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to rank improvers: %w", err)
	}
	defer rows.Close()

	list := []dataset.Improver{}
	for rows.Next() {
		var (
			name, class sql.NullString
			improvement float64
		)
		if err := rows.Scan(&name, &class, &improvement); err != nil {
			return nil, fmt.Errorf("failed to scan improver: %w", err)
		}
		list = append(list, dataset.Improver{
			Name:       name.String,
			ClassLabel: dataset.ParseLabel(class.String),
			RankChange: int(math.Round(improvement)),
		})
	}
	return list, rows.Err()
}

func (w *Warehouse) students(ctx context.Context, l layout) ([]dataset.Student, error) {
	exprs := []string{
		l.text("StudentID"),
		l.text("Name_Midterm"),
		l.text("Class_Midterm"),
		l.num("Total_Score_Monthly"),
		l.num("Total_Score_Midterm"),
		l.rankMonthly,
		l.rankMidterm,
	}
	for _, sub := range l.subjects {
		exprs = append(exprs, l.num(sub+rankMonthlySuffix), l.num(sub+rankMidtermSuffix))
	}
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY rowid`, strings.Join(exprs, ", "), ComparisonTable)

	rows, err := w.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read students: %w", err)
	}
	defer rows.Close()

	students := []dataset.Student{}
	for rows.Next() {
		var (
			id, name, class            sql.NullString
			scoreMonthly, scoreMidterm sql.NullFloat64
			rankMonthly, rankMidterm   sql.NullFloat64
		)
		subjectRanks := make([]sql.NullFloat64, 2*len(l.subjects))
		dest := []any{&id, &name, &class, &scoreMonthly, &scoreMidterm, &rankMonthly, &rankMidterm}
		for i := range subjectRanks {
			dest = append(dest, &subjectRanks[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		if id.String == "" {
			continue
		}

		s := dataset.Student{
			StudentID:         dataset.ParseLabel(id.String),
			Name:              name.String,
			ClassLabel:        dataset.ParseLabel(class.String),
			TotalScoreMonthly: scoreMonthly.Float64,
			TotalScoreMidterm: scoreMidterm.Float64,
			TotalRankMonthly:  rank(rankMonthly),
			TotalRankMidterm:  rank(rankMidterm),
			Subjects:          make([]dataset.SubjectRank, 0, len(l.subjects)),
		}
		s.RankChange = dataset.SubjectChange(s.TotalRankMonthly, s.TotalRankMidterm)

		for i, sub := range l.subjects {
			mon, mid := rank(subjectRanks[2*i]), rank(subjectRanks[2*i+1])
			s.Subjects = append(s.Subjects, dataset.SubjectRank{
				Name:        sub,
				RankMonthly: mon,
				RankMidterm: mid,
				Change:      dataset.SubjectChange(mon, mid),
			})
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

func rank(v sql.NullFloat64) int {
	if !v.Valid || v.Float64 <= 0 {
		return 0
	}
	return int(math.Round(v.Float64))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
