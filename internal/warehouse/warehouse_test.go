package warehouse

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"examdash/internal/dataset"
	"examdash/internal/workbook"
)

const fixture = "testdata/comparison.csv"

func openTestWarehouse(t *testing.T) *Warehouse {
	t.Helper()
	w, err := Open("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w
}

func loadFixture(t *testing.T) (*Warehouse, *dataset.Dataset) {
	t.Helper()
	w := openTestWarehouse(t)
	ctx := context.Background()
	require.NoError(t, w.ImportCSV(ctx, fixture))
	ds, err := w.BuildDataset(ctx)
	require.NoError(t, err)
	return w, ds
}

func TestBuildDatasetGlobalStats(t *testing.T) {
	_, ds := loadFixture(t)

	g := ds.GlobalStats
	assert.Equal(t, 6, g.TotalStudents)
	assert.InDelta(t, 488.333, g.AvgScoreMonthly, 0.01)
	assert.InDelta(t, 505.0, g.AvgScoreMidterm, 0.001)
	assert.Equal(t, []float64{480, 510, 450, 530, 400, 560}, g.ScoreDistribution.Monthly)
	assert.Len(t, g.ScoreDistribution.Midterm, 6)
}

func TestBuildDatasetSubjectStats(t *testing.T) {
	_, ds := loadFixture(t)

	require.Len(t, ds.SubjectStats, 2)
	assert.Equal(t, []string{"语文", "数学"}, ds.SubjectNames(), "subjects keep column order")

	chinese := ds.SubjectStats[0]
	assert.InDelta(t, 92.5, chinese.AvgMonthly, 0.001)
	assert.InDelta(t, 96.0, chinese.AvgMidterm, 0.001)
	assert.InDelta(t, 3.5, chinese.Delta, 0.001)

	math := ds.SubjectStats[1]
	assert.InDelta(t, 93.0, math.AvgMonthly, 0.001, "missing score is excluded from the average")
}

func TestBuildDatasetClassStatsNumericOrder(t *testing.T) {
	_, ds := loadFixture(t)

	require.Len(t, ds.ClassStats, 3)
	labels := []dataset.Label{}
	for _, c := range ds.ClassStats {
		labels = append(labels, c.ClassLabel)
	}
	assert.Equal(t, []dataset.Label{"1", "2", "10"}, labels)

	first := ds.ClassStats[0]
	assert.InDelta(t, 495.0, first.AvgMonthly, 0.001)
	assert.InDelta(t, 510.0, first.AvgMidterm, 0.001)
	assert.InDelta(t, 15.0, first.AvgScoreChange, 0.001)
	assert.InDelta(t, 3.0, first.AvgRankImprovement, 0.001)

	assert.InDelta(t, 490.0, ds.ClassStats[1].AvgMonthly, 0.001)
	assert.InDelta(t, 507.5, ds.ClassStats[1].AvgMidterm, 0.001)
	assert.InDelta(t, 480.0, ds.ClassStats[2].AvgMonthly, 0.001)
	assert.InDelta(t, 497.5, ds.ClassStats[2].AvgMidterm, 0.001)
}

func TestBuildDatasetLeaderboards(t *testing.T) {
	_, ds := loadFixture(t)

	require.Len(t, ds.TopImprovers, LeaderboardSize)
	names := []string{}
	changes := []int{}
	for _, imp := range ds.TopImprovers {
		names = append(names, imp.Name)
		changes = append(changes, imp.RankChange)
	}
	assert.Equal(t, []string{"钱七", "张三", "王五", "赵六", "孙八"}, names)
	assert.Equal(t, []int{12, 10, 5, 1, -3}, changes)
	assert.Equal(t, dataset.Label("10"), ds.TopImprovers[0].ClassLabel)

	require.Len(t, ds.BottomImprovers, LeaderboardSize)
	assert.Equal(t, "李四", ds.BottomImprovers[0].Name)
	assert.Equal(t, -4, ds.BottomImprovers[0].RankChange)
	assert.Equal(t, "孙八", ds.BottomImprovers[1].Name)
}

func TestBuildDatasetStudents(t *testing.T) {
	_, ds := loadFixture(t)

	require.Len(t, ds.Students, 6)

	s, ok := ds.Student("1001")
	require.True(t, ok)
	assert.Equal(t, "张三", s.Name)
	assert.Equal(t, dataset.Label("1"), s.ClassLabel)
	assert.Equal(t, 200, s.TotalRankMonthly, "joint ranks are preferred over school ranks")
	assert.Equal(t, 120, s.TotalRankMidterm)
	assert.Equal(t, 80, s.RankChange)
	assert.True(t, s.RankConsistent())

	require.Len(t, s.Subjects, 2)
	assert.Equal(t, dataset.SubjectRank{Name: "语文", RankMonthly: 150, RankMidterm: 100, Change: 50}, s.Subjects[0])

	absent, ok := ds.Student("1003")
	require.True(t, ok)
	assert.Equal(t, dataset.SubjectRank{Name: "数学", RankMonthly: 0, RankMidterm: 90, Change: 0}, absent.Subjects[1])

	for _, st := range ds.Students {
		assert.True(t, st.RankConsistent(), "student %s", st.StudentID)
	}
}

func TestImportCSVMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("StudentID,Class_Midterm\n1,1\n"), 0644))

	w := openTestWarehouse(t)
	err := w.ImportCSV(context.Background(), path)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestBuildDatasetWithoutImport(t *testing.T) {
	w := openTestWarehouse(t)
	_, err := w.BuildDataset(context.Background())
	assert.Error(t, err)
}

func TestImportFileWorkbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", workbook.StudentSheet))
	require.NoError(t, f.SetSheetRow(workbook.StudentSheet, "A1", &[]any{
		"StudentID", "Name_Midterm", "Class_Midterm", "Total_Score_Monthly", "Total_Score_Midterm",
		"Total_School_Rank_Monthly", "Total_School_Rank_Midterm",
	}))
	require.NoError(t, f.SetSheetRow(workbook.StudentSheet, "A2", &[]any{"2001", "周九", 3, 500, 520, 15, 9}))
	require.NoError(t, f.SetSheetRow(workbook.StudentSheet, "A3", &[]any{"2002", "吴十", 3, 520, 505, 9, 15}))

	path := filepath.Join(t.TempDir(), "analysis_result.xlsx")
	require.NoError(t, f.SaveAs(path))

	w := openTestWarehouse(t)
	ctx := context.Background()
	require.NoError(t, w.ImportFile(ctx, path))

	ds, err := w.BuildDataset(ctx)
	require.NoError(t, err)
	require.Len(t, ds.Students, 2)
	assert.Equal(t, 6, ds.Students[0].RankChange, "school ranks are used without joint ranks")
	assert.Empty(t, ds.SubjectStats)
	assert.Equal(t, "周九", ds.TopImprovers[0].Name)
	assert.Equal(t, 6, ds.TopImprovers[0].RankChange)
}

func TestImportFileUnsupported(t *testing.T) {
	w := openTestWarehouse(t)
	err := w.ImportFile(context.Background(), "scores.json")
	assert.Error(t, err)
}

func TestExecuteQueryAndSchema(t *testing.T) {
	w, _ := loadFixture(t)
	ctx := context.Background()

	rows, err := w.ExecuteQuery(ctx, `SELECT "Name_Midterm" AS name FROM comparison WHERE "StudentID" = '1002'`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "李四", rows[0]["name"])

	tables, err := w.Tables(ctx)
	require.NoError(t, err)
	assert.Contains(t, tables, ComparisonTable)

	schema, err := w.Schema(ctx, ComparisonTable)
	require.NoError(t, err)
	assert.Equal(t, 18, schema.ColumnCount)
	assert.Equal(t, "StudentID", schema.Columns[0].Name)
	assert.Equal(t, "VARCHAR", schema.Columns[0].Type)

	_, err = w.ExecuteQuery(ctx, "SELECT * FROM nowhere")
	assert.Error(t, err)
}

func TestImportReplacesTable(t *testing.T) {
	w, _ := loadFixture(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "small.csv")
	require.NoError(t, os.WriteFile(path, []byte("StudentID,Name_Midterm,Class_Midterm\n9,某某,4\n"), 0644))
	require.NoError(t, w.ImportCSV(ctx, path))

	ds, err := w.BuildDataset(ctx)
	require.NoError(t, err)
	require.Len(t, ds.Students, 1)
	assert.Equal(t, 0, ds.Students[0].RankChange)
	assert.Empty(t, ds.TopImprovers)
}
