package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

var testSchema = []string{
	"TAVG", "RH_AVG", "SS", "FF_AVG",
	"RR_Lag1", "RR_Lag2", "RR_Lag3",
	"RR_Roll3_Mean", "RR_Roll3_Max",
}

// testDocument builds a two-tree model over testSchema:
//
//	tree 0: RR_Lag1 < 20 ? (RH_AVG < 90 ? -1.0 : 0.2) : 1.5
//	tree 1: TAVG < 23 ? 0.4 : -0.3
func testDocument() Document {
	return Document{
		Version: []int{2, 1, 3},
		Learner: LearnerDocument{
			Attributes: map[string]string{},
			GradientBooster: GradientBoosterDocument{
				Name: "gbtree",
				Model: GBTreeModelDocument{
					Param:    GBTreeParamDocument{NumTrees: "2", NumParallelTree: "1"},
					TreeInfo: []int{0, 0},
					Trees: []TreeDocument{
						{
							ID:              0,
							LeftChildren:    []int{1, 3, -1, -1, -1},
							RightChildren:   []int{2, 4, -1, -1, -1},
							SplitIndices:    []int{4, 1, 0, 0, 0},
							SplitConditions: []float64{20, 90, 1.5, -1.0, 0.2},
							DefaultLeft:     []FlexBool{true, false, false, false, false},
							LossChanges:     []float64{10, 4, 0, 0, 0},
						},
						{
							ID:              1,
							LeftChildren:    []int{1, -1, -1},
							RightChildren:   []int{2, -1, -1},
							SplitIndices:    []int{0, 0, 0},
							SplitConditions: []float64{23, 0.4, -0.3},
							DefaultLeft:     []FlexBool{false, false, false},
							LossChanges:     []float64{2, 0, 0},
						},
					},
				},
			},
			LearnerModelParam: LearnerModelParamDocument{
				BaseScore:  "5E-1",
				NumClass:   "0",
				NumFeature: "9",
			},
			Objective: ObjectiveDocument{Name: ObjectiveBinaryLogistic},
		},
	}
}

// row builds a testSchema row for today's RR, RH_AVG and TAVG.
func row(rr, rh, tavg float64) []float64 {
	return []float64{tavg, rh, 0, 0, rr, rr, rr, rr, rr}
}

func writeJSON(t *testing.T, dir, name string, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func writeZstdJSON(t *testing.T, dir, name string, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := enc.EncodeAll(data, nil)
	require.NoError(t, enc.Close())

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, compressed, 0o600))
	return path
}
