package model

import (
	"encoding/json"
	"fmt"
)

// Document is the subset of the XGBoost JSON model format the service reads.
type Document struct {
	Learner LearnerDocument `json:"learner"`
	Version []int           `json:"version,omitempty"`
}

// LearnerDocument is the "learner" object of an XGBoost JSON model.
type LearnerDocument struct {
	Attributes        map[string]string         `json:"attributes,omitempty"`
	FeatureNames      []string                  `json:"feature_names,omitempty"`
	GradientBooster   GradientBoosterDocument   `json:"gradient_booster"`
	LearnerModelParam LearnerModelParamDocument `json:"learner_model_param"`
	Objective         ObjectiveDocument         `json:"objective"`
}

// GradientBoosterDocument holds the booster name and its trees.
type GradientBoosterDocument struct {
	Name  string              `json:"name"`
	Model GBTreeModelDocument `json:"model"`
}

// GBTreeModelDocument is the tree ensemble of a gbtree booster.
type GBTreeModelDocument struct {
	Param    GBTreeParamDocument `json:"gbtree_model_param"`
	TreeInfo []int               `json:"tree_info"`
	Trees    []TreeDocument      `json:"trees"`
}

// GBTreeParamDocument carries ensemble parameters; XGBoost serializes them as strings.
type GBTreeParamDocument struct {
	NumTrees        string `json:"num_trees"`
	NumParallelTree string `json:"num_parallel_tree,omitempty"`
}

// LearnerModelParamDocument carries learner parameters; XGBoost serializes them as strings.
type LearnerModelParamDocument struct {
	BaseScore  string `json:"base_score"`
	NumClass   string `json:"num_class"`
	NumFeature string `json:"num_feature"`
}

// ObjectiveDocument names the training objective.
type ObjectiveDocument struct {
	Name string `json:"name"`
}

// TreeDocument is one regression tree stored as parallel per-node arrays.
type TreeDocument struct {
	ID              int        `json:"id"`
	LeftChildren    []int      `json:"left_children"`
	RightChildren   []int      `json:"right_children"`
	SplitIndices    []int      `json:"split_indices"`
	SplitConditions []float64  `json:"split_conditions"`
	DefaultLeft     []FlexBool `json:"default_left"`
	LossChanges     []float64  `json:"loss_changes"`
}

// FlexBool decodes booleans that older XGBoost releases write as true/false and
// newer releases write as 0/1.
type FlexBool bool

// UnmarshalJSON accepts true, false, 0 and 1.
func (b *FlexBool) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true", "1":
		*b = true
	case "false", "0":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %s", data)
	}
	return nil
}

// MarshalJSON writes the integer form used by current XGBoost releases.
func (b FlexBool) MarshalJSON() ([]byte, error) {
	if b {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

var _ json.Unmarshaler = (*FlexBool)(nil)
