// Package model loads the trained rainfall-risk classifier and its metadata.
//
// Two artifacts are read once at startup:
//
//	model_config.json        {"feature_names": [...], "threshold": 0.35}
//	best_model_xgboost.json  XGBoost JSON model (Booster.save_model), optionally
//	                         zstd-compressed with a .zst suffix
//
// The XGBoost JSON format stores each tree as parallel arrays indexed by node
// id. A node is a leaf when its left child is -1; a leaf's output is stored in
// split_conditions. Inner nodes route a row left when value < split_condition,
// and missing (NaN) values follow default_left. The ensemble margin is the sum
// of leaf outputs plus the base margin derived from base_score, and the danger
// probability is sigmoid(margin).
package model
