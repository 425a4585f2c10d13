// Package match ranks known names by similarity to a misspelled one.
//
// Names are normalized before comparison: CamelCase is split, case is folded
// and separators are dropped, so "rotation_2d", "Rotation2d" and
// "rotation-2D" all compare equal. Similarity is the normalized Levenshtein
// score of the two normalized forms.
package match
