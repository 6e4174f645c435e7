// Package dataset defines the food feature table shared by every pipeline stage.
package dataset

import "math"

const (
	ColFoodName = "food_name"
	ColCategory = "category"

	ColCalories = "calories"
	ColProtein  = "protein"
	ColCarbs    = "carbs"
	ColFat      = "fat"
	ColIron     = "iron"
	ColVitaminC = "vitamin_c"

	ColNutriRaw   = "nutri_raw"
	ColNutriScore = "nutri_score"
	ColCluster    = "cluster"
	ColPC1        = "pc1"
	ColPC2        = "pc2"
)

// Unassigned marks a row that has not been through clustering yet.
const Unassigned = -1

// NutrientColumns is the fixed feature set, in schema order.
var NutrientColumns = []string{ColCalories, ColProtein, ColCarbs, ColFat, ColIron, ColVitaminC}

// IdentityColumns are carried by every row and never dropped.
var IdentityColumns = []string{ColFoodName, ColCategory}

// Stage records how far a table has travelled through the pipeline.
type Stage int

const (
	StageRaw Stage = iota
	StageScaled
	StageScored
	StageClustered
	StageProjected
)

func (s Stage) String() string {
	switch s {
	case StageRaw:
		return "raw"
	case StageScaled:
		return "scaled"
	case StageScored:
		return "scored"
	case StageClustered:
		return "clustered"
	case StageProjected:
		return "projected"
	}
	return "unknown"
}

// Row is one food item. Values is aligned with the owning table's Columns.
type Row struct {
	FoodName string
	Category string
	Values   []float64
	Cluster  int
}

// Table is an ordered collection of rows sharing one numeric schema.
type Table struct {
	Stage   Stage
	Columns []string
	Rows    []Row
}

// Undefined returns the value used for a missing measurement.
func Undefined() float64 {
	return math.NaN()
}

func IsUndefined(v float64) bool {
	return math.IsNaN(v)
}
