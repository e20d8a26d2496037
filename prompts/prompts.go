package prompts

import _ "embed"

// Embedded prompt files

//go:embed support_system.txt
var supportSystem string

//go:embed training_system.txt
var trainingSystem string

//go:embed nutrition_system.txt
var nutritionSystem string

//go:embed greeting.txt
var greeting string

func SupportSystem() string   { return supportSystem }
func TrainingSystem() string  { return trainingSystem }
func NutritionSystem() string { return nutritionSystem }
func Greeting() string        { return greeting }
